package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/racetyper/internal/log"
	"github.com/verte-zerg/racetyper/internal/model"
	"github.com/verte-zerg/racetyper/internal/protocol"
)

// echoServer answers refresh with a text and replays every other envelope back.
func echoServer(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			var env protocol.Envelope
			if err := ws.ReadJSON(&env); err != nil {
				return
			}
			if env.Type == protocol.TypeRefresh {
				env = protocol.TextMessage(model.ReferenceText{ID: 3, Body: "hello world"})
			}
			if err := ws.WriteJSON(env); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func next(t *testing.T, c *Client) protocol.Envelope {
	t.Helper()
	select {
	case env, ok := <-c.Messages():
		require.True(t, ok, "connection closed: %v", c.Err())
		return env
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for message")
		return protocol.Envelope{}
	}
}

func TestClientRoundTrip(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), echoServer(t), log.Discard())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Refresh(nil))
	text := next(t, c)
	require.Equal(t, protocol.TypeText, text.Type)
	require.Equal(t, "hello world", *text.Text)

	data := "h"
	require.NoError(t, c.Change(model.EditEvent{Data: &data, Change: model.EditInsertText, TS: 12}))
	echo := next(t, c)
	require.Equal(t, protocol.TypeChange, echo.Type)
	require.Equal(t, "h", *echo.Data)
	require.Equal(t, int64(12), *echo.TS)

	require.NoError(t, c.Done(40))
	require.Equal(t, protocol.TypeDone, next(t, c).Type)
}

func TestClientClose(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), echoServer(t), log.Discard())
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.ErrorIs(t, c.Send(protocol.DoneMessage(1)), ErrClosed)

	select {
	case _, ok := <-c.Messages():
		require.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("messages channel not closed")
	}
}

func TestDialFailure(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Dial(ctx, "ws://127.0.0.1:1/ws/", log.Discard())
	require.Error(t, err)
}

// scriptedServer writes frames to every connection, then waits for the peer
// to hang up.
func scriptedServer(t *testing.T, frames ...[]byte) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for _, f := range frames {
			if err := ws.WriteMessage(websocket.TextMessage, f); err != nil {
				return
			}
		}
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestClientSkipsUndecodableFrame(t *testing.T) {
	t.Parallel()

	url := scriptedServer(t, []byte("not json"), []byte(`{"type":"text","id":4,"text":"ok"}`))
	c, err := Dial(context.Background(), url, log.Discard())
	require.NoError(t, err)
	defer c.Close()

	env := next(t, c)
	require.Equal(t, protocol.TypeText, env.Type)
	require.Equal(t, "ok", *env.Text)
	require.NoError(t, c.Err())
}

func TestCloseUnblocksStalledReader(t *testing.T) {
	t.Parallel()

	frames := make([][]byte, 64)
	for i := range frames {
		frames[i] = []byte(`{"type":"Unknown"}`)
	}
	c, err := Dial(context.Background(), scriptedServer(t, frames...), log.Discard())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(c.incoming) == cap(c.incoming) }, 3*time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-c.Messages():
			if !ok {
				require.NoError(t, c.Err())
				return
			}
		case <-deadline:
			t.Fatal("messages channel not closed after Close")
		}
	}
}
