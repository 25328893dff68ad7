// Package client speaks the typing protocol from the player side.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/racetyper/internal/model"
	"github.com/verte-zerg/racetyper/internal/protocol"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("client closed")

const writeTimeout = 10 * time.Second

// Client is a WebSocket connection to a racetyper server.
type Client struct {
	ws     *websocket.Conn
	logger logrus.FieldLogger

	incoming chan protocol.Envelope
	done     chan struct{}

	writeMu sync.Mutex
	closed  bool

	errMu sync.Mutex
	err   error
}

// Dial connects to url, for example ws://localhost:8080/ws/.
func Dial(ctx context.Context, url string, logger logrus.FieldLogger) (*Client, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.WithError(cerr).Debug("handshake body close failed")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{
		ws:       ws,
		logger:   logger.WithField("url", url),
		incoming: make(chan protocol.Envelope, 16),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Messages returns server messages. The channel is closed when the
// connection ends; Err then reports why.
func (c *Client) Messages() <-chan protocol.Envelope {
	return c.incoming
}

// Err returns the error that ended the read loop, if any.
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Send writes one envelope.
func (c *Client) Send(env protocol.Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := c.ws.WriteJSON(env); err != nil {
		return fmt.Errorf("send %s: %w", env.Type, err)
	}
	return nil
}

// Refresh requests a text, a specific one when id is not nil.
func (c *Client) Refresh(id *int64) error {
	return c.Send(protocol.RefreshMessage(id))
}

// Change reports one edit.
func (c *Client) Change(ev model.EditEvent) error {
	return c.Send(protocol.ChangeMessage(ev))
}

// Done signals that typing finished.
func (c *Client) Done(ts int64) error {
	return c.Send(protocol.DoneMessage(ts))
}

// Close sends a normal close frame and closes the socket.
func (c *Client) Close() error {
	c.writeMu.Lock()
	if c.closed {
		c.writeMu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		c.logger.WithError(err).Debug("close frame not sent")
	}
	c.writeMu.Unlock()
	return c.ws.Close()
}

// readLoop delivers frames until the connection ends or Close is called.
// Frames that are not an envelope are logged and skipped.
func (c *Client) readLoop() {
	defer close(c.incoming)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.setErr(err)
			return
		}
		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.WithError(err).Warn("undecodable frame skipped")
			continue
		}
		select {
		case c.incoming <- env:
		case <-c.done:
			return
		}
	}
}

func (c *Client) setErr(err error) {
	select {
	case <-c.done:
		return
	default:
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		return
	}
	c.errMu.Lock()
	c.err = err
	c.errMu.Unlock()
}
