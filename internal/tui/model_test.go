package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/racetyper/internal/model"
	"github.com/verte-zerg/racetyper/internal/protocol"
)

type fakeConn struct {
	refreshes []*int64
	changes   []model.EditEvent
	dones     []int64
	ch        chan protocol.Envelope
	failSend  error
}

func newFakeConn() *fakeConn {
	return &fakeConn{ch: make(chan protocol.Envelope, 4)}
}

func (f *fakeConn) Refresh(id *int64) error {
	f.refreshes = append(f.refreshes, id)
	return f.failSend
}

func (f *fakeConn) Change(ev model.EditEvent) error {
	if f.failSend != nil {
		return f.failSend
	}
	f.changes = append(f.changes, ev)
	return nil
}

func (f *fakeConn) Done(ts int64) error {
	f.dones = append(f.dones, ts)
	return nil
}

func (f *fakeConn) Messages() <-chan protocol.Envelope { return f.ch }
func (f *fakeConn) Err() error                         { return nil }

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func typingModel(t *testing.T, text string) (*Model, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	m := NewModel(conn, nil)
	m.now = stepClock(100 * time.Millisecond)
	id := int64(5)
	m.Update(serverMsg{env: protocol.TextMessage(model.ReferenceText{ID: id, Body: text})})
	if m.phase != phaseTyping {
		t.Fatalf("expected typing phase, got %v", m.phase)
	}
	return m, conn
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTypingStreamsChanges(t *testing.T) {
	m, conn := typingModel(t, "ab c")

	m.Update(keyRunes("a"))
	m.Update(keyRunes("x"))
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m.Update(keyRunes("b"))
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m.Update(keyRunes("c"))

	if len(conn.changes) != 6 {
		t.Fatalf("expected 6 changes, got %d", len(conn.changes))
	}
	if conn.changes[0].TS != 0 {
		t.Fatalf("expected first keystroke at ts 0, got %d", conn.changes[0].TS)
	}
	if conn.changes[1].TS != 100 {
		t.Fatalf("expected second keystroke at ts 100, got %d", conn.changes[1].TS)
	}
	del := conn.changes[2]
	if del.Change != model.EditDeleteBackward || del.Data != nil {
		t.Fatalf("expected delete without data, got %+v", del)
	}
	if *conn.changes[4].Data != " " {
		t.Fatalf("expected space insert, got %q", *conn.changes[4].Data)
	}
	if len(conn.dones) != 1 || conn.dones[0] != conn.changes[5].TS {
		t.Fatalf("expected done at last ts, got %v", conn.dones)
	}
	if m.phase != phaseScoring {
		t.Fatalf("expected scoring phase, got %v", m.phase)
	}
}

func TestBackspaceOnEmptyInputSendsNothing(t *testing.T) {
	m, conn := typingModel(t, "ab")
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if len(conn.changes) != 0 {
		t.Fatalf("expected no changes, got %d", len(conn.changes))
	}
}

func TestInputStopsAtTextLength(t *testing.T) {
	m, conn := typingModel(t, "ab")
	m.Update(keyRunes("xyz"))
	if len(conn.changes) != 2 || len(m.inputRunes) != 2 {
		t.Fatalf("expected input capped at 2, got %d changes", len(conn.changes))
	}
	if len(conn.dones) != 0 {
		t.Fatalf("expected no done for mistyped text")
	}
}

func TestGraphShowsResult(t *testing.T) {
	m, _ := typingModel(t, "hello world")
	m.width, m.height = 100, 30
	wpm := 66
	sid := int64(9)
	m.Update(serverMsg{env: protocol.Envelope{
		Type:      protocol.TypeGraph,
		Points:    []model.Segment{{Text: "hello world", ElapsedMs: 2000, MistakeCount: 0, WPM: 66, Relative: 50}},
		WPM:       &wpm,
		SessionID: &sid,
	}})
	if m.phase != phaseResult {
		t.Fatalf("expected result phase, got %v", m.phase)
	}
	view := m.View()
	for _, want := range []string{"66 WPM", "session #9", "hello world", "Mistakes"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view", want)
		}
	}
}

func TestGraphErrorShown(t *testing.T) {
	m, _ := typingModel(t, "a")
	m.Update(serverMsg{env: protocol.GraphError(errors.New("insufficient words"))})
	if !strings.Contains(m.View(), "Analysis failed: insufficient words") {
		t.Fatalf("expected analysis error in view: %s", m.View())
	}
}

func TestResultKeys(t *testing.T) {
	m, conn := typingModel(t, "a")
	m.Update(serverMsg{env: protocol.GraphMessage(nil, 0, 0)})

	m.Update(keyRunes("r"))
	if len(conn.refreshes) != 1 || conn.refreshes[0] == nil || *conn.refreshes[0] != 5 {
		t.Fatalf("expected retry of text 5, got %v", conn.refreshes)
	}
	if m.phase != phaseWaiting {
		t.Fatalf("expected waiting phase, got %v", m.phase)
	}

	m.phase = phaseResult
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if len(conn.refreshes) != 2 || conn.refreshes[1] != nil {
		t.Fatalf("expected random refresh, got %v", conn.refreshes)
	}
}

func TestCtrlRRequestsText(t *testing.T) {
	m, conn := typingModel(t, "abc")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if len(conn.refreshes) != 1 || m.phase != phaseWaiting {
		t.Fatalf("expected refresh and waiting phase")
	}
}

func TestSendFailureSetsStatus(t *testing.T) {
	m, conn := typingModel(t, "abc")
	conn.failSend = errors.New("connection lost")
	m.Update(keyRunes("a"))
	if m.status != "connection lost" {
		t.Fatalf("expected status, got %q", m.status)
	}
}

func TestErrorMessageSetsStatus(t *testing.T) {
	m := NewModel(newFakeConn(), nil)
	m.Update(serverMsg{env: protocol.ErrorMessage(errors.New("store unavailable"))})
	if m.status != "store unavailable" || m.phase != phaseWaiting {
		t.Fatalf("unexpected state: %q %v", m.status, m.phase)
	}
}

func TestDisconnected(t *testing.T) {
	m := NewModel(newFakeConn(), nil)
	m.Update(disconnectedMsg{err: errors.New("eof")})
	if !m.disconnected || !strings.Contains(m.status, "eof") {
		t.Fatalf("expected disconnected status, got %q", m.status)
	}
}
