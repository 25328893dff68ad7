// Package tui provides the Bubble Tea typing client.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/racetyper/internal/model"
	"github.com/verte-zerg/racetyper/internal/protocol"
)

// Conn is the server connection the player drives.
type Conn interface {
	Refresh(id *int64) error
	Change(ev model.EditEvent) error
	Done(ts int64) error
	Messages() <-chan protocol.Envelope
	Err() error
}

type phase int

const (
	phaseWaiting phase = iota
	phaseTyping
	phaseScoring
	phaseResult
)

type serverMsg struct {
	env protocol.Envelope
}

type disconnectedMsg struct {
	err error
}

type sendErrMsg struct {
	err error
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	conn   Conn
	textID *int64
	now    func() time.Time

	width  int
	height int

	phase       phase
	targetRunes []rune
	inputRunes  []rune

	started   bool
	startedAt time.Time
	keys      int
	deletes   int

	result       []model.Segment
	resultWPM    int
	sessionID    int64
	resultErr    string
	resultTable  table.Model
	status       string
	disconnected bool
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	headlineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// NewModel constructs a player. textID selects the first text; nil asks for a random one.
func NewModel(conn Conn, textID *int64) *Model {
	return &Model{
		conn:   conn,
		textID: textID,
		now:    time.Now,
		phase:  phaseWaiting,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	id := m.textID
	conn := m.conn
	return tea.Batch(
		func() tea.Msg {
			if err := conn.Refresh(id); err != nil {
				return sendErrMsg{err: err}
			}
			return nil
		},
		waitForServer(conn),
	)
}

func waitForServer(conn Conn) tea.Cmd {
	ch := conn.Messages()
	return func() tea.Msg {
		env, ok := <-ch
		if !ok {
			return disconnectedMsg{err: conn.Err()}
		}
		return serverMsg{env: env}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.phase == phaseResult {
			m.resultTable = buildResultTable(m.result, m.width)
		}
		return m, nil
	case serverMsg:
		m.handleServer(msg.env)
		return m, waitForServer(m.conn)
	case disconnectedMsg:
		m.disconnected = true
		if msg.err != nil {
			m.status = fmt.Sprintf("disconnected: %v", msg.err)
		} else {
			m.status = "disconnected"
		}
		return m, nil
	case sendErrMsg:
		m.status = msg.err.Error()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyCtrlR:
		m.requestText(nil)
		return m, nil
	}

	switch m.phase {
	case phaseResult:
		switch {
		case msg.Type == tea.KeyEnter:
			m.requestText(nil)
		case msg.Type == tea.KeyRunes && string(msg.Runes) == "r":
			m.requestText(m.textID)
		}
	case phaseTyping:
		switch msg.Type {
		case tea.KeyBackspace, tea.KeyDelete:
			m.handleBackspace()
		case tea.KeySpace:
			m.handleRunes([]rune{' '})
		case tea.KeyRunes:
			m.handleRunes(msg.Runes)
		}
	}
	return m, nil
}

func (m *Model) handleServer(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeText:
		if env.Text == nil {
			m.status = "server sent an empty text"
			return
		}
		m.textID = env.ID
		m.resetSession([]rune(*env.Text))
		m.phase = phaseTyping
		m.status = ""
	case protocol.TypeGraph:
		m.phase = phaseResult
		m.result = env.Points
		m.resultErr = env.Error
		m.resultWPM = 0
		if env.WPM != nil {
			m.resultWPM = *env.WPM
		}
		m.sessionID = 0
		if env.SessionID != nil {
			m.sessionID = *env.SessionID
		}
		m.resultTable = buildResultTable(m.result, m.width)
	case protocol.TypeError:
		m.status = env.Error
	case protocol.TypeUnknown:
		m.status = "server did not understand the last message"
	}
}

func (m *Model) requestText(id *int64) {
	if err := m.conn.Refresh(id); err != nil {
		m.status = err.Error()
		return
	}
	m.phase = phaseWaiting
	m.status = ""
}

func (m *Model) handleBackspace() {
	if len(m.inputRunes) == 0 {
		return
	}
	m.inputRunes = m.inputRunes[:len(m.inputRunes)-1]
	m.deletes++
	m.send(model.EditEvent{Change: model.EditDeleteBackward, TS: m.elapsed()})
}

func (m *Model) handleRunes(runes []rune) {
	for _, r := range runes {
		if len(m.inputRunes) >= len(m.targetRunes) {
			return
		}
		ts := m.elapsed()
		data := string(r)
		m.inputRunes = append(m.inputRunes, r)
		m.keys++
		if !m.send(model.EditEvent{Data: &data, Change: model.EditInsertText, TS: ts}) {
			return
		}
		if string(m.inputRunes) == string(m.targetRunes) {
			if err := m.conn.Done(ts); err != nil {
				m.status = err.Error()
				return
			}
			m.phase = phaseScoring
			return
		}
	}
}

func (m *Model) send(ev model.EditEvent) bool {
	if err := m.conn.Change(ev); err != nil {
		m.status = err.Error()
		return false
	}
	return true
}

// elapsed returns milliseconds since the first keystroke of the current text.
func (m *Model) elapsed() int64 {
	now := m.now()
	if !m.started {
		m.started = true
		m.startedAt = now
		return 0
	}
	return now.Sub(m.startedAt).Milliseconds()
}

func (m *Model) resetSession(target []rune) {
	m.targetRunes = target
	m.inputRunes = nil
	m.started = false
	m.startedAt = time.Time{}
	m.keys = 0
	m.deletes = 0
	m.result = nil
	m.resultErr = ""
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.phase {
	case phaseWaiting:
		content = pendingStyle.Render("Waiting for text…")
	case phaseResult:
		content = m.renderResult()
	default:
		content = m.renderText()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderText() string {
	if len(m.targetRunes) == 0 {
		return ""
	}
	cells := styleCells(m.targetRunes, m.inputRunes)
	if m.width == 0 {
		return renderLines([][]cell{cells})
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	lines := layoutLines(cells, contentWidth)
	if m.height > 0 {
		from, to := window(len(lines), lineOf(lines, len(m.inputRunes)), m.height-3)
		lines = lines[from:to]
	}
	return lipgloss.NewStyle().Width(contentWidth).Render(renderLines(lines))
}

func (m *Model) renderFooter() string {
	segments := []string{}
	switch m.phase {
	case phaseTyping, phaseScoring:
		progress := 0
		if len(m.targetRunes) > 0 {
			progress = int(float64(len(m.inputRunes)) / float64(len(m.targetRunes)) * 100)
		}
		segments = append(segments, fmt.Sprintf("Progress %d%%", progress))
		segments = append(segments, fmt.Sprintf("Keys %d · Corrections %d", m.keys, m.deletes))
		if m.phase == phaseScoring {
			segments = append(segments, "Scoring…")
		}
	case phaseResult:
		segments = append(segments, "enter: next text · r: retry · ctrl+c: quit")
	default:
		segments = append(segments, "ctrl+r: new text · ctrl+c: quit")
	}
	footer := footerStyle.Render(strings.Join(segments, "  "))
	if m.status != "" {
		footer += "  " + errorStyle.Render(m.status)
	}
	return footer
}
