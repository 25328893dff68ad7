// Package session implements the per-connection typing session state machine.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/racetyper/internal/analysis"
	"github.com/verte-zerg/racetyper/internal/log"
	"github.com/verte-zerg/racetyper/internal/model"
	"github.com/verte-zerg/racetyper/internal/protocol"
)

// State is the lifecycle state of a session.
type State int

const (
	AwaitingText State = iota
	Active
	Completed
	Closed
)

func (s State) String() string {
	switch s {
	case AwaitingText:
		return "awaiting_text"
	case Active:
		return "active"
	case Completed:
		return "completed"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// TextStore provides reference texts.
type TextStore interface {
	RandomText(ctx context.Context) (model.ReferenceText, error)
	TextByID(ctx context.Context, id int64) (model.ReferenceText, error)
}

// ResultStore persists completed sessions.
type ResultStore interface {
	SaveSession(ctx context.Context, res model.SessionResult) (int64, error)
}

// Session owns the state of one connection. It is not safe for concurrent
// use; the owning connection worker serializes every call.
type Session struct {
	cfg     model.SessionConfig
	texts   TextStore
	results ResultStore
	logger  logrus.FieldLogger
	now     func() time.Time

	state     State
	text      model.ReferenceText
	editLog   []model.EditEvent
	segments  []model.Segment
	startedAt time.Time
}

// New creates a session awaiting its first text request.
func New(cfg model.SessionConfig, texts TextStore, results ResultStore, logger logrus.FieldLogger) *Session {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Session{
		cfg:     cfg,
		texts:   texts,
		results: results,
		logger:  logger,
		now:     time.Now,
		state:   AwaitingText,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Text returns the assigned reference text.
func (s *Session) Text() model.ReferenceText { return s.text }

// EditLog returns the events collected so far.
func (s *Session) EditLog() []model.EditEvent { return s.editLog }

// Segments returns the analysed segments of the last completion.
func (s *Session) Segments() []model.Segment { return s.segments }

// StartedAt returns when the current text was assigned.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Handle dispatches one inbound message. The returned envelope, if any, must
// be sent to the client. A non-nil error describes why the message was
// rejected; the session stays in its prior state in that case.
func (s *Session) Handle(ctx context.Context, msg protocol.Message) (*protocol.Envelope, error) {
	if s.state == Closed {
		return nil, ErrClosed
	}
	switch m := msg.(type) {
	case protocol.RequestText:
		return s.requestText(ctx, m)
	case protocol.EditEvent:
		return nil, s.appendEdit(m.Event)
	case protocol.CompletionSignal:
		return s.complete(ctx)
	case protocol.Unknown:
		s.logger.WithField("type", m.Type).Debug("unknown message type")
		reply := protocol.UnknownMessage()
		return &reply, nil
	default:
		return nil, fmt.Errorf("%w: unsupported message %T", ErrProtocolViolation, msg)
	}
}

// Close releases all session state. It is safe to call more than once.
func (s *Session) Close() {
	if s.state == Closed {
		return
	}
	s.state = Closed
	s.text = model.ReferenceText{}
	s.editLog = nil
	s.segments = nil
}

func (s *Session) requestText(ctx context.Context, req protocol.RequestText) (*protocol.Envelope, error) {
	var (
		text model.ReferenceText
		err  error
	)
	if req.TextID != nil {
		text, err = s.texts.TextByID(ctx, *req.TextID)
	} else {
		text, err = s.texts.RandomText(ctx)
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		reply := protocol.ErrorMessage(err)
		return &reply, err
	}

	s.text = text
	s.editLog = s.editLog[:0]
	s.segments = nil
	s.startedAt = s.now()
	s.state = Active
	s.logger.WithField("text_id", text.ID).Info("text assigned")

	reply := protocol.TextMessage(text)
	return &reply, nil
}

func (s *Session) appendEdit(ev model.EditEvent) error {
	if s.state != Active {
		return fmt.Errorf("%w: change while %s", ErrProtocolViolation, s.state)
	}
	if ev.Data != nil && strings.Contains(*ev.Data, analysis.Sentinel) {
		return fmt.Errorf("%w: payload carries the end-of-typing marker", ErrMalformedEvent)
	}
	if s.cfg.MaxEditEvents > 0 && len(s.editLog) >= s.cfg.MaxEditEvents {
		return fmt.Errorf("%w: %d events", ErrEditLogFull, len(s.editLog))
	}
	s.editLog = append(s.editLog, ev)
	s.logger.WithFields(log.EditEventFields(ev)).Trace("edit appended")
	return nil
}

func (s *Session) complete(ctx context.Context) (*protocol.Envelope, error) {
	if s.state != Active {
		return nil, fmt.Errorf("%w: done while %s", ErrProtocolViolation, s.state)
	}

	events := s.editLog
	if len(events) > 0 {
		sentinel := analysis.Sentinel
		last := events[len(events)-1].TS
		events = append(events[:len(events):len(events)], model.EditEvent{
			Data:   &sentinel,
			Change: model.EditInsertText,
			TS:     last,
		})
	}

	result, err := analysis.Analyze(s.text.Body, events, s.cfg.Segments, s.cfg.Rendering)
	if err != nil {
		reply := protocol.GraphError(err)
		return &reply, fmt.Errorf("analyse text %d: %w", s.text.ID, err)
	}
	for _, skipped := range result.Skipped {
		s.logger.WithError(skipped.Err).Warn("edit event skipped during replay")
	}

	s.editLog = events
	s.segments = result.Segments
	s.state = Completed

	sessionID := s.persist(ctx, result)
	s.logger.WithFields(logrus.Fields{
		"text_id":    s.text.ID,
		"wpm":        result.WPM,
		"complete":   result.Complete,
		"session_id": sessionID,
	}).Info("session completed")

	reply := protocol.GraphMessage(result.Segments, result.WPM, sessionID)
	return &reply, nil
}

// persist stores the completed session and returns its id, or 0 on failure.
// Failures are logged and never block the reply.
func (s *Session) persist(ctx context.Context, result analysis.Analysis) int64 {
	inputs, err := json.Marshal(s.editLog)
	if err != nil {
		s.logger.WithError(err).Error("serialize edit log")
		return 0
	}
	if s.editLog == nil {
		inputs = []byte("[]")
	}
	res := model.SessionResult{
		Inputs:    string(inputs),
		WPM:       result.WPM,
		WPM80:     0,
		ParentID:  s.text.ID,
		CreatedAt: s.now(),
		Segments:  result.Segments,
	}
	id, err := s.results.SaveSession(ctx, res)
	if err != nil {
		s.logger.WithError(fmt.Errorf("%w: %w", ErrStoreUnavailable, err)).Error("session save failed")
		return 0
	}
	res.ID = id
	s.logger.WithFields(log.SessionResultFields(res)).Debug("session saved")
	return id
}
