// Package protocol implements the JSON message envelope exchanged over the
// typing connection.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/verte-zerg/racetyper/internal/model"
)

// Message types carried in the envelope's type field.
const (
	TypeRefresh = "refresh"
	TypeChange  = "change"
	TypeDone    = "done"
	TypeText    = "text"
	TypeGraph   = "graph"
	TypeError   = "error"
	TypeUnknown = "Unknown"
)

var (
	// ErrMalformedEnvelope is returned for frames that are not a JSON envelope.
	ErrMalformedEnvelope = errors.New("malformed envelope")
	// ErrMalformedEvent is returned for change or done messages missing required fields.
	ErrMalformedEvent = errors.New("malformed event")
)

// Envelope is the wire form of every message in both directions.
type Envelope struct {
	Type      string          `json:"type"`
	ID        *int64          `json:"id,omitempty"`
	Text      *string         `json:"text,omitempty"`
	Data      *string         `json:"data,omitempty"`
	Change    *string         `json:"change,omitempty"`
	TS        *int64          `json:"ts,omitempty"`
	Points    []model.Segment `json:"points,omitempty"`
	WPM       *int            `json:"wpm,omitempty"`
	SessionID *int64          `json:"session_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Message is one decoded inbound message: RequestText, EditEvent,
// CompletionSignal or Unknown.
type Message interface {
	isMessage()
}

// RequestText asks for a new reference text. TextID selects a specific text.
type RequestText struct {
	TextID *int64
}

// EditEvent carries one client edit.
type EditEvent struct {
	Event model.EditEvent
}

// CompletionSignal reports that the client finished typing.
type CompletionSignal struct {
	TS int64
}

// Unknown is any message with an unrecognized type.
type Unknown struct {
	Type string
}

func (RequestText) isMessage()      {}
func (EditEvent) isMessage()        {}
func (CompletionSignal) isMessage() {}
func (Unknown) isMessage()          {}

// Decode parses one inbound frame.
func Decode(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	switch env.Type {
	case TypeRefresh:
		return RequestText{TextID: env.ID}, nil
	case TypeChange:
		if env.Change == nil {
			return nil, fmt.Errorf("%w: change missing kind", ErrMalformedEvent)
		}
		if env.TS == nil {
			return nil, fmt.Errorf("%w: change missing ts", ErrMalformedEvent)
		}
		return EditEvent{Event: model.EditEvent{
			Data:   env.Data,
			Change: model.EditKind(*env.Change),
			TS:     *env.TS,
		}}, nil
	case TypeDone:
		if env.TS == nil {
			return nil, fmt.Errorf("%w: done missing ts", ErrMalformedEvent)
		}
		// Completion uses the last logged timestamp; ts is informational.
		return CompletionSignal{TS: *env.TS}, nil
	default:
		return Unknown{Type: env.Type}, nil
	}
}

// Encode serializes an outbound envelope.
func Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// TextMessage builds the reply that delivers a reference text.
func TextMessage(text model.ReferenceText) Envelope {
	id := text.ID
	body := text.Body
	return Envelope{Type: TypeText, ID: &id, Text: &body}
}

// GraphMessage builds the reply that delivers segment results.
func GraphMessage(points []model.Segment, wpm int, sessionID int64) Envelope {
	return Envelope{Type: TypeGraph, Points: points, WPM: &wpm, SessionID: &sessionID}
}

// GraphError builds a failed analysis reply.
func GraphError(err error) Envelope {
	return Envelope{Type: TypeGraph, Error: err.Error()}
}

// ErrorMessage builds a generic failure reply.
func ErrorMessage(err error) Envelope {
	return Envelope{Type: TypeError, Error: err.Error()}
}

// UnknownMessage builds the reply for unrecognized message types.
func UnknownMessage() Envelope {
	return Envelope{Type: TypeUnknown}
}

// RefreshMessage builds a client request for a text.
func RefreshMessage(textID *int64) Envelope {
	return Envelope{Type: TypeRefresh, ID: textID}
}

// ChangeMessage builds a client edit event.
func ChangeMessage(ev model.EditEvent) Envelope {
	change := string(ev.Change)
	ts := ev.TS
	return Envelope{Type: TypeChange, Data: ev.Data, Change: &change, TS: &ts}
}

// DoneMessage builds a client completion signal.
func DoneMessage(ts int64) Envelope {
	return Envelope{Type: TypeDone, TS: &ts}
}
