package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/verte-zerg/racetyper/internal/model"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		check   func(t *testing.T, msg Message)
		wantErr error
	}{
		{
			name:  "refresh",
			input: `{"type":"refresh"}`,
			check: func(t *testing.T, msg Message) {
				req, ok := msg.(RequestText)
				if !ok || req.TextID != nil {
					t.Fatalf("unexpected message: %#v", msg)
				}
			},
		},
		{
			name:  "refresh with id",
			input: `{"type":"refresh","id":7}`,
			check: func(t *testing.T, msg Message) {
				req, ok := msg.(RequestText)
				if !ok || req.TextID == nil || *req.TextID != 7 {
					t.Fatalf("unexpected message: %#v", msg)
				}
			},
		},
		{
			name:  "insert change",
			input: `{"type":"change","change":"insertText","data":"a","ts":120}`,
			check: func(t *testing.T, msg Message) {
				ev, ok := msg.(EditEvent)
				if !ok {
					t.Fatalf("unexpected message: %#v", msg)
				}
				if ev.Event.Change != model.EditInsertText || ev.Event.TS != 120 || ev.Event.Data == nil || *ev.Event.Data != "a" {
					t.Fatalf("unexpected event: %+v", ev.Event)
				}
			},
		},
		{
			name:  "delete change with null data",
			input: `{"type":"change","change":"deleteContentBackward","data":null,"ts":5}`,
			check: func(t *testing.T, msg Message) {
				ev, ok := msg.(EditEvent)
				if !ok || ev.Event.Data != nil || ev.Event.Change != model.EditDeleteBackward {
					t.Fatalf("unexpected message: %#v", msg)
				}
			},
		},
		{
			name:    "change missing ts",
			input:   `{"type":"change","change":"insertText","data":"a"}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "change missing kind",
			input:   `{"type":"change","data":"a","ts":1}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:  "done",
			input: `{"type":"done","ts":900}`,
			check: func(t *testing.T, msg Message) {
				done, ok := msg.(CompletionSignal)
				if !ok || done.TS != 900 {
					t.Fatalf("unexpected message: %#v", msg)
				}
			},
		},
		{
			name:    "done missing ts",
			input:   `{"type":"done"}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:  "unknown type",
			input: `{"type":"ping"}`,
			check: func(t *testing.T, msg Message) {
				u, ok := msg.(Unknown)
				if !ok || u.Type != "ping" {
					t.Fatalf("unexpected message: %#v", msg)
				}
			},
		},
		{
			name:    "not json",
			input:   `hello`,
			wantErr: ErrMalformedEnvelope,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg, err := Decode([]byte(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() unexpected error: %v", err)
			}
			tt.check(t, msg)
		})
	}
}

func TestEncodeGraph(t *testing.T) {
	t.Parallel()

	points := []model.Segment{{Text: "ab", ElapsedMs: 500, MistakeCount: 1, WPM: 48, Relative: 36}}
	data, err := Encode(GraphMessage(points, 50, 3))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["type"] != TypeGraph {
		t.Fatalf("type = %v", raw["type"])
	}
	if _, ok := raw["text"]; ok {
		t.Fatalf("graph message should omit text")
	}
	pts, ok := raw["points"].([]any)
	if !ok || len(pts) != 1 {
		t.Fatalf("unexpected points: %v", raw["points"])
	}
	first := pts[0].(map[string]any)
	if first["ms"].(float64) != 500 || first["mistakes"].(float64) != 1 || first["wpm"].(float64) != 48 {
		t.Fatalf("unexpected point: %v", first)
	}
}

func TestChangeMessageRoundTrip(t *testing.T) {
	t.Parallel()

	data, err := Encode(ChangeMessage(model.EditEvent{Change: model.EditDeleteBackward, TS: 42}))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ev, ok := msg.(EditEvent)
	if !ok || ev.Event.Data != nil || ev.Event.TS != 42 {
		t.Fatalf("unexpected message: %#v", msg)
	}
}
