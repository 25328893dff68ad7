package analysis

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/verte-zerg/racetyper/internal/model"
)

// Sentinel is the synthetic character that marks the end of typing.
const Sentinel = "\u0004"

var (
	// ErrMalformedInsert is reported for an insert event without a payload.
	ErrMalformedInsert = errors.New("insert event without data")
	// ErrMalformedDelete is reported for a delete event carrying a payload.
	ErrMalformedDelete = errors.New("delete event with data")
	// ErrNoSegments is returned when replay has nothing to measure against.
	ErrNoSegments = errors.New("no segments to replay")
)

// SkippedEvent records an edit event that replay could not apply.
type SkippedEvent struct {
	Index int
	Err   error
}

// ReplayResult is the outcome of replaying an edit log.
type ReplayResult struct {
	Segments []model.Segment
	// Complete is true once the sentinel closed the final matched segment.
	Complete bool
	// Closed counts segments that received a timing.
	Closed  int
	Skipped []SkippedEvent
}

type replayer struct {
	segments   []model.Segment
	cursor     int
	acc        []rune
	entered    int
	segStartTS int64
}

// Replay walks events in arrival order and fills in timing and mistake counts
// for each segment the reconstructed input matches. Segments are copied; the
// input slice is not modified. A log that ends before the sentinel yields a
// partial result with the remaining segments unmeasured.
func Replay(events []model.EditEvent, segments []model.Segment) (ReplayResult, error) {
	if len(segments) == 0 {
		return ReplayResult{}, ErrNoSegments
	}
	r := &replayer{segments: append([]model.Segment(nil), segments...)}
	result := ReplayResult{}

	for i, ev := range events {
		if r.cursor >= len(r.segments) {
			break
		}
		switch ev.Change {
		case model.EditInsertText:
			if ev.Data == nil {
				result.Skipped = append(result.Skipped, SkippedEvent{Index: i, Err: fmt.Errorf("%w at %d", ErrMalformedInsert, i)})
				continue
			}
			if r.insert(*ev.Data, ev.TS) {
				result.Complete = true
			}
		case model.EditDeleteBackward:
			if ev.Data != nil {
				result.Skipped = append(result.Skipped, SkippedEvent{Index: i, Err: fmt.Errorf("%w at %d", ErrMalformedDelete, i)})
				continue
			}
			r.deleteBackward()
		}
		if result.Complete {
			break
		}
	}

	result.Segments = r.segments
	result.Closed = r.cursor
	if result.Complete {
		result.Closed++
	}
	return result, nil
}

// insert applies one insert event and reports whether replay must stop.
func (r *replayer) insert(p string, ts int64) bool {
	n := utf8.RuneCountInString(p)
	r.entered += n
	if p != " " && p != Sentinel {
		r.acc = append(r.acc, []rune(p)...)
		return false
	}

	seg := &r.segments[r.cursor]
	if string(r.acc) != seg.Text {
		// Mismatched boundary: keep accumulating until the input resyncs.
		r.acc = append(r.acc, []rune(p)...)
		return false
	}

	seg.ElapsedMs = ts - r.segStartTS
	seg.MistakeCount = r.entered - n - len(r.acc)
	if p == Sentinel {
		return true
	}
	r.cursor++
	r.segStartTS = ts
	r.acc = r.acc[:0]
	r.entered = 0
	return false
}

func (r *replayer) deleteBackward() {
	r.entered++
	if len(r.acc) > 0 {
		r.acc = r.acc[:len(r.acc)-1]
	}
}
