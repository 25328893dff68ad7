package analysis

import (
	"math"
	"unicode/utf8"

	"github.com/verte-zerg/racetyper/internal/model"
)

const charsPerWord = 5.0

// DefaultRendering returns the reference rendering scale.
func DefaultRendering() model.Rendering {
	return model.Rendering{LineHeight: 75, LineWPM: 100}
}

// WPM converts a character count typed over durationMs into words per minute.
// The second return value is false when the duration cannot produce a speed.
func WPM(chars int, durationMs int64) (int, bool) {
	if durationMs <= 0 {
		return 0, false
	}
	wpm := (float64(chars) / charsPerWord) * (60000.0 / float64(durationMs))
	if math.IsInf(wpm, 0) || math.IsNaN(wpm) {
		return 0, false
	}
	return int(math.Round(wpm)), true
}

// Relative scales a WPM value into the rendering metric.
func Relative(wpm int, r model.Rendering) int {
	if r.LineWPM <= 0 {
		return 0
	}
	return int(math.Round(float64(r.LineHeight) / float64(r.LineWPM) * float64(wpm)))
}

// ApplySegmentMetrics fills WPM and Relative for every measured segment in
// place. A segment without a positive duration, including one closed by an
// out-of-order timestamp, is reset to unmeasured in every field.
func ApplySegmentMetrics(segments []model.Segment, r model.Rendering) {
	for i := range segments {
		seg := &segments[i]
		wpm, ok := WPM(utf8.RuneCountInString(seg.Text), seg.ElapsedMs)
		if !ok {
			seg.ElapsedMs = model.Unmeasured
			seg.MistakeCount = model.Unmeasured
			seg.WPM = model.Unmeasured
			seg.Relative = model.Unmeasured
			continue
		}
		seg.WPM = wpm
		seg.Relative = Relative(wpm, r)
	}
}

// SessionWPM computes the whole-session speed for a reference text typed in
// totalMs. It returns 0 when no time has elapsed.
func SessionWPM(text string, totalMs int64) int {
	wpm, ok := WPM(utf8.RuneCountInString(text), totalMs)
	if !ok {
		return 0
	}
	return wpm
}

// TotalElapsed returns the timestamp of the last event, or 0 for an empty log.
func TotalElapsed(events []model.EditEvent) int64 {
	if len(events) == 0 {
		return 0
	}
	return events[len(events)-1].TS
}
