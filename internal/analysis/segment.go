// Package analysis reconstructs typing sessions and computes speed metrics.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/verte-zerg/racetyper/internal/model"
)

var (
	// ErrInvalidSegmentCount is returned when the requested segment count is not positive.
	ErrInvalidSegmentCount = errors.New("segment count must be > 0")
	// ErrInsufficientWords is returned when a text has fewer words than requested segments.
	ErrInsufficientWords = errors.New("insufficient words")
)

// SegmentText splits text into word groups of round(W/n) words each. A
// trailing partial group is kept as its own segment, so more than n segments
// may be returned.
func SegmentText(text string, n int) ([]model.Segment, error) {
	if n <= 0 {
		return nil, ErrInvalidSegmentCount
	}
	words := strings.Split(text, " ")
	if len(words) < n {
		return nil, fmt.Errorf("%w: %d words for %d segments", ErrInsufficientWords, len(words), n)
	}
	divider := int(math.Round(float64(len(words)) / float64(n)))

	segments := make([]model.Segment, 0, n+1)
	group := make([]string, 0, divider)
	for _, word := range words {
		group = append(group, word)
		if len(group) == divider {
			segments = append(segments, newSegment(group))
			group = group[:0]
		}
	}
	if len(group) > 0 {
		segments = append(segments, newSegment(group))
	}
	return segments, nil
}

func newSegment(words []string) model.Segment {
	return model.Segment{
		Text:         strings.Join(words, " "),
		ElapsedMs:    model.Unmeasured,
		MistakeCount: model.Unmeasured,
		WPM:          model.Unmeasured,
		Relative:     model.Unmeasured,
	}
}

// JoinSegments rebuilds the text a segment sequence was cut from.
func JoinSegments(segments []model.Segment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}
