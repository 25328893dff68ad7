package analysis

import "github.com/verte-zerg/racetyper/internal/model"

// Analysis is the full result of analysing one typing session.
type Analysis struct {
	Segments []model.Segment
	WPM      int
	Complete bool
	Skipped  []SkippedEvent
}

// Analyze segments text, replays events against it and derives speed metrics.
func Analyze(text string, events []model.EditEvent, segmentCount int, r model.Rendering) (Analysis, error) {
	segments, err := SegmentText(text, segmentCount)
	if err != nil {
		return Analysis{}, err
	}
	replayed, err := Replay(events, segments)
	if err != nil {
		return Analysis{}, err
	}
	ApplySegmentMetrics(replayed.Segments, r)
	return Analysis{
		Segments: replayed.Segments,
		WPM:      SessionWPM(text, TotalElapsed(events)),
		Complete: replayed.Complete,
		Skipped:  replayed.Skipped,
	}, nil
}
