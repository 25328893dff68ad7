package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/racetyper/internal/model"
)

func sampleSegments() []model.Segment {
	return []model.Segment{
		{Text: "the quick brown", ElapsedMs: 1600, MistakeCount: 0, WPM: 60, Relative: 45},
		{Text: "fox jumps over", ElapsedMs: 1500, MistakeCount: 2, WPM: 100, Relative: 75},
		{Text: "the lazy dog", ElapsedMs: -1, MistakeCount: -1, WPM: -1, Relative: -1},
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize(sampleSegments())
	if sum.Segments != 3 || sum.Measured != 2 {
		t.Fatalf("unexpected counts: %+v", sum)
	}
	if sum.AvgWPM != 80 {
		t.Fatalf("expected avg 80, got %v", sum.AvgWPM)
	}
	if sum.BestWPM != 100 || sum.WorstWPM != 60 || sum.SlowestIdx != 0 {
		t.Fatalf("unexpected extremes: %+v", sum)
	}
	if sum.Mistakes != 2 {
		t.Fatalf("expected 2 mistakes, got %d", sum.Mistakes)
	}
}

func TestSummarizeNothingMeasured(t *testing.T) {
	sum := Summarize([]model.Segment{{Text: "a", ElapsedMs: -1, MistakeCount: -1, WPM: -1, Relative: -1}})
	if sum.Measured != 0 || sum.SlowestIdx != -1 || sum.AvgWPM != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
	if got := Sparkline([]float64{5, 5, 5}); got != "+++" {
		t.Fatalf("expected flat sparkline, got %q", got)
	}
	if got := Sparkline([]float64{0, 10}); got != " @" {
		t.Fatalf("expected extremes, got %q", got)
	}
}

func TestSegmentSparkline(t *testing.T) {
	if got := SegmentSparkline(sampleSegments()); got != " @_" {
		t.Fatalf("unexpected sparkline %q", got)
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	res := model.SessionResult{ID: 4, ParentID: 2, WPM: 75, Segments: sampleSegments()}
	if err := RenderSummary(&buf, res); err != nil {
		t.Fatalf("RenderSummary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Session 4 (text 2)", "WPM: 75", "Segments: 2/3 measured", "worst 60 (#1)", "Mistakes: 2", "[ @_]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
