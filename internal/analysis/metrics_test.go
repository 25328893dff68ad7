package analysis

import (
	"testing"

	"github.com/verte-zerg/racetyper/internal/model"
)

func TestWPM(t *testing.T) {
	tests := []struct {
		name   string
		chars  int
		ms     int64
		want   int
		wantOK bool
	}{
		{name: "one minute", chars: 100, ms: 60000, want: 20, wantOK: true},
		{name: "half minute", chars: 100, ms: 30000, want: 40, wantOK: true},
		{name: "rounds", chars: 13, ms: 2000, want: 78, wantOK: true},
		{name: "zero duration", chars: 10, ms: 0, wantOK: false},
		{name: "negative duration", chars: 10, ms: -5, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := WPM(tt.chars, tt.ms)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("WPM(%d, %d) = %d, want %d", tt.chars, tt.ms, got, tt.want)
			}
		})
	}
}

func TestRelative(t *testing.T) {
	r := DefaultRendering()
	if got := Relative(100, r); got != 75 {
		t.Fatalf("Relative(100) = %d, want 75", got)
	}
	if got := Relative(42, r); got != 32 {
		t.Fatalf("Relative(42) = %d, want 32", got)
	}
	if got := Relative(42, model.Rendering{LineHeight: 10, LineWPM: 0}); got != 0 {
		t.Fatalf("expected 0 for zero reference wpm, got %d", got)
	}
}

func TestApplySegmentMetrics(t *testing.T) {
	segments := []model.Segment{
		{Text: "hello world", ElapsedMs: 2000, MistakeCount: 0},
		{Text: "again", ElapsedMs: 0, MistakeCount: 0},
		{Text: "never", ElapsedMs: model.Unmeasured, MistakeCount: model.Unmeasured},
	}
	ApplySegmentMetrics(segments, DefaultRendering())

	// 11 chars in 2s: 11/5 * 30 = 66 wpm.
	if segments[0].WPM != 66 || segments[0].Relative != 50 {
		t.Fatalf("unexpected metrics: %+v", segments[0])
	}
	for _, seg := range segments[1:] {
		if seg.ElapsedMs != model.Unmeasured || seg.MistakeCount != model.Unmeasured ||
			seg.WPM != model.Unmeasured || seg.Relative != model.Unmeasured {
			t.Fatalf("expected unmeasured metrics: %+v", seg)
		}
	}
}

func TestSessionWPM(t *testing.T) {
	text := "0123456789012345678901234567890123456789012345678901234567890123456789012345678901234567890123456789"
	if got := SessionWPM(text, 60000); got != 20 {
		t.Fatalf("SessionWPM = %d, want 20", got)
	}
	if got := SessionWPM(text, 0); got != 0 {
		t.Fatalf("SessionWPM with no time = %d, want 0", got)
	}
	if got := TotalElapsed(nil); got != 0 {
		t.Fatalf("TotalElapsed(nil) = %d, want 0", got)
	}
}

func TestAnalyze(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	res, err := Analyze(text, typeText(text, 100), 3, DefaultRendering())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !res.Complete || len(res.Segments) != 3 {
		t.Fatalf("unexpected analysis: %+v", res)
	}
	// 43 runes over 4300ms.
	if res.WPM != 120 {
		t.Fatalf("WPM = %d, want 120", res.WPM)
	}
	// "the quick brown": 15 runes over 1600ms.
	if res.Segments[0].WPM != 113 {
		t.Fatalf("segment WPM = %d, want 113", res.Segments[0].WPM)
	}
}

func TestAnalyzeOutOfOrderTimestamps(t *testing.T) {
	events := []model.EditEvent{
		insert("a", 100),
		insert("b", 200),
		insert(" ", 300),
		insert("c", 250),
		insert("d", 260),
		insert(Sentinel, 260),
	}
	res, err := Analyze("ab cd", events, 2, DefaultRendering())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !res.Complete || len(res.Segments) != 2 {
		t.Fatalf("unexpected analysis: %+v", res)
	}
	first := res.Segments[0]
	if first.ElapsedMs != 300 || first.MistakeCount != 0 || first.WPM != 80 {
		t.Fatalf("unexpected first segment: %+v", first)
	}
	want := model.Segment{
		Text:         "cd",
		ElapsedMs:    model.Unmeasured,
		MistakeCount: model.Unmeasured,
		WPM:          model.Unmeasured,
		Relative:     model.Unmeasured,
	}
	if res.Segments[1] != want {
		t.Fatalf("expected backwards segment to be unmeasured, got %+v", res.Segments[1])
	}
}
