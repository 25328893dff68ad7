// Package stats summarizes and renders the segment results of one session.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/racetyper/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary describes the measured segments of one session.
type Summary struct {
	Segments   int
	Measured   int
	AvgWPM     float64
	BestWPM    int
	WorstWPM   int
	Mistakes   int
	SlowestIdx int
}

// Summarize computes a Summary. SlowestIdx is -1 when nothing was measured.
func Summarize(points []model.Segment) Summary {
	s := Summary{Segments: len(points), SlowestIdx: -1}
	total := 0
	for i, p := range points {
		if !p.Measured() {
			continue
		}
		s.Measured++
		total += p.WPM
		if p.MistakeCount > 0 {
			s.Mistakes += p.MistakeCount
		}
		if s.Measured == 1 || p.WPM > s.BestWPM {
			s.BestWPM = p.WPM
		}
		if s.Measured == 1 || p.WPM < s.WorstWPM {
			s.WorstWPM = p.WPM
			s.SlowestIdx = i
		}
	}
	if s.Measured > 0 {
		s.AvgWPM = float64(total) / float64(s.Measured)
	}
	return s
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// SegmentSparkline renders measured segment WPM values; unmeasured ones are
// shown as '_'.
func SegmentSparkline(points []model.Segment) string {
	values := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Measured() {
			values = append(values, float64(p.WPM))
		}
	}
	line := []byte(Sparkline(values))
	var b strings.Builder
	j := 0
	for _, p := range points {
		if !p.Measured() {
			b.WriteByte('_')
			continue
		}
		b.WriteByte(line[j])
		j++
	}
	return b.String()
}

// RenderSummary prints the headline numbers of a session.
func RenderSummary(w io.Writer, res model.SessionResult) error {
	sum := Summarize(res.Segments)
	if _, err := fmt.Fprintf(w, "Session %d (text %d)\n", res.ID, res.ParentID); err != nil {
		return err
	}
	if !res.CreatedAt.IsZero() {
		if _, err := fmt.Fprintf(w, "Created: %s\n", res.CreatedAt.Local().Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "WPM: %d\n", res.WPM); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Segments: %d/%d measured\n", sum.Measured, sum.Segments); err != nil {
		return err
	}
	if sum.Measured > 0 {
		if _, err := fmt.Fprintf(w, "Segment WPM: avg %.1f, best %d, worst %d (#%d)\n", sum.AvgWPM, sum.BestWPM, sum.WorstWPM, sum.SlowestIdx+1); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Mistakes: %d\n", sum.Mistakes); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Trend: [%s]\n", SegmentSparkline(res.Segments)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
