package stats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/verte-zerg/racetyper/internal/model"
)

const (
	minBarWidth         = 10
	chartLabelWidth     = 18
	chartValueWidth     = 9
	axisSeparator       = " │"
	terminalWidthBackup = 80
	colorReset          = "\x1b[0m"
	colorFast           = "\x1b[32m"
	colorSlow           = "\x1b[33m"
	colorMuted          = "\x1b[90m"
)

// eighths are partial block glyphs, from 1/8 to 7/8 of a cell.
var eighths = []rune{'▏', '▎', '▍', '▌', '▋', '▊', '▉'}

// RenderSegmentChart draws one horizontal bar per segment, scaled to the
// fastest segment. A width <= 0 uses the terminal width.
func RenderSegmentChart(w io.Writer, points []model.Segment, width int) error {
	return renderSegmentChart(w, points, width, shouldUseColor(w, false))
}

// RenderSegmentChartWithColor is RenderSegmentChart with color forced on or off.
func RenderSegmentChartWithColor(w io.Writer, points []model.Segment, width int, useColor bool) error {
	return renderSegmentChart(w, points, width, useColor)
}

func renderSegmentChart(w io.Writer, points []model.Segment, width int, useColor bool) error {
	if len(points) == 0 {
		return nil
	}
	if width <= 0 {
		width = terminalWidth()
	}
	barWidth := BarWidthFor(width)

	maxWPM := 0
	sum := Summarize(points)
	for _, p := range points {
		if p.Measured() && p.WPM > maxWPM {
			maxWPM = p.WPM
		}
	}

	for i, p := range points {
		label := fmt.Sprintf("%2d %s", i+1, p.Text)
		label = runewidth.FillRight(runewidth.Truncate(label, chartLabelWidth, "…"), chartLabelWidth)

		var bar, value, color string
		if !p.Measured() || maxWPM == 0 {
			bar = strings.Repeat("·", barWidth)
			value = "  -"
			color = colorMuted
		} else {
			bar = runewidth.FillRight(Bar(p.WPM, maxWPM, barWidth), barWidth)
			value = fmt.Sprintf("%3d wpm", p.WPM)
			color = colorFast
			if float64(p.WPM) < sum.AvgWPM {
				color = colorSlow
			}
		}
		if useColor {
			bar = color + bar + colorReset
		}
		if _, err := fmt.Fprintf(w, "%s%s%s %s\n", label, axisSeparator, bar, value); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// Bar returns a bar of full and partial blocks for value/maxValue of width cells.
func Bar(value, maxValue, width int) string {
	if value <= 0 || maxValue <= 0 || width <= 0 {
		return ""
	}
	if value > maxValue {
		value = maxValue
	}
	units := value * width * 8 / maxValue
	full := units / 8
	rest := units % 8
	var b strings.Builder
	b.WriteString(strings.Repeat("█", full))
	if rest > 0 {
		b.WriteRune(eighths[rest-1])
	}
	return b.String()
}

// BarWidthFor computes a bar width that fits within the total available width.
func BarWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minBarWidth
	}
	barWidth := totalWidth - chartLabelWidth - runewidth.StringWidth(axisSeparator) - 1 - chartValueWidth
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}
	return barWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
