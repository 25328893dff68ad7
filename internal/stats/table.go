package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/racetyper/internal/model"
)

const maxSegmentTextWidth = 40

// SegmentRows formats segments as table rows: #, Segment, Time, Mistakes, WPM, Rel.
func SegmentRows(points []model.Segment) [][]string {
	rows := make([][]string, 0, len(points))
	for i, p := range points {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			runewidth.Truncate(p.Text, maxSegmentTextWidth, "…"),
			formatMs(p.ElapsedMs),
			formatMeasured(p.MistakeCount),
			formatMeasured(p.WPM),
			formatMeasured(p.Relative),
		})
	}
	return rows
}

// SegmentHeaders are the column titles matching SegmentRows.
var SegmentHeaders = []string{"#", "Segment", "Time", "Mistakes", "WPM", "Rel"}

// RenderSegmentTable prints an aligned table of segment results.
func RenderSegmentTable(w io.Writer, points []model.Segment) error {
	if len(points) == 0 {
		_, err := fmt.Fprintln(w, "No segments.")
		return err
	}
	rightAlign := map[int]bool{0: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(SegmentHeaders, SegmentRows(points), rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func formatMs(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fs", float64(ms)/1000)
}

func formatMeasured(v int) string {
	if v == model.Unmeasured {
		return "-"
	}
	return strconv.Itoa(v)
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
