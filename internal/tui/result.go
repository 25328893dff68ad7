package tui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/racetyper/internal/model"
	"github.com/verte-zerg/racetyper/internal/stats"
)

func buildResultTable(points []model.Segment, width int) table.Model {
	rows := stats.SegmentRows(points)
	columns := make([]table.Column, len(stats.SegmentHeaders))
	for i, title := range stats.SegmentHeaders {
		columns[i] = table.Column{Title: title, Width: runewidth.StringWidth(title)}
	}
	tableRows := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > columns[i].Width {
				columns[i].Width = w
			}
		}
		tableRows = append(tableRows, table.Row(row))
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithHeight(len(tableRows)+1),
		table.WithFocused(false),
	)
	if width > 0 {
		t.SetWidth(minInt(width, tableWidth(columns)))
	}
	t.SetStyles(resultTableStyles())
	return t
}

func tableWidth(columns []table.Column) int {
	total := 0
	for _, c := range columns {
		total += c.Width + 1
	}
	return total
}

func resultTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell
	return styles
}

func (m *Model) renderResult() string {
	if m.resultErr != "" {
		return errorStyle.Render("Analysis failed: " + m.resultErr)
	}
	headline := fmt.Sprintf("%d WPM", m.resultWPM)
	if m.sessionID > 0 {
		headline += fmt.Sprintf(" · session #%d", m.sessionID)
	}
	sum := stats.Summarize(m.result)
	details := fmt.Sprintf("%d/%d segments · %d mistakes", sum.Measured, sum.Segments, sum.Mistakes)

	var chart bytes.Buffer
	chartWidth := m.width
	if chartWidth > 0 {
		chartWidth = int(float64(chartWidth) * 0.9)
	}
	if err := stats.RenderSegmentChartWithColor(&chart, m.result, chartWidth, false); err != nil {
		return errorStyle.Render(fmt.Sprintf("Failed to render chart: %v", err))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		headlineStyle.Render(headline),
		footerStyle.Render(details),
		"",
		m.resultTable.View(),
		"",
		strings.TrimRight(chart.String(), "\n"),
	)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
