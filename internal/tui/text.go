package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const wrongSpaceGlyph = '•'

// cell is one rendered rune of the reference text.
type cell struct {
	idx   int
	s     string
	width int
	space bool
}

func styleCells(target, input []rune) []cell {
	cursor := -1
	if len(input) < len(target) {
		cursor = len(input)
	}
	wordStart, wordEnd := wordAt(target, cursor)

	cells := make([]cell, 0, len(target))
	for i, want := range target {
		shown := want
		style := pendingStyle
		switch {
		case i < len(input) && input[i] == want:
			style = correctStyle
		case i < len(input):
			style = incorrectStyle
			if want == ' ' {
				shown = wrongSpaceGlyph
			}
		case want != ' ' && i >= wordStart && i < wordEnd:
			style = currentWordStyle
		}
		if i == cursor {
			style = style.Underline(true)
		}
		cells = append(cells, cell{
			idx:   i,
			s:     style.Render(string(shown)),
			width: runewidth.RuneWidth(shown),
			space: want == ' ',
		})
	}
	return cells
}

// wordAt returns the bounds of the word under i, or of the next word when i
// sits on a space. A negative i selects nothing.
func wordAt(target []rune, i int) (int, int) {
	if i < 0 || i >= len(target) {
		return -1, -1
	}
	start := i
	for start < len(target) && target[start] == ' ' {
		start++
	}
	if start == len(target) {
		return -1, -1
	}
	for start > 0 && target[start-1] != ' ' {
		start--
	}
	end := start
	for end < len(target) && target[end] != ' ' {
		end++
	}
	return start, end
}

// layoutLines breaks cells into lines no wider than width, preferring to
// break at spaces. Spaces at a break are dropped.
func layoutLines(cells []cell, width int) [][]cell {
	if width <= 0 || len(cells) == 0 {
		return [][]cell{cells}
	}
	var lines [][]cell
	var line []cell
	lineWidth := 0
	for i := 0; i < len(cells); {
		c := cells[i]
		if c.space && len(line) == 0 && len(lines) > 0 {
			i++
			continue
		}
		if lineWidth+c.width > width && len(line) > 0 {
			brk := lastSpace(line)
			if brk < 0 {
				lines = append(lines, line)
				line = nil
			} else {
				lines = append(lines, line[:brk])
				line = append([]cell(nil), line[brk+1:]...)
			}
			lineWidth = widthOf(line)
			continue
		}
		line = append(line, c)
		lineWidth += c.width
		i++
	}
	return append(lines, line)
}

// lineOf returns the index of the line holding rune idx, or the last line.
func lineOf(lines [][]cell, idx int) int {
	for n, line := range lines {
		if len(line) > 0 && idx <= line[len(line)-1].idx {
			return n
		}
	}
	return len(lines) - 1
}

// window picks at most height lines keeping focus visible, with one line of
// context above it once the text scrolls.
func window(total, focus, height int) (int, int) {
	if height <= 0 || total <= height {
		return 0, total
	}
	from := focus - 1
	if from < 0 {
		from = 0
	}
	if from+height > total {
		from = total - height
	}
	return from, from + height
}

func renderLines(lines [][]cell) string {
	rows := make([]string, 0, len(lines))
	for _, line := range lines {
		var b strings.Builder
		for _, c := range line {
			b.WriteString(c.s)
		}
		rows = append(rows, b.String())
	}
	return strings.Join(rows, "\n")
}

func widthOf(line []cell) int {
	total := 0
	for _, c := range line {
		total += c.width
	}
	return total
}

func lastSpace(line []cell) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].space {
			return i
		}
	}
	return -1
}
