// Package importer reads quote collections into reference texts.
package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// Defaults for quote selection.
const (
	DefaultMinLength  = 170
	DefaultMaxEntries = 1000
)

// ErrMissingQuoteColumn is returned when the header has no quote column.
var ErrMissingQuoteColumn = errors.New("csv header has no quote column")

// Options control which records are kept.
type Options struct {
	Delimiter  rune
	MinLength  int
	MaxEntries int
}

// DefaultOptions returns the options for the `quote;author;genre` layout.
func DefaultOptions() Options {
	return Options{Delimiter: ';', MinLength: DefaultMinLength, MaxEntries: DefaultMaxEntries}
}

// Quote is one accepted record.
type Quote struct {
	Text   string
	Author string
	Genre  string
}

// Result is the outcome of a scan.
type Result struct {
	Quotes  []Quote
	Skipped int
}

// AvgLen returns the mean rune length of accepted quotes.
func (r Result) AvgLen() float64 {
	if len(r.Quotes) == 0 {
		return 0
	}
	total := 0
	for _, q := range r.Quotes {
		total += utf8.RuneCountInString(q.Text)
	}
	return float64(total) / float64(len(r.Quotes))
}

// Summary is the line printed before asking for confirmation.
func (r Result) Summary() string {
	return fmt.Sprintf("Avg len: %.2f, num entries: %d.", r.AvgLen(), len(r.Quotes))
}

// Scan reads a delimited file with a header row and keeps quotes longer than
// opts.MinLength runes, stopping after opts.MaxEntries quotes. Records that
// fail to parse are logged and skipped.
func Scan(r io.Reader, opts Options, logger logrus.FieldLogger) (Result, error) {
	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read csv header: %w", err)
	}
	cols := columnIndex(header)
	quoteCol, ok := cols["quote"]
	if !ok {
		return Result{}, ErrMissingQuoteColumn
	}

	var res Result
	line := 1
	for {
		line++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.WithError(err).WithField("line", line).Warn("failed to parse record")
			res.Skipped++
			continue
		}
		if quoteCol >= len(record) {
			logger.WithField("line", line).Warn("record has no quote field")
			res.Skipped++
			continue
		}
		text := Normalize(record[quoteCol])
		if utf8.RuneCountInString(text) <= opts.MinLength {
			continue
		}
		res.Quotes = append(res.Quotes, Quote{
			Text:   text,
			Author: field(record, cols, "author"),
			Genre:  field(record, cols, "genre"),
		})
		if opts.MaxEntries > 0 && len(res.Quotes) >= opts.MaxEntries {
			break
		}
	}
	return res, nil
}

// TextInserter stores reference texts.
type TextInserter interface {
	InsertText(ctx context.Context, body string) (int64, error)
}

// Import stores every quote. Individual insert failures are logged and counted.
func Import(ctx context.Context, st TextInserter, quotes []Quote, logger logrus.FieldLogger) (int, int) {
	imported, failed := 0, 0
	for _, q := range quotes {
		if err := ctx.Err(); err != nil {
			failed += len(quotes) - imported - failed
			break
		}
		if _, err := st.InsertText(ctx, q.Text); err != nil {
			logger.WithError(err).Warn("text insertion failed")
			failed++
			continue
		}
		imported++
	}
	return imported, failed
}

// Confirm writes prompt to w and reports whether the answer read from r is y or Y.
func Confirm(r io.Reader, w io.Writer, prompt string) (bool, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return false, err
	}
	answer, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer = strings.TrimSpace(answer)
	return answer == "y" || answer == "Y", nil
}

// Normalize collapses runs of whitespace into single spaces.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		cols[name] = i
	}
	return cols
}

func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
