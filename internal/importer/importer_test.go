package importer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(&bytes.Buffer{})
	return l
}

func longQuote(word string, n int) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n))
}

func TestScanFiltersByLength(t *testing.T) {
	long := longQuote("lorem", 40)
	input := "quote;author;genre\n" +
		"short one;Someone;misc\n" +
		long + ";Cicero;philosophy\n"

	res, err := Scan(strings.NewReader(input), DefaultOptions(), quietLogger())
	require.NoError(t, err)
	require.Len(t, res.Quotes, 1)
	require.Equal(t, long, res.Quotes[0].Text)
	require.Equal(t, "Cicero", res.Quotes[0].Author)
	require.Equal(t, "philosophy", res.Quotes[0].Genre)
	require.Equal(t, "Avg len: 239.00, num entries: 1.", res.Summary())
}

func TestScanMaxEntries(t *testing.T) {
	var b strings.Builder
	b.WriteString("quote;author;genre\n")
	for i := 0; i < 5; i++ {
		b.WriteString(longQuote("ipsum", 40) + ";A;B\n")
	}
	opts := DefaultOptions()
	opts.MaxEntries = 3

	res, err := Scan(strings.NewReader(b.String()), opts, quietLogger())
	require.NoError(t, err)
	require.Len(t, res.Quotes, 3)
}

func TestScanNormalizesWhitespace(t *testing.T) {
	opts := DefaultOptions()
	opts.MinLength = 3
	res, err := Scan(strings.NewReader("quote\n\"a   b\tc \"\n"), opts, quietLogger())
	require.NoError(t, err)
	require.Len(t, res.Quotes, 1)
	require.Equal(t, "a b c", res.Quotes[0].Text)
}

func TestScanMissingQuoteColumn(t *testing.T) {
	_, err := Scan(strings.NewReader("author;genre\nx;y\n"), DefaultOptions(), quietLogger())
	require.ErrorIs(t, err, ErrMissingQuoteColumn)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"n\n", false},
		{"yes\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		ok, err := Confirm(strings.NewReader(tt.answer), &out, "Import? (Y/N): ")
		require.NoError(t, err)
		require.Equal(t, tt.want, ok, "answer %q", tt.answer)
		require.Equal(t, "Import? (Y/N): ", out.String())
	}
}

type fakeInserter struct {
	bodies []string
	failOn string
}

func (f *fakeInserter) InsertText(_ context.Context, body string) (int64, error) {
	if body == f.failOn {
		return 0, errors.New("boom")
	}
	f.bodies = append(f.bodies, body)
	return int64(len(f.bodies)), nil
}

func TestImport(t *testing.T) {
	st := &fakeInserter{failOn: "bad"}
	quotes := []Quote{{Text: "one"}, {Text: "bad"}, {Text: "two"}}

	imported, failed := Import(context.Background(), st, quotes, quietLogger())
	require.Equal(t, 2, imported)
	require.Equal(t, 1, failed)
	require.Equal(t, []string{"one", "two"}, st.bodies)
}
