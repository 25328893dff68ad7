package log

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/racetyper/internal/model"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, logrus.TraceLevel, ParseLevel("trace"))
	require.Equal(t, logrus.DebugLevel, ParseLevel("DEBUG"))
	require.Equal(t, logrus.WarnLevel, ParseLevel(" warn "))
	require.Equal(t, logrus.ErrorLevel, ParseLevel("error"))
	require.Equal(t, logrus.InfoLevel, ParseLevel("bogus"))
}

func TestEditEventFields(t *testing.T) {
	data := "x"
	fields := EditEventFields(model.EditEvent{Data: &data, Change: model.EditInsertText, TS: 9})
	require.Equal(t, "x", fields["data"])
	require.Equal(t, int64(9), fields["ts"])

	fields = EditEventFields(model.EditEvent{Change: model.EditDeleteBackward, TS: 10})
	_, ok := fields["data"]
	require.False(t, ok)
}
