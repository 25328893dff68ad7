// Package log configures logging and provides field helpers.
package log

import (
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/racetyper/internal/model"
)

// SetLogger configures the standard logger's level and format.
func SetLogger(level string) {
	customFormatter := new(logrus.TextFormatter)
	customFormatter.TimestampFormat = time.RFC3339
	customFormatter.FullTimestamp = true
	logrus.SetFormatter(customFormatter)
	logrus.SetLevel(ParseLevel(level))
}

// ParseLevel maps a level name to a logrus level. Unknown names mean info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Discard returns a logger that drops everything, for tests.
func Discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// EditEventFields describes an edit event for trace logging.
func EditEventFields(ev model.EditEvent) logrus.Fields {
	fields := logrus.Fields{
		"change": string(ev.Change),
		"ts":     ev.TS,
	}
	if ev.Data != nil {
		fields["data"] = *ev.Data
	}
	return fields
}

// SessionResultFields summarizes a stored session.
func SessionResultFields(res model.SessionResult) logrus.Fields {
	return logrus.Fields{
		"session_id": res.ID,
		"text_id":    res.ParentID,
		"wpm":        res.WPM,
		"segments":   len(res.Segments),
	}
}
