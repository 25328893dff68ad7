// Package model defines shared data structures.
package model

import "time"

// Unmeasured marks a segment field that replay has not filled in.
const Unmeasured = -1

// EditKind identifies the kind of a client-reported edit.
type EditKind string

const (
	// EditInsertText inserts the event payload at the cursor.
	EditInsertText EditKind = "insertText"
	// EditDeleteBackward removes one character before the cursor.
	EditDeleteBackward EditKind = "deleteContentBackward"
)

// ReferenceText is a text a client types against.
type ReferenceText struct {
	ID   int64
	Body string
}

// EditEvent is one client-reported edit. Data is nil for deletions.
type EditEvent struct {
	Data   *string  `json:"data"`
	Change EditKind `json:"change"`
	TS     int64    `json:"ts"`
}

// Segment is one word-group slice of a reference text with its replay results.
type Segment struct {
	Text         string `json:"text"`
	ElapsedMs    int64  `json:"ms"`
	MistakeCount int    `json:"mistakes"`
	WPM          int    `json:"wpm"`
	Relative     int    `json:"rel"`
}

// Measured reports whether replay closed this segment with a usable duration.
func (s Segment) Measured() bool {
	return s.ElapsedMs > 0
}

// SessionResult is a completed session handed to the session store.
type SessionResult struct {
	ID        int64
	Inputs    string
	WPM       int
	WPM80     int
	ParentID  int64
	CreatedAt time.Time
	Segments  []Segment
}

// Rendering holds the constants of the relative segment metric.
type Rendering struct {
	LineHeight int
	LineWPM    int
}

// SessionConfig defines per-connection analysis settings.
type SessionConfig struct {
	Segments      int
	MaxEditEvents int
	Rendering     Rendering
}

// ServerConfig defines transport settings.
type ServerConfig struct {
	Addr              string
	Path              string
	AllowedOrigins    []string
	HeartbeatInterval time.Duration
	ClientTimeout     time.Duration
	WriteTimeout      time.Duration
	RateLimit         RateLimitConfig
	Session           SessionConfig
}

// RateLimitConfig defines the per-connection inbound message budget.
type RateLimitConfig struct {
	Enabled           bool
	MessagesPerSecond float64
	Burst             int
}

// GenerateConfig defines settings for generated reference texts.
type GenerateConfig struct {
	Words    int
	Count    int
	CapsPct  float64
	PunctPct float64
	PunctSet string
}
