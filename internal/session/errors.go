package session

import (
	"errors"

	"github.com/verte-zerg/racetyper/internal/analysis"
	"github.com/verte-zerg/racetyper/internal/protocol"
)

var (
	// ErrProtocolViolation is returned for a message that is not valid in the current state.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrMalformedEvent is returned for an inbound event with missing or extra fields.
	ErrMalformedEvent = protocol.ErrMalformedEvent
	// ErrInsufficientWords is returned when the reference text cannot be segmented.
	ErrInsufficientWords = analysis.ErrInsufficientWords
	// ErrStoreUnavailable is returned when a text or session store call fails.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEditLogFull is returned when the edit log reached its configured cap.
	ErrEditLogFull = errors.New("edit log full")
	// ErrClosed is returned for messages handled after Close.
	ErrClosed = errors.New("session closed")
)
