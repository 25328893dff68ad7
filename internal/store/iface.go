package store

import (
	"context"

	"github.com/verte-zerg/racetyper/internal/model"
)

// TextStore is the reference text side of the store.
type TextStore interface {
	InsertText(ctx context.Context, body string) (int64, error)
	RandomText(ctx context.Context) (model.ReferenceText, error)
	TextByID(ctx context.Context, id int64) (model.ReferenceText, error)
	ListTexts(ctx context.Context, limit int) ([]model.ReferenceText, error)
}

// SessionStore is the completed session side of the store.
type SessionStore interface {
	SaveSession(ctx context.Context, res model.SessionResult) (int64, error)
	SessionByID(ctx context.Context, id int64) (model.SessionResult, error)
	ListSessions(ctx context.Context, limit int) ([]model.SessionResult, error)
}

var (
	_ TextStore    = (*Store)(nil)
	_ SessionStore = (*Store)(nil)
)
