// Package store handles SQLite persistence of reference texts and sessions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/racetyper/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoTexts is returned when a random text is requested from an empty store.
	ErrNoTexts = errors.New("no typing texts available")
)

// Store wraps SQLite access for texts and session data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS typing_texts (
			id INTEGER PRIMARY KEY,
			text TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS typing_sessions (
			id INTEGER PRIMARY KEY,
			inputs TEXT NOT NULL,
			wpm INTEGER NOT NULL,
			wpm80 INTEGER NOT NULL,
			parent INTEGER NOT NULL REFERENCES typing_texts(id),
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_segments (
			session_id INTEGER NOT NULL REFERENCES typing_sessions(id),
			idx INTEGER NOT NULL,
			text TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			mistakes INTEGER NOT NULL,
			wpm INTEGER NOT NULL,
			rel INTEGER NOT NULL,
			PRIMARY KEY (session_id, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_typing_sessions_parent ON typing_sessions(parent);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertText stores a reference text and returns its id.
func (s *Store) InsertText(ctx context.Context, body string) (int64, error) {
	var id int64
	err := retryOnContention(func() error {
		res, err := s.db.ExecContext(ctx, `INSERT INTO typing_texts (text) VALUES (?)`, body)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert text: %w", err)
	}
	return id, nil
}

// RandomText returns a uniformly chosen reference text.
func (s *Store) RandomText(ctx context.Context) (model.ReferenceText, error) {
	var text model.ReferenceText
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text FROM typing_texts ORDER BY RANDOM() LIMIT 1`,
	).Scan(&text.ID, &text.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReferenceText{}, ErrNoTexts
	}
	if err != nil {
		return model.ReferenceText{}, fmt.Errorf("random text: %w", err)
	}
	return text, nil
}

// TextByID returns the reference text with the given id.
func (s *Store) TextByID(ctx context.Context, id int64) (model.ReferenceText, error) {
	var text model.ReferenceText
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text FROM typing_texts WHERE id = ?`, id,
	).Scan(&text.ID, &text.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReferenceText{}, fmt.Errorf("text %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.ReferenceText{}, fmt.Errorf("text %d: %w", id, err)
	}
	return text, nil
}

// ListTexts returns texts ordered by id, at most limit rows when limit > 0.
func (s *Store) ListTexts(ctx context.Context, limit int) ([]model.ReferenceText, error) {
	query := `SELECT id, text FROM typing_texts ORDER BY id ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var texts []model.ReferenceText
	for rows.Next() {
		var text model.ReferenceText
		if err := rows.Scan(&text.ID, &text.Body); err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return texts, nil
}

// SaveSession stores a completed session and its segment results.
func (s *Store) SaveSession(ctx context.Context, res model.SessionResult) (int64, error) {
	var id int64
	err := retryOnContention(func() error {
		var err error
		id, err = s.insertSession(ctx, res)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("save session: %w", err)
	}
	return id, nil
}

func (s *Store) insertSession(ctx context.Context, res model.SessionResult) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	createdAt := res.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	result, err := tx.ExecContext(ctx,
		`INSERT INTO typing_sessions (inputs, wpm, wpm80, parent, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		res.Inputs,
		res.WPM,
		res.WPM80,
		res.ParentID,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	id, err = result.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(res.Segments) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO session_segments (session_id, idx, text, elapsed_ms, mistakes, wpm, rel)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, seg := range res.Segments {
			if _, err := stmt.ExecContext(ctx, id, i, seg.Text, seg.ElapsedMs, seg.MistakeCount, seg.WPM, seg.Relative); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// SessionByID loads a stored session with its segments.
func (s *Store) SessionByID(ctx context.Context, id int64) (model.SessionResult, error) {
	var (
		res       model.SessionResult
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, inputs, wpm, wpm80, parent, created_at FROM typing_sessions WHERE id = ?`, id,
	).Scan(&res.ID, &res.Inputs, &res.WPM, &res.WPM80, &res.ParentID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionResult{}, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.SessionResult{}, fmt.Errorf("session %d: %w", id, err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.SessionResult{}, fmt.Errorf("session %d created_at: %w", id, err)
	}
	res.CreatedAt = parsed

	rows, err := s.db.QueryContext(ctx,
		`SELECT text, elapsed_ms, mistakes, wpm, rel FROM session_segments
		 WHERE session_id = ? ORDER BY idx ASC`, id)
	if err != nil {
		return model.SessionResult{}, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var seg model.Segment
		if err := rows.Scan(&seg.Text, &seg.ElapsedMs, &seg.MistakeCount, &seg.WPM, &seg.Relative); err != nil {
			return model.SessionResult{}, err
		}
		res.Segments = append(res.Segments, seg)
	}
	if err := rows.Err(); err != nil {
		return model.SessionResult{}, err
	}
	return res, nil
}

// ListSessions returns the most recent sessions first, without segments.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]model.SessionResult, error) {
	query := `SELECT id, wpm, wpm80, parent, created_at FROM typing_sessions ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var out []model.SessionResult
	for rows.Next() {
		var (
			res       model.SessionResult
			createdAt string
		)
		if err := rows.Scan(&res.ID, &res.WPM, &res.WPM80, &res.ParentID, &createdAt); err != nil {
			return nil, err
		}
		if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			res.CreatedAt = parsed
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
