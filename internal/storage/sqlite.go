// Package storage persists stream registrations in SQLite so configured
// streams survive restarts.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pscheid92/kickcast/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS streams (
	stream_id   TEXT PRIMARY KEY,
	channel     TEXT NOT NULL,
	tts_backend TEXT NOT NULL,
	voice_id    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL
);
`

// Store wraps the SQLite handle for stream registrations.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// The sqlite driver serializes writes; more connections just contend.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Add inserts a new registration. Returns domain.ErrStreamExists when the
// stream id is already taken.
func (s *Store) Add(ctx context.Context, reg domain.StreamRegistration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO streams (stream_id, channel, tts_backend, voice_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		reg.StreamID, reg.Channel, reg.TTSBackend, reg.VoiceID, reg.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrStreamExists
		}
		return fmt.Errorf("insert stream: %w", err)
	}
	return nil
}

// Get fetches one registration by stream id.
func (s *Store) Get(ctx context.Context, streamID string) (domain.StreamRegistration, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT stream_id, channel, tts_backend, voice_id, created_at FROM streams WHERE stream_id = ?`,
		streamID,
	)
	reg, err := scanStream(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StreamRegistration{}, domain.ErrStreamNotFound
	}
	if err != nil {
		return domain.StreamRegistration{}, fmt.Errorf("select stream: %w", err)
	}
	return reg, nil
}

// List returns all registrations ordered by creation time.
func (s *Store) List(ctx context.Context) ([]domain.StreamRegistration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stream_id, channel, tts_backend, voice_id, created_at FROM streams ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	defer rows.Close()

	var regs []domain.StreamRegistration
	for rows.Next() {
		reg, err := scanStream(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stream: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// Update rewrites the mutable fields of an existing registration.
func (s *Store) Update(ctx context.Context, reg domain.StreamRegistration) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE streams SET channel = ?, tts_backend = ?, voice_id = ? WHERE stream_id = ?`,
		reg.Channel, reg.TTSBackend, reg.VoiceID, reg.StreamID,
	)
	if err != nil {
		return fmt.Errorf("update stream: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stream: %w", err)
	}
	if n == 0 {
		return domain.ErrStreamNotFound
	}
	return nil
}

// Delete removes a registration.
func (s *Store) Delete(ctx context.Context, streamID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM streams WHERE stream_id = ?`, streamID)
	if err != nil {
		return fmt.Errorf("delete stream: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete stream: %w", err)
	}
	if n == 0 {
		return domain.ErrStreamNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStream(row rowScanner) (domain.StreamRegistration, error) {
	var reg domain.StreamRegistration
	var created string
	if err := row.Scan(&reg.StreamID, &reg.Channel, &reg.TTSBackend, &reg.VoiceID, &created); err != nil {
		return domain.StreamRegistration{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return domain.StreamRegistration{}, fmt.Errorf("parse created_at: %w", err)
	}
	reg.CreatedAt = ts
	return reg, nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint failures by message; the typed
	// error codes live in an internal package.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
