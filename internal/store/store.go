// Package store archives tutoring transcripts and learner feedback in Postgres.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS tutor_turns (
	id          UUID PRIMARY KEY,
	session_id  UUID NOT NULL,
	status      TEXT NOT NULL,
	error_kind  TEXT NOT NULL DEFAULT '',
	detail      TEXT NOT NULL DEFAULT '',
	fragments   INTEGER NOT NULL DEFAULT 0,
	started_at  TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS tutor_turns_session_idx ON tutor_turns (session_id, started_at);

CREATE TABLE IF NOT EXISTS tutor_messages (
	id         UUID PRIMARY KEY,
	turn_id    UUID NOT NULL REFERENCES tutor_turns (id) ON DELETE CASCADE,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS tutor_messages_turn_idx ON tutor_messages (turn_id);

CREATE TABLE IF NOT EXISTS tutor_feedback (
	id         UUID PRIMARY KEY,
	session_id UUID NOT NULL,
	rating     TEXT NOT NULL,
	comment    TEXT NOT NULL DEFAULT '',
	excerpt    TEXT NOT NULL DEFAULT '',
	grade      INTEGER NOT NULL DEFAULT 0,
	medium     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// EnsureSchema creates the archive tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
