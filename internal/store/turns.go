package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TurnRecord is one archived turn. Reply is empty unless Status is
// "completed".
type TurnRecord struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Question  string
	Reply     string
	Status    string
	ErrorKind string
	Detail    string
	Fragments int
	StartedAt time.Time
	Duration  time.Duration
}

// WriteTurn stores the turn and its messages in one transaction. The
// assistant message is only written when there is a reply.
func (s *Store) WriteTurn(ctx context.Context, t TurnRecord) (uuid.UUID, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	turnID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO tutor_turns (id, session_id, status, error_kind, detail, fragments, started_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		turnID, t.SessionID, t.Status, t.ErrorKind, t.Detail, t.Fragments, t.StartedAt, t.Duration.Milliseconds(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert turn: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO tutor_messages (id, turn_id, role, content, created_at)
		VALUES ($1, $2, 'user', $3, $4)`,
		uuid.New(), turnID, t.Question, t.StartedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert user message: %w", err)
	}

	if t.Reply != "" {
		_, err = tx.Exec(ctx, `
			INSERT INTO tutor_messages (id, turn_id, role, content, created_at)
			VALUES ($1, $2, 'assistant', $3, $4)`,
			uuid.New(), turnID, t.Reply, t.StartedAt.Add(t.Duration),
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert assistant message: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}
	return turnID, nil
}

// ListTurns returns a session's turns oldest first.
func (s *Store) ListTurns(ctx context.Context, sessionID uuid.UUID) ([]TurnRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.session_id, t.status, t.error_kind, t.detail, t.fragments, t.started_at, t.duration_ms,
		       COALESCE(u.content, ''), COALESCE(a.content, '')
		FROM tutor_turns t
		LEFT JOIN tutor_messages u ON u.turn_id = t.id AND u.role = 'user'
		LEFT JOIN tutor_messages a ON a.turn_id = t.id AND a.role = 'assistant'
		WHERE t.session_id = $1
		ORDER BY t.started_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var out []TurnRecord
	for rows.Next() {
		var t TurnRecord
		var durationMS int64
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Status, &t.ErrorKind, &t.Detail, &t.Fragments, &t.StartedAt, &durationMS, &t.Question, &t.Reply); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return out, nil
}
