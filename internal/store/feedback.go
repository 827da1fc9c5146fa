package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// FeedbackRecord is a learner's rating of an answer.
type FeedbackRecord struct {
	SessionID uuid.UUID
	Rating    string
	Comment   string
	Excerpt   string
	Grade     int
	Medium    string
}

func (s *Store) WriteFeedback(ctx context.Context, f FeedbackRecord) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tutor_feedback (id, session_id, rating, comment, excerpt, grade, medium, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		id, f.SessionID, f.Rating, f.Comment, f.Excerpt, f.Grade, f.Medium,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert feedback: %w", err)
	}
	return id, nil
}
