// Package journal records what happens in tutoring sessions. It archives
// turns, announces them on the event bus and forwards learner feedback for
// review. Every sink is optional and none of them can fail a turn.
package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ai9campus/smarttutor/internal/events"
	"github.com/ai9campus/smarttutor/internal/slack"
	"github.com/ai9campus/smarttutor/internal/store"
	"github.com/ai9campus/smarttutor/internal/tutor"
)

// Archive is the subset of *store.Store the journal writes to.
type Archive interface {
	WriteTurn(ctx context.Context, t store.TurnRecord) (uuid.UUID, error)
	WriteFeedback(ctx context.Context, f store.FeedbackRecord) (uuid.UUID, error)
}

// FeedbackPoster is the subset of *slack.Poster the journal uses.
type FeedbackPoster interface {
	PostFeedback(ctx context.Context, fb slack.Feedback) (string, error)
}

type Journal struct {
	archive Archive
	bus     events.Publisher
	poster  FeedbackPoster
	logger  *slog.Logger
	now     func() time.Time
}

// New builds a Journal. Any of archive, bus and poster may be nil.
func New(archive Archive, bus events.Publisher, poster FeedbackPoster, logger *slog.Logger) *Journal {
	return &Journal{
		archive: archive,
		bus:     bus,
		poster:  poster,
		logger:  logger,
		now:     time.Now,
	}
}

var _ tutor.Observer = (*Journal)(nil)

func (j *Journal) TurnFinished(ctx context.Context, t tutor.Turn) {
	if j.archive != nil {
		if sessionID, err := uuid.Parse(t.SessionID); err != nil {
			j.logger.Warn("not archiving turn, session id is not a uuid", "session_id", t.SessionID)
		} else if _, err := j.archive.WriteTurn(ctx, store.TurnRecord{
			SessionID: sessionID,
			Question:  t.Question,
			Reply:     t.Reply,
			Status:    string(t.Status),
			ErrorKind: t.ErrorKind,
			Detail:    t.Detail,
			Fragments: t.Fragments,
			StartedAt: t.StartedAt,
			Duration:  t.Duration,
		}); err != nil {
			j.logger.Error("failed to archive turn", "session_id", t.SessionID, "error", err)
		}
	}

	if j.bus != nil {
		evt := events.TurnEvent{
			SessionID:  t.SessionID,
			Status:     string(t.Status),
			ErrorKind:  t.ErrorKind,
			Fragments:  t.Fragments,
			ReplyChars: len(t.Reply),
			DurationMS: t.Duration.Milliseconds(),
			Timestamp:  j.now().UTC(),
		}
		if err := j.bus.Publish(events.TurnSubject(evt.Status), evt); err != nil {
			j.logger.Warn("failed to publish turn event", "session_id", t.SessionID, "error", err)
		}
	}
}

func (j *Journal) SessionReset(_ context.Context, sessionID string) {
	if j.bus == nil {
		return
	}
	evt := events.ResetEvent{SessionID: sessionID, Timestamp: j.now().UTC()}
	if err := j.bus.Publish(events.SubjectSessionReset, evt); err != nil {
		j.logger.Warn("failed to publish reset event", "session_id", sessionID, "error", err)
	}
}

// Feedback is a learner's rating of one answer.
type Feedback struct {
	SessionID uuid.UUID
	Rating    string
	Comment   string
	Excerpt   string
	Grade     int
	Medium    string
}

// RecordFeedback stores, announces and forwards feedback. It returns the
// number of sinks that accepted it.
func (j *Journal) RecordFeedback(ctx context.Context, fb Feedback) int {
	accepted := 0

	if j.archive != nil {
		if _, err := j.archive.WriteFeedback(ctx, store.FeedbackRecord{
			SessionID: fb.SessionID,
			Rating:    fb.Rating,
			Comment:   fb.Comment,
			Excerpt:   fb.Excerpt,
			Grade:     fb.Grade,
			Medium:    fb.Medium,
		}); err != nil {
			j.logger.Error("failed to store feedback", "session_id", fb.SessionID, "error", err)
		} else {
			accepted++
		}
	}

	if j.bus != nil {
		if err := j.bus.Publish(events.SubjectFeedbackReceived, events.FeedbackEvent{
			SessionID: fb.SessionID.String(),
			Rating:    fb.Rating,
			Comment:   fb.Comment,
			Grade:     fb.Grade,
			Medium:    fb.Medium,
			Timestamp: j.now().UTC(),
		}); err != nil {
			j.logger.Warn("failed to publish feedback event", "session_id", fb.SessionID, "error", err)
		} else {
			accepted++
		}
	}

	if j.poster != nil {
		if _, err := j.poster.PostFeedback(ctx, slack.Feedback{
			SessionID: fb.SessionID.String(),
			Rating:    fb.Rating,
			Comment:   fb.Comment,
			Excerpt:   fb.Excerpt,
			Grade:     fb.Grade,
			Medium:    fb.Medium,
		}); err != nil {
			j.logger.Warn("failed to post feedback to slack", "session_id", fb.SessionID, "error", err)
		} else {
			accepted++
		}
	}

	if accepted == 0 {
		j.logger.Info("feedback received", "session_id", fb.SessionID, "rating", fb.Rating, "comment", fb.Comment)
	}
	return accepted
}
