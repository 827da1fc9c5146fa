package events

import "time"

const (
	SubjectTurnCompleted     = "tutor.turn.completed"
	SubjectTurnFailed        = "tutor.turn.failed"
	SubjectSessionReset      = "tutor.session.reset"
	SubjectFeedbackReceived  = "tutor.feedback.received"
	SubjectServiceRegistered = "tutor.service.registered"
)

// Publisher is the part of Client the rest of the service depends on.
type Publisher interface {
	Publish(subject string, data any) error
}

// TurnEvent is published when a turn ends. Completed turns go to
// SubjectTurnCompleted, everything else to SubjectTurnFailed.
type TurnEvent struct {
	SessionID  string    `json:"session_id"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Fragments  int       `json:"fragments"`
	ReplyChars int       `json:"reply_chars"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// TurnSubject picks the subject for a turn with the given status.
func TurnSubject(status string) string {
	if status == "completed" {
		return SubjectTurnCompleted
	}
	return SubjectTurnFailed
}

type ResetEvent struct {
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

type FeedbackEvent struct {
	SessionID string    `json:"session_id"`
	Rating    string    `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Grade     int       `json:"grade,omitempty"`
	Medium    string    `json:"medium,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type RegisteredEvent struct {
	Port      string    `json:"port"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
}
