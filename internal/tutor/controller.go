// Package tutor runs tutoring turns: it takes learner input, streams the
// model's reply for the whole conversation so far and records the result.
package tutor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ai9campus/smarttutor/internal/completion"
	"github.com/ai9campus/smarttutor/internal/conversation"
)

// ErrBusy is returned when an operation needs the controller to be idle.
var ErrBusy = errors.New("tutor: a reply is still streaming")

// State is where the controller is in a turn.
type State int32

const (
	Idle State = iota
	AwaitingCompletion
	// resetting is held only for the duration of Reset and reads as Idle.
	resetting
)

func (s State) String() string {
	switch s {
	case AwaitingCompletion:
		return "awaiting_completion"
	default:
		return "idle"
	}
}

// Status is how a turn ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusBusy      Status = "busy"
	StatusEmpty     Status = "empty"
	StatusFailed    Status = "failed"
)

// Outcome is the result of one Submit. Notice is set for every status except
// StatusCompleted.
type Outcome struct {
	Status Status
	Reply  string
	Notice *Notice
	Err    error
}

// Presenter receives what the learner should see while a turn runs.
type Presenter interface {
	// Progress receives the reply accumulated so far after each fragment.
	Progress(partial string)
	Notify(n Notice)
}

// Turn describes a finished turn for journaling.
type Turn struct {
	SessionID string        `json:"session_id"`
	Question  string        `json:"question"`
	Reply     string        `json:"reply,omitempty"`
	Status    Status        `json:"status"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	Fragments int           `json:"fragments"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Observer is told about finished turns and resets. It runs synchronously at
// the end of a turn and cannot fail it.
type Observer interface {
	TurnFinished(ctx context.Context, t Turn)
	SessionReset(ctx context.Context, sessionID string)
}

// Config holds a Controller's collaborators.
type Config struct {
	SessionID    string
	Instructions string
	Client       completion.Client
	Options      completion.Options
	Observer     Observer
	Logger       *slog.Logger
}

// Controller owns one conversation and allows one turn at a time.
type Controller struct {
	id           string
	instructions string
	client       completion.Client
	opts         completion.Options
	observer     Observer
	logger       *slog.Logger

	history        *conversation.State
	state          atomic.Int32
	welcomePending atomic.Bool
}

func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		id:           cfg.SessionID,
		instructions: cfg.Instructions,
		client:       cfg.Client,
		opts:         cfg.Options,
		observer:     cfg.Observer,
		logger:       logger.With("session_id", cfg.SessionID),
		history:      conversation.New(cfg.Instructions),
	}
	c.welcomePending.Store(true)
	return c
}

func (c *Controller) SessionID() string { return c.id }

func (c *Controller) State() State {
	if s := State(c.state.Load()); s == AwaitingCompletion {
		return s
	}
	return Idle
}

// WelcomePending reports whether the welcome panel should still be shown,
// i.e. no question has been accepted since the last reset.
func (c *Controller) WelcomePending() bool {
	return c.welcomePending.Load()
}

// Messages returns the conversation without the system instruction.
func (c *Controller) Messages() []conversation.Message {
	return c.history.Visible()
}

// History returns the full conversation as sent to the model.
func (c *Controller) History() []conversation.Message {
	return c.history.Snapshot()
}

// Submit runs one turn. It never returns an error: every failure is
// reported through the Outcome and, when p is non-nil, p.Notify.
func (c *Controller) Submit(ctx context.Context, text string, p Presenter) Outcome {
	text = strings.TrimSpace(text)
	if text == "" {
		n := ValidationNotice(conversation.ErrEmptyContent.Reason)
		notify(p, n)
		return Outcome{Status: StatusRejected, Notice: &n, Err: conversation.ErrEmptyContent}
	}

	if !c.state.CompareAndSwap(int32(Idle), int32(AwaitingCompletion)) {
		c.logger.Warn("submit rejected, turn in flight")
		n := BusyNotice()
		notify(p, n)
		return Outcome{Status: StatusBusy, Notice: &n, Err: ErrBusy}
	}
	defer c.state.Store(int32(Idle))

	if err := c.history.AppendUser(text); err != nil {
		n := ValidationNotice(err.Error())
		notify(p, n)
		return Outcome{Status: StatusRejected, Notice: &n, Err: err}
	}
	c.welcomePending.Store(false)

	turn := Turn{SessionID: c.id, Question: text, StartedAt: time.Now()}
	defer func() {
		turn.Duration = time.Since(turn.StartedAt)
		if c.observer != nil {
			c.observer.TurnFinished(context.WithoutCancel(ctx), turn)
		}
	}()

	stream := c.client.Stream(ctx, c.history.Snapshot(), c.opts)
	reply, err := completion.Collect(stream, func(partial string) {
		turn.Fragments++
		if p != nil {
			p.Progress(partial)
		}
	})

	if err != nil {
		n := FailureNotice(err)
		turn.Status, turn.ErrorKind, turn.Detail = StatusFailed, n.Kind, n.Detail
		c.logger.Error("completion failed",
			"error_kind", n.Kind,
			"fragments", turn.Fragments,
			"error", err,
		)
		notify(p, n)
		return Outcome{Status: StatusFailed, Notice: &n, Err: err}
	}

	if reply == "" {
		n := EmptyNotice()
		turn.Status = StatusEmpty
		c.logger.Warn("completion returned no content")
		notify(p, n)
		return Outcome{Status: StatusEmpty, Notice: &n}
	}

	if err := c.history.AppendAssistant(reply); err != nil {
		// Only possible if the history was never seeded.
		n := FailureNotice(err)
		turn.Status, turn.Detail = StatusFailed, err.Error()
		notify(p, n)
		return Outcome{Status: StatusFailed, Notice: &n, Err: err}
	}

	turn.Status, turn.Reply = StatusCompleted, reply
	c.logger.Info("turn completed",
		"fragments", turn.Fragments,
		"reply_chars", len(reply),
		"messages", c.history.Len(),
	)
	return Outcome{Status: StatusCompleted, Reply: reply}
}

// Reset discards the conversation and shows the welcome panel again.
// It fails with ErrBusy while a reply is streaming.
func (c *Controller) Reset(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(Idle), int32(resetting)) {
		return ErrBusy
	}
	c.history.Reset(c.instructions)
	c.welcomePending.Store(true)
	c.state.Store(int32(Idle))

	c.logger.Info("session reset")
	if c.observer != nil {
		c.observer.SessionReset(ctx, c.id)
	}
	return nil
}

func notify(p Presenter, n Notice) {
	if p != nil {
		p.Notify(n)
	}
}
