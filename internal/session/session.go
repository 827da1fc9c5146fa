// Package session keeps the live tutoring sessions of a running server.
// Every session owns its own controller and conversation.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ai9campus/smarttutor/internal/curriculum"
	"github.com/ai9campus/smarttutor/internal/tutor"
)

// Settings is what the learner told us about themselves. It is shown back to
// them and journaled, never used to change a turn.
type Settings struct {
	Grade  int               `json:"grade,omitempty"`
	Medium curriculum.Medium `json:"medium"`
}

func (s Settings) Validate() error {
	if s.Grade != 0 && (s.Grade < curriculum.MinGrade || s.Grade > curriculum.MaxGrade) {
		return fmt.Errorf("grade must be between %d and %d, got %d", curriculum.MinGrade, curriculum.MaxGrade, s.Grade)
	}
	return nil
}

// Entry is one live session.
type Entry struct {
	ID         uuid.UUID
	Controller *tutor.Controller
	CreatedAt  time.Time

	mu         sync.Mutex
	settings   Settings
	lastActive time.Time
}

func (e *Entry) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

func (e *Entry) LastActive() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastActive
}

func (e *Entry) touch(now time.Time) {
	e.mu.Lock()
	e.lastActive = now
	e.mu.Unlock()
}

// Manager creates, finds and expires sessions.
type Manager struct {
	template tutor.Config
	idleTTL  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.RWMutex
	entries map[uuid.UUID]*Entry
}

// NewManager returns a Manager whose controllers are built from template.
// A zero idleTTL disables expiry.
func NewManager(template tutor.Config, idleTTL time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		template: template,
		idleTTL:  idleTTL,
		logger:   logger,
		now:      time.Now,
		entries:  make(map[uuid.UUID]*Entry),
	}
}

func (m *Manager) Create(settings Settings) (*Entry, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	cfg := m.template
	cfg.SessionID = id.String()
	now := m.now()

	e := &Entry{
		ID:         id,
		Controller: tutor.New(cfg),
		CreatedAt:  now,
		settings:   settings,
		lastActive: now,
	}

	m.mu.Lock()
	m.entries[id] = e
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", id, "grade", settings.Grade, "medium", settings.Medium)
	return e, nil
}

// Get finds a session and marks it active.
func (m *Manager) Get(id uuid.UUID) (*Entry, bool) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if ok {
		e.touch(m.now())
	}
	return e, ok
}

func (m *Manager) Delete(id uuid.UUID) bool {
	m.mu.Lock()
	_, ok := m.entries[id]
	delete(m.entries, id)
	m.mu.Unlock()
	if ok {
		m.logger.Info("session deleted", "session_id", id)
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Manager) UpdateSettings(id uuid.UUID, settings Settings) (*Entry, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	e, ok := m.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	e.settings = settings
	e.mu.Unlock()
	return e, nil
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed. Sessions with a reply streaming are never removed.
func (m *Manager) Sweep(now time.Time) int {
	if m.idleTTL <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.entries {
		if e.Controller.State() == tutor.AwaitingCompletion {
			continue
		}
		if now.Sub(e.LastActive()) > m.idleTTL {
			delete(m.entries, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("expired idle sessions", "removed", removed, "remaining", len(m.entries))
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if m.idleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			m.Sweep(t)
		}
	}
}
