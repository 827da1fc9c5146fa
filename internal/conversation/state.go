// Package conversation keeps the ordered message history of one tutoring
// session. The first message is always the single system instruction;
// after that user and assistant messages only ever get appended.
package conversation

import "sync"

// State is the history of one session. One goroutine mutates it; any number
// may read.
type State struct {
	mu       sync.RWMutex
	messages []Message
}

func New(instruction string) *State {
	s := &State{}
	s.Reset(instruction)
	return s
}

// Reset replaces the whole history with the system instruction.
func (s *State) Reset(instruction string) {
	s.mu.Lock()
	s.messages = []Message{{Role: RoleSystem, Content: instruction}}
	s.mu.Unlock()
}

func (s *State) AppendUser(text string) error {
	if text == "" {
		return ErrEmptyContent
	}
	return s.append(Message{Role: RoleUser, Content: text})
}

// AppendAssistant records a reply. Whether an empty reply is worth recording
// is the caller's decision.
func (s *State) AppendAssistant(text string) error {
	return s.append(Message{Role: RoleAssistant, Content: text})
}

func (s *State) append(m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return ErrNotInitialized
	}
	s.messages = append(s.messages, m)
	return nil
}

// Snapshot returns a copy of the full history, system message included.
// This is exactly what gets sent for completion.
func (s *State) Snapshot() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Visible returns the messages a learner should see, i.e. everything but the
// system instruction.
func (s *State) Visible() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, 0, len(s.messages))
	for _, m := range s.messages {
		if m.Role != RoleSystem {
			out = append(out, m)
		}
	}
	return out
}

func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
