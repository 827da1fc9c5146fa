// Package completiontest provides scripted completion clients for tests.
package completiontest

import (
	"context"
	"sync"

	"github.com/ai9campus/smarttutor/internal/completion"
	"github.com/ai9campus/smarttutor/internal/conversation"
)

// Script is what one call to Stream will produce: the fragments in order,
// then Err (nil for a clean end of stream).
type Script struct {
	Fragments []string
	Err       error
	// Gate, if non-nil, blocks the first Next until it is closed.
	Gate <-chan struct{}
}

// Client replays scripts in order, one per Stream call, and records what it
// was asked.
type Client struct {
	mu      sync.Mutex
	scripts []Script
	calls   []Call
}

type Call struct {
	Messages []conversation.Message
	Options  completion.Options
}

func New(scripts ...Script) *Client {
	return &Client{scripts: scripts}
}

func (c *Client) Stream(_ context.Context, messages []conversation.Message, opts completion.Options) completion.Stream {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, Call{Messages: messages, Options: opts})
	if len(c.scripts) == 0 {
		return &stream{}
	}
	s := c.scripts[0]
	c.scripts = c.scripts[1:]
	return &stream{script: s}
}

// Calls returns every request made so far.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

type stream struct {
	script Script
	pos    int
	cur    string
	done   bool
	closed bool
}

func (s *stream) Next() bool {
	if s.script.Gate != nil {
		<-s.script.Gate
		s.script.Gate = nil
	}
	if s.done || s.closed {
		return false
	}
	if s.pos < len(s.script.Fragments) {
		s.cur = s.script.Fragments[s.pos]
		s.pos++
		return true
	}
	s.done = true
	s.cur = ""
	return false
}

func (s *stream) Current() string { return s.cur }

func (s *stream) Err() error {
	if !s.done || s.script.Err == nil {
		return nil
	}
	return completion.Classify(s.script.Err)
}

func (s *stream) Close() error {
	s.closed = true
	return nil
}
