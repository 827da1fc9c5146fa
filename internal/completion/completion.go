// Package completion talks to hosted chat-completion endpoints and exposes
// their streamed replies as a pull-based sequence of text fragments.
package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/ai9campus/smarttutor/internal/conversation"
)

// Options are the sampling parameters sent with every request.
type Options struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// DefaultOptions returns the parameters the tutor uses for every turn.
func DefaultOptions(model string) Options {
	return Options{
		Model:       model,
		MaxTokens:   4096,
		Temperature: 0.6,
		TopP:        0.9,
	}
}

func (o Options) Validate() error {
	if strings.TrimSpace(o.Model) == "" {
		return fmt.Errorf("model is required")
	}
	if o.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", o.MaxTokens)
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		return fmt.Errorf("temperature must be in [0,2], got %g", o.Temperature)
	}
	if o.TopP < 0 || o.TopP > 1 {
		return fmt.Errorf("top_p must be in [0,1], got %g", o.TopP)
	}
	return nil
}

// Stream is a finite sequence of reply fragments. It is consumed once:
//
//	for s.Next() {
//		use(s.Current())
//	}
//	if err := s.Err(); err != nil { ... }
//
// Err returns a *Error once Next has reported false because of a failure.
// Close releases the underlying connection and may be called at any time.
type Stream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Client starts a streamed completion for the full message history.
// Request failures are reported through the returned Stream's Err.
type Client interface {
	Stream(ctx context.Context, messages []conversation.Message, opts Options) Stream
}

// Collect drains s, concatenating fragments in order. After every fragment
// onProgress, if non-nil, receives the text accumulated so far. On failure the
// partial text is discarded and only the error is returned.
func Collect(s Stream, onProgress func(partial string)) (string, error) {
	defer s.Close()

	var b strings.Builder
	for s.Next() {
		b.WriteString(s.Current())
		if onProgress != nil {
			onProgress(b.String())
		}
	}
	if err := s.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}

// failedStream is returned when a request cannot even be built.
type failedStream struct{ err error }

func (f failedStream) Next() bool      { return false }
func (f failedStream) Current() string { return "" }
func (f failedStream) Err() error      { return f.err }
func (f failedStream) Close() error    { return nil }
