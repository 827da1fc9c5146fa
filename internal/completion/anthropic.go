package completion

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/ai9campus/smarttutor/internal/conversation"
)

type AnthropicClient struct {
	client  anthropic.Client
	timeout time.Duration
	logger  *slog.Logger
}

type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func NewAnthropicClient(cfg AnthropicConfig, logger *slog.Logger) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	return &AnthropicClient{
		client:  anthropic.NewClient(opts...),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Stream sends the history to the Messages API. The Messages API takes the
// system instruction separately, so system messages are lifted out of the
// history into the request's system block.
func (c *AnthropicClient) Stream(ctx context.Context, messages []conversation.Message, opts Options) Stream {
	if err := opts.Validate(); err != nil {
		return failedStream{err: &Error{Kind: KindUpstream, Err: err}}
	}

	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	system, turns := toAnthropicMessages(messages)
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(opts.Model),
		MaxTokens:   int64(opts.MaxTokens),
		Messages:    turns,
		Temperature: anthropic.Float(opts.Temperature),
		TopP:        anthropic.Float(opts.TopP),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	c.logger.Debug("starting completion stream",
		"model", opts.Model,
		"messages", len(messages),
	)

	return &anthropicStream{
		stream: c.client.Messages.NewStreaming(ctx, params),
		cancel: cancel,
	}
}

func toAnthropicMessages(messages []conversation.Message) (string, []anthropic.MessageParam) {
	var system []string
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case conversation.RoleSystem:
			system = append(system, m.Content)
		case conversation.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case conversation.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return strings.Join(system, "\n\n"), out
}

type anthropicStream struct {
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
	cancel context.CancelFunc
	cur    string
	err    error
}

func (s *anthropicStream) Next() bool {
	if s.err != nil {
		return false
	}
	for s.stream.Next() {
		ev, ok := s.stream.Current().AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
			s.cur = delta.Text
			return true
		}
	}
	if err := s.stream.Err(); err != nil {
		s.err = classifyAnthropic(err)
	}
	s.cur = ""
	return false
}

func (s *anthropicStream) Current() string { return s.cur }

func (s *anthropicStream) Err() error { return s.err }

func (s *anthropicStream) Close() error {
	defer s.cancel()
	return s.stream.Close()
}

func classifyAnthropic(err error) *Error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return FromStatus(apiErr.StatusCode, err)
	}
	return Classify(err)
}
