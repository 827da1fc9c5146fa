package completion

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/ai9campus/smarttutor/internal/conversation"
)

// OpenAIClient streams from any OpenAI-compatible chat completions endpoint.
// Groq is the default deployment target.
type OpenAIClient struct {
	client  openai.Client
	timeout time.Duration
	logger  *slog.Logger
}

// OpenAIConfig configures an OpenAIClient. An empty BaseURL means the
// official OpenAI endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func NewOpenAIClient(cfg OpenAIConfig, logger *slog.Logger) *OpenAIClient {
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
	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

func (c *OpenAIClient) Stream(ctx context.Context, messages []conversation.Message, opts Options) Stream {
	if err := opts.Validate(); err != nil {
		return failedStream{err: &Error{Kind: KindUpstream, Err: err}}
	}

	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(opts.Model),
		Messages:            toOpenAIMessages(messages),
		MaxCompletionTokens: openai.Int(int64(opts.MaxTokens)),
		Temperature:         openai.Float(opts.Temperature),
		TopP:                openai.Float(opts.TopP),
	}

	c.logger.Debug("starting completion stream",
		"model", opts.Model,
		"messages", len(messages),
	)

	return &openAIStream{
		stream: c.client.Chat.Completions.NewStreaming(ctx, params),
		cancel: cancel,
	}
}

func toOpenAIMessages(messages []conversation.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case conversation.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case conversation.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case conversation.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		}
	}
	return out
}

type openAIStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
	cancel context.CancelFunc
	cur    string
	err    error
}

func (s *openAIStream) Next() bool {
	if s.err != nil {
		return false
	}
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			s.cur = chunk.Choices[0].Delta.Content
			return true
		}
	}
	if err := s.stream.Err(); err != nil {
		s.err = classifyOpenAI(err)
	}
	s.cur = ""
	return false
}

func (s *openAIStream) Current() string { return s.cur }

func (s *openAIStream) Err() error { return s.err }

func (s *openAIStream) Close() error {
	defer s.cancel()
	return s.stream.Close()
}

func classifyOpenAI(err error) *Error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return FromStatus(apiErr.StatusCode, err)
	}
	return Classify(err)
}
