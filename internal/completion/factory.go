package completion

import (
	"fmt"
	"log/slog"
	"time"
)

// ProviderConfig selects and configures a backend.
type ProviderConfig struct {
	Provider string // groq, openai or anthropic
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// NewClient builds the backend named by cfg.Provider. Groq and OpenAI share
// the OpenAI-compatible client and differ only in base URL.
func NewClient(cfg ProviderConfig, logger *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: api key is required", cfg.Provider)
	}
	switch cfg.Provider {
	case "groq", "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}, logger), nil
	case "anthropic":
		return NewAnthropicClient(AnthropicConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}
