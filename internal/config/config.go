package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Provider names accepted in TUTOR_PROVIDER.
const (
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// legacyGroqKey is the variable name older .env files used for the Groq credential.
const legacyGroqKey = "GROK-API-KEY"

type Config struct {
	Port             int
	LogLevel         string
	LogFormat        string
	Provider         string
	APIKey           string
	BaseURL          string
	Model            string
	MaxTokens        int
	Temperature      float64
	TopP             float64
	RequestTimeout   time.Duration
	InstructionsFile string
	CurriculumFile   string
	SessionIdleTTL   time.Duration
	APIToken         string
	DatabaseURL      string
	NatsURL          string
	NatsToken        string
	SlackBotToken    string
	SlackChannel     string
}

var defaults = map[string]any{
	"TUTOR_PORT":            8780,
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "text",
	"TUTOR_PROVIDER":        ProviderGroq,
	"TUTOR_MAX_TOKENS":      4096,
	"TUTOR_TEMPERATURE":     0.6,
	"TUTOR_TOP_P":           0.9,
	"TUTOR_REQUEST_TIMEOUT": 120 * time.Second,
	"SESSION_IDLE_TTL":      2 * time.Hour,
}

var defaultModels = map[string]string{
	ProviderGroq:      "moonshotai/kimi-k2-instruct-0905",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-sonnet-4-20250514",
}

var defaultBaseURLs = map[string]string{
	ProviderGroq: "https://api.groq.com/openai/v1",
}

// credentialKeys names the environment variable holding each provider's key.
var credentialKeys = map[string]string{
	ProviderGroq:      "GROQ_API_KEY",
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// New returns a viper instance reading from the environment with the
// service defaults applied. Callers may bind command-line flags to it
// before passing it to LoadFrom.
func New() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// LoadDotenv reads .env files into the process environment. Missing files are ignored.
func LoadDotenv(files ...string) {
	_ = godotenv.Load(files...)
}

func Load() Config {
	return LoadFrom(New())
}

func LoadFrom(v *viper.Viper) Config {
	provider := strings.ToLower(strings.TrimSpace(v.GetString("TUTOR_PROVIDER")))
	if provider == "" {
		provider = ProviderGroq
	}

	cfg := Config{
		Port:             positiveInt(v, "TUTOR_PORT"),
		LogLevel:         strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:        strings.ToLower(v.GetString("LOG_FORMAT")),
		Provider:         provider,
		APIKey:           credential(v, provider),
		BaseURL:          v.GetString("TUTOR_BASE_URL"),
		Model:            v.GetString("TUTOR_MODEL"),
		MaxTokens:        positiveInt(v, "TUTOR_MAX_TOKENS"),
		Temperature:      floatOr(v, "TUTOR_TEMPERATURE"),
		TopP:             floatOr(v, "TUTOR_TOP_P"),
		RequestTimeout:   durationOr(v, "TUTOR_REQUEST_TIMEOUT"),
		InstructionsFile: v.GetString("TUTOR_INSTRUCTIONS_FILE"),
		CurriculumFile:   v.GetString("CURRICULUM_FILE"),
		SessionIdleTTL:   durationOr(v, "SESSION_IDLE_TTL"),
		APIToken:         v.GetString("TUTOR_API_TOKEN"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		NatsURL:          v.GetString("NATS_URL"),
		NatsToken:        v.GetString("NATS_TOKEN"),
		SlackBotToken:    v.GetString("SLACK_BOT_TOKEN"),
		SlackChannel:     v.GetString("SLACK_FEEDBACK_CHANNEL"),
	}
	if cfg.Model == "" {
		cfg.Model = defaultModels[provider]
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURLs[provider]
	}
	return cfg
}

// CredentialKey returns the environment variable the configured provider reads its key from.
func (c Config) CredentialKey() string {
	if k, ok := credentialKeys[c.Provider]; ok {
		return k
	}
	return credentialKeys[ProviderGroq]
}

// Validate reports the first configuration problem that must stop startup.
func (c Config) Validate() error {
	if _, ok := credentialKeys[c.Provider]; !ok {
		return &StartupError{
			Key:  "TUTOR_PROVIDER",
			Hint: fmt.Sprintf("unknown provider %q; use one of groq, openai, anthropic", c.Provider),
		}
	}
	if c.APIKey == "" {
		key := c.CredentialKey()
		return &StartupError{
			Key:  key,
			Hint: fmt.Sprintf("add %s=your_api_key_here to your environment or .env file", key),
		}
	}
	return nil
}

func credential(v *viper.Viper, provider string) string {
	key, ok := credentialKeys[provider]
	if !ok {
		return ""
	}
	if s := v.GetString(key); s != "" {
		return s
	}
	if provider == ProviderGroq {
		return v.GetString(legacyGroqKey)
	}
	return ""
}

func positiveInt(v *viper.Viper, key string) int {
	if n := v.GetInt(key); n > 0 {
		return n
	}
	return defaults[key].(int)
}

// floatOr falls back to the default unless the whole value parses as a
// finite number.
func floatOr(v *viper.Viper, key string) float64 {
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		f, err := cast.ToFloat64E(s)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	return defaults[key].(float64)
}

func durationOr(v *viper.Viper, key string) time.Duration {
	if d := v.GetDuration(key); d > 0 {
		return d
	}
	return defaults[key].(time.Duration)
}
