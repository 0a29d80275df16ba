package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type LedgerBackend string

const (
	LedgerJSON   LedgerBackend = "json"
	LedgerSQLite LedgerBackend = "sqlite"
)

type Config struct {
	// Transports
	HTTPAddr           string `env:"HTTP_ADDR" envDefault:":5000"`
	TelegramBotToken   string `env:"TELEGRAM_BOT_TOKEN"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"5"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey     string      `env:"GEMINI_API_KEY"`
	GeminiModel      string      `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// AI fallback
	AITimeout          time.Duration `env:"AI_TIMEOUT" envDefault:"60s"`
	AIMaxResponseChars int           `env:"AI_MAX_RESPONSE_CHARS" envDefault:"500"`
	AIContextTurns     int           `env:"AI_CONTEXT_TURNS" envDefault:"2"`
	AIMaxAttempts      int           `env:"AI_MAX_ATTEMPTS" envDefault:"2"`

	// Sessions
	HistoryMaxTurns int `env:"HISTORY_MAX_TURNS" envDefault:"20"`
	// SessionIdleTTL drops conversations with no messages for this long; it is
	// also the lifetime of the web session cookie.
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"48h"`

	// Storage
	LedgerBackend       LedgerBackend `env:"LEDGER_BACKEND" envDefault:"json"`
	OrdersFilePath      string        `env:"ORDERS_FILE_PATH" envDefault:"orders.json"`
	OrdersDBPath        string        `env:"ORDERS_DB_PATH" envDefault:"data/orders.db"`
	InteractionsLogPath string        `env:"INTERACTIONS_LOG_PATH" envDefault:"logs/interactions.jsonl"`

	// Seed data overrides; empty uses the built-in catalog and FAQ
	CatalogPath string `env:"CATALOG_PATH"`
	FAQPath     string `env:"FAQ_PATH"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDir   string `env:"LOG_DIR" envDefault:"logs"`

	// Scheduled jobs (cron specs, UTC); empty disables a job
	ReportCron       string `env:"REPORT_CRON" envDefault:"0 21 * * *"`
	ShippingTickCron string `env:"SHIPPING_TICK_CRON"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func New() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGemini, ProviderOpenAI, ProviderYandex:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	switch c.LedgerBackend {
	case LedgerJSON, LedgerSQLite:
	default:
		return fmt.Errorf("unknown LEDGER_BACKEND %q", c.LedgerBackend)
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive, got %s", c.AITimeout)
	}
	if c.AIMaxResponseChars <= 0 {
		return fmt.Errorf("AI_MAX_RESPONSE_CHARS must be positive, got %d", c.AIMaxResponseChars)
	}
	if c.AIMaxAttempts <= 0 {
		return fmt.Errorf("AI_MAX_ATTEMPTS must be positive, got %d", c.AIMaxAttempts)
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive, got %s", c.SessionIdleTTL)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}
	return nil
}
