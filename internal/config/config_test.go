package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, ProviderGemini, cfg.LLMProvider)
	assert.Equal(t, "gemini-1.5-flash", cfg.GeminiModel)
	assert.Equal(t, 60*time.Second, cfg.AITimeout)
	assert.Equal(t, 500, cfg.AIMaxResponseChars)
	assert.Equal(t, 2, cfg.AIContextTurns)
	assert.Equal(t, LedgerJSON, cfg.LedgerBackend)
	assert.Equal(t, "orders.json", cfg.OrdersFilePath)
	assert.Equal(t, 5, cfg.RateLimitPerMinute)
	assert.Equal(t, "0 21 * * *", cfg.ReportCron)
	assert.Empty(t, cfg.ShippingTickCron)
	assert.Equal(t, 48*time.Hour, cfg.SessionIdleTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("LEDGER_BACKEND", "sqlite")
	t.Setenv("HISTORY_MAX_TURNS", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, 5*time.Second, cfg.AITimeout)
	assert.Equal(t, LedgerSQLite, cfg.LedgerBackend)
	assert.Equal(t, 7, cfg.HistoryMaxTurns)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Run("provider", func(t *testing.T) {
		t.Setenv("LLM_PROVIDER", "parrot")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("backend", func(t *testing.T) {
		t.Setenv("LEDGER_BACKEND", "csv")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("session ttl", func(t *testing.T) {
		t.Setenv("SESSION_IDLE_TTL", "0s")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("rate limit", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
		_, err := Load()
		assert.Error(t, err)
	})
}
