package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautybot/internal/config"
	"beautybot/internal/router"
)

func testConfig(t *testing.T, backend config.LedgerBackend) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		LLMProvider:         config.ProviderGemini,
		AITimeout:           time.Second,
		AIMaxResponseChars:  500,
		AIContextTurns:      2,
		AIMaxAttempts:       1,
		HistoryMaxTurns:     20,
		SessionIdleTTL:      48 * time.Hour,
		LedgerBackend:       backend,
		OrdersFilePath:      filepath.Join(dir, "orders.json"),
		OrdersDBPath:        filepath.Join(dir, "orders.db"),
		InteractionsLogPath: filepath.Join(dir, "interactions.jsonl"),
		ReportCron:          "0 21 * * *",
	}
}

func TestNewWithoutAIKey(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, config.LedgerJSON), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.Gateway.Available())

	reply, err := a.Router.Handle(context.Background(), router.Request{SessionID: "s", Channel: "test", Message: "order calming serum"})
	require.NoError(t, err)
	assert.Equal(t, router.IntentPlacement, reply.Intent)
	assert.Contains(t, reply.Text, "Confirmed!")

	reply, err = a.Router.Handle(context.Background(), router.Request{SessionID: "s", Message: "xyzzy 42"})
	require.NoError(t, err)
	assert.Equal(t, router.IntentAI, reply.Intent)
	assert.NotEmpty(t, reply.Warning)

	events, err := a.Recorder.LoadInteractions()
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestOrdersSurviveRestart(t *testing.T) {
	for _, backend := range []config.LedgerBackend{config.LedgerJSON, config.LedgerSQLite} {
		t.Run(string(backend), func(t *testing.T) {
			cfg := testConfig(t, backend)

			a, err := New(context.Background(), cfg, nil)
			require.NoError(t, err)
			pl, err := a.Shop.Place("buy calming serum")
			require.NoError(t, err)
			a.Close()

			b, err := New(context.Background(), cfg, nil)
			require.NoError(t, err)
			defer b.Close()
			o, ok := b.Shop.Ledger().Find(pl.Order.ID)
			require.True(t, ok)
			assert.Equal(t, "Calming Serum", o.Product)
		})
	}
}

func TestScheduledJobs(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, config.LedgerJSON), nil)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Router.Handle(context.Background(), router.Request{SessionID: "s", Message: "products"})
	require.NoError(t, err)

	s, err := a.Scheduler()
	require.NoError(t, err)
	assert.NoError(t, s.RunNow(context.Background(), JobDailyReport))
	assert.NoError(t, a.ShippingTick(context.Background()))
}

func TestNewRejectsBadCatalog(t *testing.T) {
	cfg := testConfig(t, config.LedgerJSON)
	cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}
