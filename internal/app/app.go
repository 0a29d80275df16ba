// Package app wires every component from configuration. Transports and
// commands build an App and then pick the parts they serve.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"beautybot/internal/analytics"
	"beautybot/internal/catalog"
	"beautybot/internal/config"
	"beautybot/internal/fallback"
	"beautybot/internal/history"
	"beautybot/internal/knowledge"
	"beautybot/internal/llm"
	"beautybot/internal/orders"
	"beautybot/internal/router"
	"beautybot/internal/scheduler"
	"beautybot/internal/shop"
	"beautybot/internal/storage"
)

const (
	JobDailyReport  = "daily_report"
	JobShippingTick = "shipping_tick"
)

type App struct {
	Config   *config.Config
	Log      *zap.Logger
	Shop     *shop.Shop
	FAQ      *knowledge.Base
	Sessions *history.Manager
	Gateway  *fallback.Gateway
	Router   *router.Router
	Recorder storage.Recorder
	Latency  *analytics.LatencyRecorder

	closers []io.Closer
	now     func() time.Time
}

// New builds the application. Only unusable seed data or storage is fatal; a
// missing AI model leaves the gateway in its unavailable state.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Log: logger, now: time.Now}

	products, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	faq, err := knowledge.LoadFile(cfg.FAQPath)
	if err != nil {
		return nil, fmt.Errorf("load faq: %w", err)
	}
	a.FAQ = faq

	store, err := a.openLedgerStore()
	if err != nil {
		return nil, err
	}
	ledger := orders.NewLedger(store, logger.Named("ledger"))
	a.Shop = shop.New(products, ledger, logger.Named("shop"))

	a.Recorder, err = a.openRecorder()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Latency = analytics.NewLatencyRecorder()
	a.Gateway = fallback.New(a.newLLMClient(ctx), fallback.Options{
		Timeout:      cfg.AITimeout,
		MaxChars:     cfg.AIMaxResponseChars,
		ContextTurns: cfg.AIContextTurns,
		MaxAttempts:  cfg.AIMaxAttempts,
		Products:     products.Names(),
		Observer:     a.Latency,
		Logger:       logger.Named("gateway"),
	})

	a.Sessions = history.NewManager(cfg.HistoryMaxTurns, history.WithIdleTTL(cfg.SessionIdleTTL))
	a.Router = router.New(a.Shop, faq, a.Gateway, a.Sessions, router.Options{
		Recorder: a.Recorder,
		Logger:   logger.Named("router"),
	})

	logger.Info("beautybot ready",
		zap.Int("products", len(products.List())),
		zap.Int("faq_entries", faq.Len()),
		zap.Int("orders", ledger.Len()),
		zap.String("ledger_backend", string(cfg.LedgerBackend)),
		zap.Bool("ai_available", a.Gateway.Available()))
	return a, nil
}

func (a *App) openLedgerStore() (orders.Store, error) {
	switch a.Config.LedgerBackend {
	case config.LedgerSQLite:
		s, err := orders.NewSQLiteStore(a.Config.OrdersDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		a.closers = append(a.closers, s)
		return s, nil
	default:
		s, err := orders.NewFileStore(a.Config.OrdersFilePath)
		if err != nil {
			return nil, fmt.Errorf("open json ledger: %w", err)
		}
		return s, nil
	}
}

func (a *App) openRecorder() (storage.Recorder, error) {
	if a.Config.InteractionsLogPath == "" {
		return storage.NewMemoryRecorder(), nil
	}
	r, err := storage.NewFileRecorder(a.Config.InteractionsLogPath)
	if err != nil {
		return nil, fmt.Errorf("open interactions log: %w", err)
	}
	a.closers = append(a.closers, r)
	return r, nil
}

func (a *App) newLLMClient(ctx context.Context) llm.Client {
	client, err := llm.NewFactory(a.Config).CreateClient(ctx, string(a.Config.LLMProvider))
	if errors.Is(err, llm.ErrNotConfigured) {
		a.Log.Warn("AI model not configured, free-form questions will be degraded", zap.Error(err))
		return nil
	}
	if err != nil {
		a.Log.Error("failed to initialise AI model", zap.Error(err))
		return nil
	}
	a.Log.Info("AI model initialised", zap.String("provider", string(a.Config.LLMProvider)))
	return client
}

// Scheduler returns a scheduler with the configured periodic jobs registered.
func (a *App) Scheduler() (*scheduler.Scheduler, error) {
	s := scheduler.New(a.Log.Named("scheduler"))
	if err := s.Add(scheduler.Job{Name: JobDailyReport, Spec: a.Config.ReportCron, Run: a.DailyReport}); err != nil {
		return nil, err
	}
	if err := s.Add(scheduler.Job{Name: JobShippingTick, Spec: a.Config.ShippingTickCron, Run: a.ShippingTick}); err != nil {
		return nil, err
	}
	return s, nil
}

// DailyReport logs usage statistics for the current UTC day.
func (a *App) DailyReport(ctx context.Context) error {
	events, err := a.Recorder.LoadInteractions()
	if err != nil {
		return fmt.Errorf("load interactions: %w", err)
	}
	stats := analytics.AnalyzeDailyLogs(events, a.now().UTC())
	live := a.Latency.Summary()
	a.Log.Info("daily report",
		zap.String("date", stats.Date),
		zap.Int("messages", stats.TotalMessages),
		zap.Int("sessions", stats.UniqueSessions),
		zap.Any("intents", stats.Intents),
		zap.Any("ai_failures", stats.AIFailures),
		zap.Duration("ai_p95", stats.AILatency.P95),
		zap.Int64("ai_calls_since_start", live.Count),
		zap.Int("live_sessions", a.Sessions.Sessions()),
		zap.String("summary", stats.GenerateReportSummary()))
	return nil
}

// ShippingTick advances simulated shipping without waiting for a tracking query.
func (a *App) ShippingTick(ctx context.Context) error {
	n := a.Shop.Ledger().AdvanceAll()
	a.Log.Debug("shipping tick", zap.Int("advanced", n))
	return nil
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.Log.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
