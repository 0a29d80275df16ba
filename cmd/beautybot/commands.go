package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"beautybot/internal/analytics"
	"beautybot/internal/router"
	"beautybot/internal/server"
	"beautybot/internal/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web chat, the Telegram bot when a token is set, and scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, logger, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		defer a.Close()

		var bot *telegram.Bot
		if a.Config.TelegramBotToken != "" {
			if bot, err = telegram.New(a.Config.TelegramBotToken, a.Router, logger.Named("telegram")); err != nil {
				return fmt.Errorf("start telegram bot: %w", err)
			}
		} else {
			logger.Info("TELEGRAM_BOT_TOKEN not set, telegram transport disabled")
		}

		sched, err := a.Scheduler()
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		g, ctx := errgroup.WithContext(cmd.Context())
		web := server.New(a.Router, server.Options{
			Addr:          a.Config.HTTPAddr,
			RatePerMinute: a.Config.RateLimitPerMinute,
			SessionTTL:    a.Config.SessionIdleTTL,
			Logger:        logger.Named("http"),
		})
		g.Go(func() error { return web.Run(ctx) })
		if bot != nil {
			g.Go(func() error { return bot.Run(ctx) })
		}
		return g.Wait()
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant on the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, logger, err := bootstrap(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		defer a.Close()

		const sessionID = "cli"
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "BeautyBot ready. Type 'quit' to exit, 'reset' to start over, '?<message>' to see its intent.")
		in := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !in.Scan() {
				return in.Err()
			}
			line := in.Text()
			switch line {
			case "quit", "exit":
				return nil
			case "reset":
				a.Router.Reset(sessionID)
				fmt.Fprintln(out, "Conversation cleared.")
				continue
			}
			if rest, ok := strings.CutPrefix(line, "?"); ok {
				fmt.Fprintf(out, "intent: %s\n", a.Router.Classify(rest))
				continue
			}
			reply, err := a.Router.Handle(cmd.Context(), router.Request{SessionID: sessionID, Channel: "cli", Message: line})
			if errors.Is(err, router.ErrInvalidInput) {
				fmt.Fprintln(out, router.InvalidInputMessage)
				continue
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, reply.Text)
			if reply.Warning != "" {
				fmt.Fprintln(out, "⚠️ "+reply.Warning)
			}
		}
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List every order in the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, logger, err := bootstrap(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		defer a.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPRODUCT\tPRICE\tSTATUS\tDELIVERY")
		for _, o := range a.Shop.Ledger().All() {
			fmt.Fprintf(w, "%s\t%s\t₹%d\t%s\t%s\n", o.ID, o.Product, o.Price, o.Status, o.DeliveryDate)
		}
		return w.Flush()
	},
}

var reportDate string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print usage statistics for one UTC day as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		day := time.Now().UTC()
		if reportDate != "" {
			var err error
			if day, err = time.Parse("2006-01-02", reportDate); err != nil {
				return fmt.Errorf("bad --date: %w", err)
			}
		}
		a, logger, err := bootstrap(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		defer a.Close()

		events, err := a.Recorder.LoadInteractions()
		if err != nil {
			return err
		}
		stats := analytics.AnalyzeDailyLogs(events, day)
		out, err := stats.ToJSON()
		if err != nil {
			return err
		}
		logger.Debug("report generated", zap.String("date", stats.Date), zap.Int("events", len(events)))
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportDate, "date", "", "day to report on, YYYY-MM-DD (default today)")
}
