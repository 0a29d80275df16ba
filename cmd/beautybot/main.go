package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"beautybot/internal/app"
	"beautybot/internal/config"
	"beautybot/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "beautybot",
	Short:         "Skincare shop assistant",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: .env file not found: %v", err)
		}
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, chatCmd, ordersCmd, reportCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, builds the logger and wires the application.
func bootstrap(ctx context.Context, stderrLogs bool) (*app.App, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	newLogger := logging.New
	if stderrLogs {
		newLogger = logging.NewStderr
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return a, logger, nil
}
