package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"beautybot/internal/app"
	"beautybot/internal/config"
	"beautybot/internal/logging"
	"beautybot/internal/shopmcp"
)

const version = "1.0.0"

func main() {
	// stdout carries the MCP stream; everything else goes to stderr.
	log.SetOutput(os.Stderr)
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger, err := logging.NewStderr(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	defer a.Close()

	server := shopmcp.NewServer(shopmcp.New(a.Shop, a.Router, logger.Named("mcp")), version)
	logger.Info("shop MCP server listening on stdio", zap.String("version", version))
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil && ctx.Err() == nil {
		logger.Error("mcp server stopped", zap.Error(err))
	}
}
