// Package logging builds the process logger: JSON lines on stdout plus a
// dated file under the log directory.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName returns the log file name for day, e.g. chatbot_20240115.log.
func FileName(day time.Time) string {
	return "chatbot_" + day.Format("20060102") + ".log"
}

// New builds a production logger at level. An empty dir logs to stdout only.
func New(level, dir string) (*zap.Logger, error) {
	return build(level, dir, "stdout")
}

// NewStderr is New for processes whose stdout carries a protocol.
func NewStderr(level, dir string) (*zap.Logger, error) {
	return build(level, dir, "stderr")
}

func build(level, dir, console string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{console}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		cfg.OutputPaths = append(cfg.OutputPaths, filepath.Join(dir, FileName(time.Now())))
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named("beautybot"), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
