package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func SetupLogger(env, logPath string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case envLocal:
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		logger = slog.New(slog.NewJSONHandler(prodWriter(logPath), &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return logger
}

// prodWriter duplicates output into a daily rotated file when a log directory is configured.
func prodWriter(logPath string) io.Writer {
	if logPath == "" {
		return os.Stdout
	}
	rl, err := NewRotator(logPath, "verifyflow")
	if err != nil {
		fmt.Fprintf(os.Stderr, "log rotation disabled: %v\n", err)
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, rl)
}

func NewRotator(dir, name string) (*rotatelogs.RotateLogs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return rotatelogs.New(
		filepath.Join(dir, name+".%Y%m%d.log"),
		rotatelogs.WithLinkName(filepath.Join(dir, name+".log")),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
}

// Discard is a logger for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
