package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/playerxdx/Ayra/internal/app"
	"github.com/playerxdx/Ayra/internal/config"
	"github.com/playerxdx/Ayra/pkg/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.EnableTelemetry {
		shutdown, err := telemetry.InitTracer("ayra-bot", os.Stderr)
		if err != nil {
			logger.Error("Failed to init telemetry", "error", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error("Failed to shut down telemetry", "error", err)
				}
			}()
		}
	}

	if err := app.New(cfg, logger).Run(ctx); err != nil {
		logger.Error("Bot stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Bot stopped")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
