package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/eventlens/entitlement-engine/internal/app/agent"
	"github.com/eventlens/entitlement-engine/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting entitlement-agent",
		slog.String("env", cfg.Env), slog.String("username", cfg.AgentUsername))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := agent.New(cfg, logger)
	if err := app.Run(ctx); err != nil {
		logger.Error("agent stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("entitlement-agent stopped gracefully")
}
