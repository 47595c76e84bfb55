// Package main запускает диспетчер: плановые задачи клуба и обработку команд оператора.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/signal-club/internal/app/dispatcher"
	"github.com/magabrotheeeer/signal-club/internal/config"
	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.SetupLogger(cfg.Env)

	logger.Info("starting dispatcher", slog.String("env", cfg.Env), slog.String("location", cfg.Location))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := dispatcher.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("dispatcher stopped gracefully")
}
