package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"banchee/internal/amqp"
	"banchee/internal/config"
	applog "banchee/internal/log"
	"banchee/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	logger := applog.New("banchee-worker", slog.LevelInfo)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		slog.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("Failed to connect to AMQP broker", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.NewEventWorker()

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.ReportActivity(ctx)
			}
		}
	}()

	slog.Info("Consuming ledger events", "queue", cfg.AMQPQueue)
	if err := client.ConsumeLedgerEvents(ctx, w.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Event consumption failed", "error", err)
		os.Exit(1)
	}

	w.ReportActivity(context.Background())
	slog.Info("Worker stopped gracefully")
}
