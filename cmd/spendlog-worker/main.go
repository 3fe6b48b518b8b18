package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"spendlog/internal/cli"
	"spendlog/internal/events"
	"spendlog/internal/export/sheets"
	applog "spendlog/internal/log"
	"spendlog/internal/store/sqlite"
	"spendlog/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting spendlog-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the mirror worker")
		os.Exit(1)
	}
	if cfg.SheetsSpreadsheetID == "" {
		logger.Error("SHEETS_SPREADSHEET_ID is required for the mirror worker")
		os.Exit(1)
	}

	// The worker reads from SQLite directly; the memory backend has
	// nothing durable to mirror.
	repo, err := sqlite.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open SQLite store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mirror, err := sheets.New(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsSheetName)
	if err != nil {
		logger.Error("Failed to initialize sheets mirror", "error", err)
		os.Exit(1)
	}
	logger.Info("Sheets mirror initialized",
		"spreadsheet_id", cfg.SheetsSpreadsheetID,
		"sheet", cfg.SheetsSheetName)

	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect AMQP", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	mw := worker.NewMirrorWorker(repo, mirror, cfg.MirrorTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeChanges(gctx, func(msg *events.ChangeMessage) error {
			return mw.HandleChange(gctx, msg)
		})
	})

	logger.Info("Mirror worker running", "queue", cfg.AMQPQueue)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
