// Command receipt-worker consumes queued receipt jobs, runs OCR on the stored
// image and writes the parsed items to the bill.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmynk/billsplit/internal/blob"
	"github.com/mmynk/billsplit/internal/config"
	"github.com/mmynk/billsplit/internal/ingest"
	"github.com/mmynk/billsplit/internal/ocr"
	"github.com/mmynk/billsplit/internal/queue"
	"github.com/mmynk/billsplit/internal/storage/sqlstore"
	"github.com/mmynk/billsplit/pkg/logging"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		slog.Error("AMQP_URL is required for the receipt worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialect, err := sqlstore.ParseDialect(cfg.DBDriver)
	if err != nil {
		slog.Error("Invalid database driver", "error", err)
		os.Exit(1)
	}
	store, err := sqlstore.Open(dialect, cfg.DSN())
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err, "driver", cfg.DBDriver)
		os.Exit(1)
	}
	defer store.Close()

	blobs, err := blob.Open(ctx, cfg.BlobBackend, cfg.BlobDir, cfg.S3())
	if err != nil {
		slog.Error("Failed to initialize receipt storage", "error", err, "backend", cfg.BlobBackend)
		os.Exit(1)
	}

	extractor := &ocr.Tesseract{Command: cfg.OCRCommand, Timeout: cfg.OCRTimeout}
	ingestor := ingest.NewService(store, blobs, extractor)

	dial := func() (*queue.Client, error) {
		return queue.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	}

	slog.Info("Receipt worker started", "queue", cfg.AMQPQueue, "exchange", cfg.AMQPExchange)
	err = queue.ConsumeWithReconnect(ctx, dial, ingestor.ProcessJob)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Receipt worker stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Receipt worker shutdown complete")
}
