package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/billsplit/internal/auth"
	"github.com/mmynk/billsplit/internal/blob"
	"github.com/mmynk/billsplit/internal/config"
	"github.com/mmynk/billsplit/internal/httpapi"
	"github.com/mmynk/billsplit/internal/ingest"
	"github.com/mmynk/billsplit/internal/live"
	"github.com/mmynk/billsplit/internal/middleware"
	"github.com/mmynk/billsplit/internal/ocr"
	"github.com/mmynk/billsplit/internal/queue"
	"github.com/mmynk/billsplit/internal/service"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
	slog.Info("Storage initialized", "driver", cfg.DBDriver)

	blobs, err := blob.Open(ctx, cfg.BlobBackend, cfg.BlobDir, cfg.S3())
	if err != nil {
		slog.Error("Failed to initialize receipt storage", "error", err, "backend", cfg.BlobBackend)
		os.Exit(1)
	}

	hub := live.NewHub()
	bills := service.NewBillService(store, hub, service.WithWatchRefresh(cfg.WatchRefresh))

	ingestOpts := []ingest.Option{ingest.WithChangeHook(bills.NotifyChanged)}
	if cfg.AMQPURL != "" {
		publisher, err := queue.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		ingestOpts = append(ingestOpts, ingest.WithPublisher(publisher))
		slog.Info("Receipts will be processed by the worker", "queue", cfg.AMQPQueue)
	} else {
		slog.Info("Receipts will be processed inline")
	}
	extractor := &ocr.Tesseract{Command: cfg.OCRCommand, Timeout: cfg.OCRTimeout}
	ingestor := ingest.NewService(store, blobs, extractor, ingestOpts...)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	router := httpapi.NewRouter(httpapi.Config{
		Store:      store,
		JWTManager: jwtManager,
		Services: []httpapi.Service{
			service.NewAuthService(authenticator, jwtManager, store, slog.Default()),
			bills,
			service.NewPeopleService(store, hub),
			service.NewReceiptService(ingestor),
			service.NewAnalyticsService(store, cfg.ReminderMinAge),
		},
		HandlerOptions: []connect.HandlerOption{
			connect.WithInterceptors(
				middleware.NewLoggingInterceptor(),
				middleware.RequireAuth(jwtManager, service.PublicProcedures...),
			),
		},
	})

	// h2c serves HTTP/2 without TLS, which the streaming RPCs need.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("Shutdown signal received", "signal", sig.String())

		// Cancelling ctx first ends open WatchSplit streams.
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	}()

	slog.Info("Billsplit server starting", "port", cfg.Port, "url", "http://localhost:"+cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	<-stopped
	slog.Info("Server stopped gracefully")
}
