// Package httpapi assembles the HTTP surface: Connect services, health,
// metrics and CSV export.
package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/billsplit/internal/auth"
	"github.com/mmynk/billsplit/internal/calculator"
	"github.com/mmynk/billsplit/internal/export"
	"github.com/mmynk/billsplit/internal/metrics"
	"github.com/mmynk/billsplit/internal/middleware"
	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/snapshot"
	"github.com/mmynk/billsplit/internal/storage"
)

// Service is a Connect service that mounts itself under its path prefix.
type Service interface {
	Handler(opts ...connect.HandlerOption) (string, http.Handler)
}

// Store is what the plain HTTP routes read from.
type Store interface {
	snapshot.Reader
	Ping(ctx context.Context) error
}

// Config wires the router.
type Config struct {
	Store      Store
	JWTManager *auth.JWTManager
	Services   []Service

	// HandlerOptions are passed to every Connect service.
	HandlerOptions []connect.HandlerOption
}

// NewRouter builds the root handler.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors)

	r.Get("/healthz", healthHandler(cfg.Store))
	r.Handle("/metrics", promhttp.Handler())

	r.With(middleware.RequireAuthHTTP(cfg.JWTManager)).
		Get("/export/bills/{billID}/split.csv", exportHandler(cfg.Store))

	for _, svc := range cfg.Services {
		path, handler := svc.Handler(cfg.HandlerOptions...)
		r.Handle(path+"*", handler)
	}
	return r
}

func healthHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := store.Ping(ctx); err != nil {
			slog.Warn("Health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}
}

// exportHandler serves GET /export/bills/{billID}/split.csv?policy=...
func exportHandler(store snapshot.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.GetUserID(r.Context())
		billID := chi.URLParam(r, "billID")

		policy, err := calculator.ParsePolicy(r.URL.Query().Get("policy"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		snap, err := snapshot.LoadBill(r.Context(), store, userID, billID)
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "bill not found", http.StatusNotFound)
			return
		}
		if err != nil {
			slog.Error("Failed to load bill for export", "bill_id", billID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		splits, err := calculator.CalculateSplit(snap.SplitInput(policy))
		if errors.Is(err, models.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			slog.Error("Failed to compute split for export", "bill_id", billID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		metrics.SplitComputations.WithLabelValues(string(policy)).Inc()

		var buf bytes.Buffer
		if err := export.WriteSplitCSV(&buf, splits); err != nil {
			slog.Error("Failed to render CSV", "bill_id", billID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(time.Now())))
		w.Write(buf.Bytes())
	}
}

// requestLogger logs all incoming requests.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", chimw.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// cors adds CORS headers for browser access.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, Content-Disposition")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
