// Package server exposes the paper portfolio over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alejandrodnm/polyclaw/internal/domain"
	"github.com/alejandrodnm/polyclaw/internal/metrics"
)

// Portfolio is the read side of the engine plus trigger ingestion.
type Portfolio interface {
	Report(ctx context.Context) (domain.Report, error)
	Weekly(ctx context.Context) (domain.WeeklySummary, error)
	PublishTrigger(ctx context.Context, alerts []domain.PriceAlert) (domain.Trigger, error)
}

// maxTriggerBody bounds POST /api/triggers payloads.
const maxTriggerBody = 1 << 20

// NewRouter builds the chi router. m may be nil, in which case /metrics is
// not mounted.
func NewRouter(p Portfolio, m *metrics.Metrics) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	if m != nil {
		r.Use(m.Middleware(routePattern))
		r.Handle("/metrics", m.Handler())
	}

	h := &handlers{p: p}
	r.Get("/healthz", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/report", h.report)
		r.Get("/weekly", h.weekly)
		r.Post("/triggers", h.publishTrigger)
	})
	return r
}

// New creates the HTTP server bound to addr.
func New(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server: listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server.Run: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server.Run: shutdown: %w", err)
	}
	return nil
}

type handlers struct {
	p Portfolio
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) report(w http.ResponseWriter, r *http.Request) {
	rep, err := h.p.Report(r.Context())
	if err != nil {
		slog.Error("server: report failed", "err", err)
		writeError(w, "report unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *handlers) weekly(w http.ResponseWriter, r *http.Request) {
	sum, err := h.p.Weekly(r.Context())
	if err != nil {
		slog.Error("server: weekly failed", "err", err)
		writeError(w, "weekly summary unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

type triggerRequest struct {
	Alerts []domain.PriceAlert `json:"alerts"`
}

func (h *handlers) publishTrigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTriggerBody)).Decode(&req); err != nil {
		writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(req.Alerts) == 0 {
		writeError(w, "alerts must not be empty", http.StatusBadRequest)
		return
	}
	for _, a := range req.Alerts {
		if a.MarketID == "" {
			writeError(w, "every alert needs a market_id", http.StatusBadRequest)
			return
		}
	}

	t, err := h.p.PublishTrigger(r.Context(), req.Alerts)
	if err != nil {
		slog.Error("server: publish trigger failed", "err", err)
		writeError(w, "could not store trigger", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":           t.ID,
		"triggered_at": t.TriggeredAt,
		"alerts":       len(t.Alerts),
	})
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("server: encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
