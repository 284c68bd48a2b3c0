// Package gateway is the HTTP surface: the WAHA webhook that feeds the
// orchestrator, the Google OAuth callback and short-link redirect, the
// external-cron job triggers, and the metrics/health endpoints.
package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jholhewres/finbot/pkg/finbot/store"
)

// MessageHandler runs one conversation turn. *agent.Orchestrator
// satisfies it.
type MessageHandler interface {
	HandleMessage(ctx context.Context, userID, chatID, messageID, text string) string
}

// Handshakes resolves and completes auth handshakes.
// *oauth.HandshakeService satisfies it.
type Handshakes interface {
	Resolve(id string) (string, error)
	Complete(ctx context.Context, id, code string) (string, error)
}

// JobRunner dispatches periodic jobs by UTC hour. *jobs.Runner satisfies it.
type JobRunner interface {
	RunByHour(ctx context.Context, utcHour int) error
}

// Sender delivers outbound messages. *waha.Client satisfies it.
type Sender interface {
	SendText(ctx context.Context, chatID, text string) error
}

// turnTimeout bounds one webhook-triggered conversation turn, model and
// tool calls included.
const turnTimeout = 3 * time.Minute

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	store      *store.Store
	handler    MessageHandler
	handshakes Handshakes
	jobs       JobRunner
	sender     Sender
	cronSecret string
	logger     *slog.Logger
}

// New wires a gateway server.
func New(st *store.Store, handler MessageHandler, handshakes Handshakes, jobs JobRunner, sender Sender, cronSecret string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:      st,
		handler:    handler,
		handshakes: handshakes,
		jobs:       jobs,
		sender:     sender,
		cronSecret: cronSecret,
		logger:     logger.With("component", "gateway"),
	}
}

// Router builds the HTTP route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/webhook", s.handleWebhook)

	r.Get("/auth/g/{id}", s.handleShortLink)
	r.Get("/api/auth/google/callback", s.handleGoogleCallback)

	r.Post("/api/cron/run", s.handleCronRun)

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
