// Package server exposes the conversation pipeline over HTTP. Transport is a
// thin concern: handlers decode a request record, invoke the orchestrator,
// and encode the stable response payload. Degraded results are payload
// facts, not transport errors.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vhouse/vhouse/internal/config"
	"github.com/vhouse/vhouse/internal/conversation"
	"github.com/vhouse/vhouse/internal/database"
	"github.com/vhouse/vhouse/internal/logger"
)

// Deps provides dependencies for the HTTP handlers.
type Deps struct {
	Logger       *slog.Logger
	Orchestrator *conversation.Orchestrator
	Store        database.Store
}

// New builds the HTTP server with its router and middleware stack.
func New(cfg config.ServerConfig, deps Deps) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealth(deps))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/conversations", handleConversation(deps))
		r.Post("/emails", handleEmail(deps))
		r.Post("/orders/extract", handleOrderExtract(deps))
	})

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := deps.Store.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
