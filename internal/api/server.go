// Package api provides the HTTP API for observing and steering the colony.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/talgya/cromulant/internal/config"
	"github.com/talgya/cromulant/internal/engine"
	"github.com/talgya/cromulant/internal/feed"
	"github.com/talgya/cromulant/internal/persistence"
	"github.com/talgya/cromulant/internal/settings"
)

// Server serves the colony over HTTP. Every read or write of colony state
// goes through Eng.Do so it runs between ticks.
type Server struct {
	Colony   *engine.Colony
	Sched    *engine.Scheduler
	Eng      *engine.Engine
	Feed     *feed.Feed
	Settings *settings.Settings
	Store    persistence.Store // May be nil
	Config   *config.Config
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// Active SSE connection count.
	sseConns atomic.Int32
	limiter  *RateLimiter
}

// Handler builds the routed handler.
func (s *Server) Handler() http.Handler {
	if s.limiter == nil {
		s.limiter = NewRateLimiter(s.Config.API.AdminRate, s.Config.API.AdminWindow)
		s.limiter.TrustProxy = s.Config.API.TrustProxy
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return s.adminOnly(RateLimitMiddleware(s.limiter, h))
	}

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/ants", s.handleAnts)
	mux.HandleFunc("GET /api/v1/ant/{name}", s.handleAnt)
	mux.HandleFunc("GET /api/v1/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/v1/feed", s.handleFeed)
	mux.HandleFunc("GET /api/v1/feed.csv", s.handleFeedCSV)
	mux.HandleFunc("GET /api/v1/settings", s.handleSettings)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("POST /api/v1/hatch", admin(s.handleHatch))
	mux.HandleFunc("POST /api/v1/terminate", admin(s.handleTerminate))
	mux.HandleFunc("POST /api/v1/merge", admin(s.handleMerge))
	mux.HandleFunc("POST /api/v1/speed", admin(s.handleSpeed))
	mux.HandleFunc("POST /api/v1/settings", admin(s.handleUpdateSettings))
	mux.HandleFunc("POST /api/v1/snapshot", admin(s.handleSnapshot))

	return corsMiddleware(mux)
}

// Start serves the API until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.Config.API.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go s.limiter.Sweep(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no CROMULANT_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// do runs fn between ticks, answering 503 when the engine is unavailable.
func (s *Server) do(w http.ResponseWriter, r *http.Request, fn func()) bool {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.Eng.Do(ctx, fn); err != nil {
		http.Error(w, "colony busy", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
