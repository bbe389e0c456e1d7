// Package api serves city sessions over HTTP.
// Each player drives their own city; engine calls are serialized per city.
// Admin endpoints require a bearer token.
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
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/talgya/gridcity/internal/engine"
	"github.com/talgya/gridcity/internal/persistence"
)

// Server exposes city sessions over HTTP.
type Server struct {
	Sessions *Sessions
	DB       *persistence.DB // nil = save slots disabled
	SaveDir  string          // empty = save files disabled
	Hub      *Hub
	Clock    *engine.Clock // nil = no auto-advance
	Limiter  *RateLimiter  // nil = unlimited
	AdminKey string        // bearer token for admin endpoints; empty disables them
}

// Routes builds the request router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/catalog", s.handleCatalog)
		if s.Hub != nil {
			r.Get("/ws", s.Hub.ServeWS)
		}

		r.Get("/cities", s.handleListCities)
		r.With(s.limit).Post("/cities", s.handleCreateCity)

		r.Route("/cities/{cityID}", func(r chi.Router) {
			r.Get("/", s.handleCity)
			r.Get("/stats", s.handleStats)
			r.Get("/cells/{row}/{col}", s.handleCellInfo)
			r.Get("/events", s.handleEvents)
			r.Get("/achievements", s.handleAchievements)
			r.Get("/snapshot", s.handleSnapshot)

			r.Group(func(r chi.Router) {
				r.Use(s.limit)
				r.Post("/zone", s.handleZone)
				r.Post("/zone_2x2", s.handleZoneBlock)
				r.Post("/build", s.handleBuild)
				r.Post("/clear", s.handleClear)
				r.Post("/advance", s.handleAdvance)
				r.Post("/update_systems", s.handleUpdateSystems)
				r.Post("/trigger_event", s.handleTriggerEvent)
				r.Post("/trigger_disaster", s.handleTriggerDisaster)
				r.Post("/tax", s.handleTax)
				r.Post("/reset", s.handleReset)
				r.Post("/save", s.handleSave)
			})
			r.Delete("/", s.handleCloseCity)
		})

		r.Get("/saves", s.handleListSaves)
		r.With(s.limit).Post("/saves/{saveID}/load", s.handleLoadSave)
		r.With(s.limit).Post("/saves/file/{name}/load", s.handleLoadSaveFile)
		r.Get("/saves/{saveID}/events", s.handleSavedEvents)
		r.With(s.adminOnly).Delete("/saves/{saveID}", s.handleDeleteSave)

		r.With(s.adminOnly).Post("/admin/intervention", s.handleIntervention)
	})
	return r
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr,
		"admin_auth", s.AdminKey != "",
		"saves_db", s.DB != nil,
		"save_dir", s.SaveDir,
	)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// AdvanceAll advances every session one year and publishes the reports.
// It is the Clock's OnYear callback.
func (s *Server) AdvanceAll(ctx context.Context, tick uint64) {
	reports := s.Sessions.AdvanceAll()
	for _, rep := range reports {
		s.publishReport(rep)
	}
	slog.Debug("clock tick", "tick", tick, "cities", len(reports))
}

func (s *Server) publishReport(rep engine.YearReport) {
	if s.Hub == nil {
		return
	}
	s.Hub.Publish(Message{Type: "year", CityID: rep.CityID, Payload: rep})
}

func (s *Server) publishState(c *engine.City) {
	if s.Hub == nil {
		return
	}
	s.Hub.Publish(Message{Type: "state", CityID: c.ID, Payload: newCityView(c)})
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// CORS_ORIGINS is a comma-separated list added to the localhost defaults.
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
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

func (s *Server) limit(next http.Handler) http.Handler {
	if s.Limiter == nil {
		return next
	}
	return s.Limiter.Middleware(next)
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	return ok && token == s.AdminKey
}

func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			writeError(w, http.StatusForbidden, "admin_disabled", "admin endpoints disabled (no CITYSIM_ADMIN_KEY set)")
			return
		}
		if !s.checkBearerToken(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withCity runs fn on the city named in the URL, answering 404 if the
// session does not exist. fn writes its own response.
func (s *Server) withCity(w http.ResponseWriter, r *http.Request, fn func(c *engine.City)) {
	id := chi.URLParam(r, "cityID")
	err := s.Sessions.With(id, func(c *engine.City) error {
		fn(c)
		return nil
	})
	if errors.Is(err, ErrNoSession) {
		writeError(w, http.StatusNotFound, "no_city", fmt.Sprintf("city %s not found", id))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return false
	}
	return true
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func writeError(w http.ResponseWriter, status int, reason, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg, Reason: reason})
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
