// Package server exposes the sync trigger over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mkondo/notionsync/internal/logger"
	"github.com/mkondo/notionsync/internal/models"
	"github.com/mkondo/notionsync/internal/recordmap"
	"github.com/mkondo/notionsync/internal/sync"
)

const defaultRateLimitRPM = 10

// Server is the HTTP front for the sync service
type Server struct {
	syncSvc    *sync.Service
	store      models.Store
	httpServer *http.Server
	adminToken string
	limiter    *clientLimiter
}

// New creates a server listening on addr. The admin token and rate
// limit come from ADMIN_TOKEN and RATE_LIMIT_RPM.
func New(addr string, syncSvc *sync.Service, store models.Store) *Server {
	rpm := defaultRateLimitRPM
	if v := os.Getenv("RATE_LIMIT_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rpm = n
		}
	}

	s := &Server{
		syncSvc:    syncSvc,
		store:      store,
		adminToken: os.Getenv("ADMIN_TOKEN"),
		limiter:    newClientLimiter(rpm),
	}

	mux := http.NewServeMux()
	mux.Handle("/api/notion/sync", chain(
		http.HandlerFunc(s.handleSync),
		authMiddleware(s.adminToken),
		rateLimitMiddleware(s.limiter),
	))
	mux.HandleFunc("/healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      chain(mux, requestIDMiddleware, loggingMiddleware),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Run starts the server and blocks until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", map[string]interface{}{
			"addr": s.httpServer.Addr,
		})
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

type syncRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	result, err := s.syncSvc.Sync(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, recordmap.ErrEmptyURL) ||
			errors.Is(err, recordmap.ErrNotNotionHost) ||
			errors.Is(err, recordmap.ErrNoPageID) {
			writeError(w, http.StatusBadRequest, "invalid Notion URL")
			return
		}
		// internal detail stays in the log
		logger.Error("Sync failed", err, map[string]interface{}{
			"url": req.URL,
		})
		writeError(w, http.StatusInternalServerError, "sync failed")
		return
	}

	if s.store != nil {
		if err := s.store.UpsertPosts(result.Posts); err != nil {
			logger.Error("Failed to store posts", err, nil)
		}
		if err := s.store.UpsertPages(result.Pages); err != nil {
			logger.Error("Failed to store pages", err, nil)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
