// Package httpapi serves record collections and their pages over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/roach88/timeline/internal/config"
	"github.com/roach88/timeline/internal/paging"
	"github.com/roach88/timeline/internal/record"
)

// RecordStore is what the HTTP surface needs from storage.
type RecordStore interface {
	paging.OrderedStore
	CreateRecord(ctx context.Context, collection string, attrs record.Attrs) (record.Record, error)
	ReadRecord(ctx context.Context, id string) (record.Record, error)
	TouchRecord(ctx context.Context, id string, attrs record.Attrs) (record.Record, error)
}

// maxBodyBytes bounds request bodies (record attrs).
const maxBodyBytes = 1 << 20

// Server is the HTTP server for record collections.
type Server struct {
	cfg        *config.Config
	store      RecordStore
	paginator  *paging.Paginator
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a new HTTP server reading and writing store.
func NewServer(cfg *config.Config, store RecordStore, logger *slog.Logger) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
		paginator: paging.New(store,
			paging.WithMaxPageSize(cfg.Paging.MaxPageSize),
			paging.WithLogger(logger),
		),
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /collections/{collection}/records", s.handleListRecords)
	mux.HandleFunc("POST /collections/{collection}/records", s.handleCreateRecord)
	mux.HandleFunc("GET /collections/{collection}/records/{id}", s.handleGetRecord)
	mux.HandleFunc("POST /collections/{collection}/records/{id}/touch", s.handleTouchRecord)

	s.httpServer = &http.Server{
		Addr:         cfg.Listen,
		Handler:      withLogging(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
