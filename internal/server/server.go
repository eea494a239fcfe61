// Package server provides the HTTP API for docread.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/docread/internal/config"
	"github.com/hyperjump/docread/internal/output"
	"go.uber.org/zap"
)

// Extractor turns a document path into text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// WatchService manages watched directories at runtime.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the docread API.
type Server struct {
	extractor Extractor
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server

	watch      WatchService
	configPath string
	configMu   sync.Mutex
	stats      func() output.Stats
}

// Option configures optional server features.
type Option func(*Server)

// WithWatch enables the watch directory endpoints. When configPath is set, directory
// changes are persisted to it.
func WithWatch(ws WatchService, configPath string) Option {
	return func(s *Server) {
		s.watch = ws
		s.configPath = configPath
	}
}

// WithStats exposes watch pipeline counters on the status endpoint.
func WithStats(fn func() output.Stats) Option {
	return func(s *Server) { s.stats = fn }
}

// NewServer creates a server with the given dependencies.
func NewServer(ex Extractor, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		extractor: ex,
		config:    cfg,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.server = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg != nil {
		s.server.Addr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	return s
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/extract", s.handleExtract)
		r.Post("/classify", s.handleClassify)
		r.Get("/formats", s.handleFormats)
		r.Get("/status", s.handleStatus)
		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops. After Stop it returns
// http.ErrServerClosed, even when Stop ran first.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
