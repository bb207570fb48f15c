// Package server provides the HTTP API for synopsis.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/synopsis/internal/config"
	"github.com/hyperjump/synopsis/internal/pipeline"
	"github.com/hyperjump/synopsis/internal/storage"
	"go.uber.org/zap"
)

// WatchService manages the inbox directories watched at runtime.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the synopsis API.
type Server struct {
	service *pipeline.Service
	storage storage.Storage
	config  *config.ServerConfig
	logger  *zap.Logger
	watch   WatchService
	server  *http.Server

	// configPath and appConfig persist watch directory changes; both optional.
	configPath  string
	appConfig   *config.Config
	appConfigMu sync.Mutex
}

// NewServer creates a server with the given dependencies. watch and appConfig may be nil.
func NewServer(
	svc *pipeline.Service,
	cfg *config.ServerConfig,
	logger *zap.Logger,
	watch WatchService,
	configPath string,
	appConfig *config.Config,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		service:    svc,
		storage:    svc.Storage(),
		config:     cfg,
		logger:     logger,
		watch:      watch,
		configPath: configPath,
		appConfig:  appConfig,
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/summarize", s.handleSummarize)
	r.Post("/api/v1/summarize/upload", s.handleSummarizeUpload)
	r.Get("/api/v1/summaries", s.handleListSummaries)
	r.Get("/api/v1/summaries/{id}", s.handleGetSummary)
	r.Delete("/api/v1/summaries/{id}", s.handleDeleteSummary)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/watch/directories", s.handleWatchDirectoriesList)
	r.Post("/api/v1/watch/directories", s.handleWatchDirectoriesAdd)
	r.Delete("/api/v1/watch/directories", s.handleWatchDirectoriesRemove)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
