// Package server exposes the advisor over a small REST API
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/interfaces"
)

// Server wraps the HTTP server and its dependencies
type Server struct {
	advisor interfaces.AdvisorService
	store   interfaces.ReportStore
	config  *common.Config
	logger  *common.Logger
	server  *http.Server
}

// NewServer creates a new HTTP REST API server
func NewServer(advisor interfaces.AdvisorService, store interfaces.ReportStore, config *common.Config, logger *common.Logger) *Server {
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	s := &Server{
		advisor: advisor,
		store:   store,
		config:  config,
		logger:  logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := recoveryMiddleware(logger)(loggingMiddleware(logger)(mux))

	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler: handler,
		// analysis requests fan out to several providers plus the LLM
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// registerRoutes sets up all REST API routes on the mux
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/snapshots", s.handleSnapshots)
	mux.HandleFunc("/api/reports/", s.handleReportByID)
	mux.HandleFunc("/api/reports", s.handleReportList)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking)
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
