// Package server provides the HTTP API for captures, feedback, suggestions and item search.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/triage/internal/config"
	"github.com/hyperjump/triage/internal/index"
	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/storage"
	"github.com/hyperjump/triage/pkg/utils"
)

// Capturer runs captures. *pipeline.Pipeline implements it.
type Capturer interface {
	RunStream(ctx context.Context, req *models.CaptureRequest, onStage1 func(*models.CaptureResult)) (*models.CaptureResult, error)
}

// FeedbackSubmitter records run feedback. *feedback.Learner implements it.
type FeedbackSubmitter interface {
	Submit(ctx context.Context, runID string, sub *models.FeedbackSubmission) (*models.FeedbackResult, error)
}

// Server is the HTTP server for the triage API.
type Server struct {
	pipeline Capturer
	learner  FeedbackSubmitter
	storage  storage.Storage
	index    index.ItemIndex
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. idx may be nil, which disables
// item search.
func NewServer(
	p Capturer,
	learner FeedbackSubmitter,
	store storage.Storage,
	idx index.ItemIndex,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pipeline: p,
		learner:  learner,
		storage:  store,
		index:    idx,
		config:   cfg,
		logger:   utils.OrNop(logger),
	}
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	r.Use(middleware.Compress(5, "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/captures", s.handleCapture)
		r.Post("/runs/{id}/feedback", s.handleFeedback)
		r.Patch("/suggestions/{id}", s.handleUpdateSuggestion)
		r.Get("/temporal", s.handleTemporal)
		r.Get("/status", s.handleStatus)

		r.Route("/users/{user}", func(r chi.Router) {
			r.Get("/suggestions", s.handleListSuggestions)
			r.Get("/items", s.handleListItems)
			r.Get("/items/search", s.handleSearchItems)
		})
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops. After Stop it returns
// http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
