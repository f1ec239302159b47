// Package api provides the HTTP API server and handlers for the ReadAlong session service.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/readalongapp/readalong-server/internal/http/response"
	"github.com/readalongapp/readalong-server/internal/service"
	"github.com/readalongapp/readalong-server/internal/sse"
	"github.com/readalongapp/readalong-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	reader     *service.ReaderService
	sseHandler *sse.Handler
	validator  *validation.Validator
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(reader *service.ReaderService, sseHandler *sse.Handler, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Device-Key"},
		MaxAge:         300,
	}))

	humaConfig := huma.DefaultConfig("ReadAlong API", "1.0.0")
	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		reader:     reader,
		sseHandler: sseHandler,
		validator:  validation.New(),
		router:     router,
		api:        api,
		logger:     logger,
	}

	s.router.Get("/health", s.handleHealthCheck)
	s.router.Get("/api/v1/session/events", s.sseHandler.ServeHTTP)

	s.registerSessionRoutes()
	s.registerSettingsRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
