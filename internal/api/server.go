package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/compliance-engine/internal/assessment"
	"github.com/terra-clan/compliance-engine/internal/config"
	"github.com/terra-clan/compliance-engine/internal/health"
	"github.com/terra-clan/compliance-engine/internal/models"
	"github.com/terra-clan/compliance-engine/internal/storage"
)

// FrameworkCatalog lists the loaded framework definitions
type FrameworkCatalog interface {
	Get(id string) *models.Framework
	List() []*models.Framework
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	assessments    assessment.Service
	frameworks     FrameworkCatalog
	checks         *health.Registry
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	service assessment.Service,
	catalog FrameworkCatalog,
	repo storage.Repository,
	checks *health.Registry,
) *Server {
	if checks == nil {
		checks = health.NewRegistry()
	}
	s := &Server{
		config:         cfg,
		assessments:    service,
		frameworks:     catalog,
		checks:         checks,
		authMiddleware: NewAuthMiddleware(repo),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes (protected by authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(timeout))

			// Frameworks
			r.Route("/frameworks", func(r chi.Router) {
				r.Use(s.authMiddleware.RequirePermission(models.PermFrameworksRead))
				r.Get("/", s.handleListFrameworks)
				r.Get("/{id}", s.handleGetFramework)
				r.Get("/{id}/questions", s.handleListQuestions)
			})

			// Stateless scoring
			r.With(s.authMiddleware.RequirePermission(models.PermAnalyze)).Post("/analyze", s.handleAnalyze)
		})

		// Assessments
		r.Route("/assessments", func(r chi.Router) {
			r.With(middleware.Timeout(timeout), s.authMiddleware.RequirePermission(models.PermAssessmentsRead)).Get("/", s.handleListAssessments)
			r.With(middleware.Timeout(timeout), s.authMiddleware.RequirePermission(models.PermAssessmentsWrite)).Post("/", s.handleCreateAssessment)

			r.Route("/{id}", func(r chi.Router) {
				// Long-lived websocket, so no request timeout
				r.With(s.authMiddleware.RequirePermission(models.PermAssessmentsWrite)).Get("/live", s.handleLiveWS)

				r.Group(func(r chi.Router) {
					r.Use(middleware.Timeout(timeout))
					r.With(s.authMiddleware.RequirePermission(models.PermAssessmentsRead)).Get("/", s.handleGetAssessment)
					r.With(s.authMiddleware.RequirePermission(models.PermAssessmentsWrite)).Delete("/", s.handleDeleteAssessment)
					r.With(s.authMiddleware.RequirePermission(models.PermAssessmentsWrite)).Put("/responses", s.handleUpdateResponses)
					r.With(s.authMiddleware.RequirePermission(models.PermAssessmentsRead)).Get("/report", s.handleGetReport)
					r.With(s.authMiddleware.RequirePermission(models.PermAssessmentsRead)).Get("/summary", s.handleGetSummary)
					r.With(s.authMiddleware.RequirePermission(models.PermAssessmentsRead)).Get("/gaps", s.handleGetGaps)
					r.With(s.authMiddleware.RequirePermission(models.PermAssessmentsRead)).Get("/remediation", s.handleGetRemediation)
					r.With(s.authMiddleware.RequirePermission(models.PermAssessmentsRead)).Get("/recommendations", s.handleGetRecommendations)
				})
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
