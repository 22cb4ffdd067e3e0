package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/interview-engine/internal/config"
	"github.com/terra-clan/interview-engine/internal/health"
	"github.com/terra-clan/interview-engine/internal/provisioning"
	"github.com/terra-clan/interview-engine/internal/sessions"
)

// requestTimeout bounds every route except question generation, which runs as long
// as the generator needs.
const requestTimeout = 60 * time.Second

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	service        *provisioning.Service
	sessions       *sessions.Service
	health         *health.Registry
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	service *provisioning.Service,
	sessionService *sessions.Service,
	checks *health.Registry,
	clients ClientStore,
) *Server {
	s := &Server{
		config:         cfg,
		service:        service,
		sessions:       sessionService,
		health:         checks,
		authMiddleware: NewAuthMiddleware(clients),
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

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// Candidate-facing routes; the token is the credential
	r.Route("/public/sessions/{token}", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Get("/", s.handleGetPublicSession)
		r.Post("/start", s.handleStartSession)
		r.Post("/complete", s.handleCompleteSession)
	})

	// API v1 routes (protected by authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.With(s.authMiddleware.RequirePermission("catalog:read")).Get("/catalog", s.handleGetCatalog)
			r.With(s.authMiddleware.RequirePermission("catalog:read")).Post("/quotes", s.handleQuote)
			r.With(s.authMiddleware.RequirePermission("credits:read")).Get("/credits", s.handleGetCredits)
			r.With(s.authMiddleware.RequirePermission("candidates:read")).Get("/candidates", s.handleListCandidates)
			r.With(s.authMiddleware.RequirePermission("interviews:read")).Get("/interviews/{id}/sessions", s.handleListSessions)
		})

		r.Route("/drafts", func(r chi.Router) {
			r.With(middleware.Timeout(requestTimeout), s.authMiddleware.RequirePermission("drafts:write")).Post("/", s.handleCreateDraft)

			r.Route("/{id}", func(r chi.Router) {
				// Generation is not bounded by requestTimeout
				r.With(s.authMiddleware.RequirePermission("drafts:write")).Post("/questions", s.handleGenerateQuestions)
				r.With(s.authMiddleware.RequirePermission("drafts:write")).Get("/questions/stream", s.handleGenerateQuestionsStream)

				r.Group(func(r chi.Router) {
					r.Use(middleware.Timeout(requestTimeout))

					r.With(s.authMiddleware.RequirePermission("drafts:read")).Get("/", s.handleGetDraft)
					r.With(s.authMiddleware.RequirePermission("drafts:write")).Patch("/", s.handleUpdateDraft)
					r.With(s.authMiddleware.RequirePermission("drafts:write")).Delete("/", s.handleDeleteDraft)
					r.With(s.authMiddleware.RequirePermission("drafts:write")).Post("/categories/{categoryId}", s.handleToggleCategory)
					r.With(s.authMiddleware.RequirePermission("drafts:write")).Post("/reset", s.handleResetDraft)
					r.With(s.authMiddleware.RequirePermission("drafts:write")).Post("/interview", s.handleCommitInterview)
					r.With(s.authMiddleware.RequirePermission("drafts:write")).Put("/candidates", s.handleSelectCandidates)
					r.With(s.authMiddleware.RequirePermission("drafts:write")).Patch("/candidates", s.handleEditCandidates)
					r.With(s.authMiddleware.RequirePermission("drafts:write")).Post("/candidates/commit", s.handleCommitCandidates)
					r.With(s.authMiddleware.RequirePermission("drafts:write")).Post("/invitations", s.handleIssueSessions)
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
