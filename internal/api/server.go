// Package api provides the HTTP surface of the playback engine: catalog and
// progress reads over plain chi handlers, typed playback commands over huma,
// and the SSE event stream.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seslikitap/seslikitap-server/internal/config"
	"github.com/seslikitap/seslikitap-server/internal/engine"
	"github.com/seslikitap/seslikitap-server/internal/ratelimit"
	"github.com/seslikitap/seslikitap-server/internal/sse"
	"github.com/seslikitap/seslikitap-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	engine        *engine.Engine
	sseManager    *sse.Manager
	sseHandler    *sse.Handler
	limiter       *ratelimit.KeyedRateLimiter
	validate      *validation.Validator
	adminPassword string
	router        *chi.Mux
	api           huma.API
	logger        *slog.Logger
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(cfg *config.Config, eng *engine.Engine, sseManager *sse.Manager, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	humaConfig := huma.DefaultConfig("SesliKitap API", "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s := &Server{
		engine:        eng,
		sseManager:    sseManager,
		sseHandler:    sse.NewHandler(sseManager, logger),
		limiter:       ratelimit.New(10, 20),
		validate:      validation.New(),
		adminPassword: cfg.Admin.PanelPassword,
		router:        router,
		logger:        logger,
	}

	s.setupMiddleware(cfg)
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerPlaybackRoutes()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-owned resources.
func (s *Server) Close() {
	s.limiter.Stop()
}

func (s *Server) setupMiddleware(cfg *config.Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(cfg.Server.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(s.rateLimitMutations)
}

func (s *Server) setupRoutes() {
	s.router.Route("/api/v1", func(r chi.Router) {
		// Session lifecycle.
		r.Route("/session", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.Get("/", s.handleGetSession)
			r.Put("/username", s.handleSetUsername)
		})

		// Catalog reads.
		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Get("/{id}", s.handleGetBook)
		})

		// Progress reads and clears.
		r.Route("/progress", func(r chi.Router) {
			r.Get("/", s.handleListProgress)
			r.Get("/{bookID}", s.handleGetProgress)
			r.Delete("/{bookID}", s.handleClearProgress)
		})

		// Favorites.
		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", s.handleListFavorites)
			r.Post("/{bookID}/toggle", s.handleToggleFavorite)
		})

		// SSE endpoint registered directly on chi (huma does not do SSE).
		r.Get("/events", s.sseHandler.ServeHTTP)
	})
}

func splitOrigins(origins string) []string {
	if origins == "" {
		return []string{"*"}
	}
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
