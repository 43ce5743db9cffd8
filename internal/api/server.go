// Package api exposes the catalog over HTTP: huma operations on a chi
// router, wrapped in the versioned response envelope.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bookster/catalog-server/internal/auth"
	"github.com/bookster/catalog-server/internal/http/response"
	"github.com/bookster/catalog-server/internal/ratelimit"
	"github.com/bookster/catalog-server/internal/service"
	"github.com/bookster/catalog-server/internal/validation"
)

// APIVersion is reported in the OpenAPI document.
const APIVersion = "1.0.0"

// Options configures the HTTP surface.
type Options struct {
	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string
	// SearchLimiter throttles search requests per client IP. Nil disables
	// the limit.
	SearchLimiter *ratelimit.KeyedRateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	catalog   *service.CatalogService
	tokens    *auth.TokenService
	validator *validation.Validator
	limiter   *ratelimit.KeyedRateLimiter
	router    *chi.Mux
	api       huma.API
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(catalog *service.CatalogService, tokens *auth.TokenService, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		catalog:   catalog,
		tokens:    tokens,
		validator: validation.New(),
		limiter:   opts.SearchLimiter,
		router:    chi.NewRouter(),
		logger:    logger,
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("Catalog API", APIVersion)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(logger)

	s.registerRoutes()

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "method not allowed", s.logger)
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware(opts Options) {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(recoverer(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))
	s.router.Use(authMiddleware(s.tokens))
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerActivityRoutes()
	s.registerAdminRoutes()
}
