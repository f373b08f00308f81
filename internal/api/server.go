// Package api provides the HTTP API server and handlers for the Larder application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/larderapp/larder-server/internal/config"
	"github.com/larderapp/larder-server/internal/metrics"
	"github.com/larderapp/larder-server/internal/ratelimit"
	"github.com/larderapp/larder-server/internal/search"
	"github.com/larderapp/larder-server/internal/service"
	"github.com/larderapp/larder-server/internal/store"
)

// Version is reported in the OpenAPI document.
const Version = "0.1.0"

// Services groups the services the handlers call.
type Services struct {
	Auth         *service.AuthService
	Ingredient   *service.IngredientService
	Pantry       *service.PantryService
	Recipe       *service.RecipeService
	MealPlan     *service.MealPlanService
	ShoppingList *service.ShoppingListService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       store.Store
	index       *search.Index
	services    *Services
	metrics     *metrics.Metrics
	authLimiter *ratelimit.KeyedRateLimiter
	router      *chi.Mux
	api         huma.API
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured. index, m and
// authLimiter may be nil.
func NewServer(
	cfg *config.Config,
	st store.Store,
	index *search.Index,
	services *Services,
	m *metrics.Metrics,
	authLimiter *ratelimit.KeyedRateLimiter,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:       st,
		index:       index,
		services:    services,
		metrics:     m,
		authLimiter: authLimiter,
		router:      chi.NewRouter(),
		logger:      logger,
	}

	s.setupMiddleware(cfg.Server.CORSOrigins)

	humaConfig := huma.DefaultConfig("Larder API", Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerIngredientRoutes()
	s.registerPantryRoutes()
	s.registerRecipeRoutes()
	s.registerMealPlanRoutes()
	s.registerShoppingListRoutes()

	if cfg.Metrics.Enabled && m != nil {
		s.router.Handle("/metrics", m.Handler())
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}
