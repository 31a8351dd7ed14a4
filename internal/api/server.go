package api

import (
	"context"
	"net/http"
	"time"

	"example.com/restaurant-pos/config"
	"example.com/restaurant-pos/internal/api/handlers"
	"example.com/restaurant-pos/internal/metrics"
	"example.com/restaurant-pos/internal/services"
	"example.com/restaurant-pos/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Dependencies are the services the HTTP server exposes
type Dependencies struct {
	Orders    *services.OrderService
	Catalog   *services.CatalogService
	Auth      *services.AuthService
	Dashboard *services.DashboardService
	Searcher  handlers.OrderSearcher
	Metrics   *metrics.Metrics
	Health    map[string]handlers.HealthChecker
}

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server
	deps       Dependencies
	tracer     tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, deps Dependencies, tracer tracing.Tracer) *Server {
	if tracer == nil {
		tracer = tracing.Disabled()
	}
	server := &Server{
		config: cfg,
		deps:   deps,
		tracer: tracer,
	}

	server.router = server.setupRouter()
	server.httpServer = &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.Server.Timeout > 0 {
		server.httpServer.ReadTimeout = cfg.Server.Timeout
		server.httpServer.WriteTimeout = cfg.Server.Timeout
	}

	return server
}

// Router exposes the gin engine, mostly for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	if s.config.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = s.config.Storage.MaxImageBytes + 1<<20

	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware())
	if s.config.Server.CorsEnabled {
		router.Use(CORSMiddleware(s.config.Server.CorsOrigins))
	}
	router.Use(s.tracer.Middleware())

	handlers.NewMetricsHandler(s.deps.Metrics, s.tracer, s.deps.Health).RegisterRoutes(router)

	if s.config.Storage.UploadDir != "" && s.config.Storage.PublicPrefix != "" {
		router.Static(s.config.Storage.PublicPrefix, s.config.Storage.UploadDir)
	}

	api := router.Group("/api")

	authHandler := handlers.NewAuthHandler(s.deps.Auth, s.tracer)
	authHandler.RegisterPublicRoutes(api)

	protected := api.Group("", AuthMiddleware(s.deps.Auth))
	authHandler.RegisterRoutes(protected)
	handlers.NewItemHandler(s.deps.Catalog, s.tracer).RegisterRoutes(protected)
	handlers.NewOrderHandler(s.deps.Orders, s.deps.Searcher, s.tracer).RegisterRoutes(protected)
	handlers.NewDashboardHandler(s.deps.Dashboard, s.tracer).RegisterRoutes(protected)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.Server.Address).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
