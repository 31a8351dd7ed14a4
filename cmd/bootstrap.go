package cmd

import (
	"context"

	"example.com/restaurant-pos/config"
	"example.com/restaurant-pos/internal/api/handlers"
	"example.com/restaurant-pos/internal/cache"
	"example.com/restaurant-pos/internal/database"
	"example.com/restaurant-pos/internal/metrics"
	"example.com/restaurant-pos/internal/repositories"
	"example.com/restaurant-pos/internal/search"
	"example.com/restaurant-pos/internal/services"
	"example.com/restaurant-pos/internal/tracing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// runtime holds the collaborators shared by the api and worker commands
type runtime struct {
	db      *gorm.DB
	store   *repositories.Store
	metrics *metrics.Metrics
	tracer  tracing.Tracer
	cache   *cache.RedisCache
	elastic *search.ElasticClient
}

func newRuntime(cfg config.Config) (*runtime, error) {
	metricsCollector := metrics.NewMetrics()

	db, err := database.Connect(cfg.DB, metricsCollector)
	if err != nil {
		return nil, err
	}
	metricsCollector.SetHealth("database", true)

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = tracing.Disabled()
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
		redisCache = cache.Disabled()
	}

	var elasticClient *search.ElasticClient
	if cfg.Elastic.Enabled {
		elasticClient, err = search.NewElasticClient(cfg.Elastic)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
			elasticClient = nil
		}
	}

	return &runtime{
		db:      db,
		store:   repositories.NewStore(db),
		metrics: metricsCollector,
		tracer:  tracer,
		cache:   redisCache,
		elastic: elasticClient,
	}, nil
}

func (r *runtime) catalog(images services.ImageStore) *services.CatalogService {
	return services.NewCatalogService(r.store, r.cache, images, r.metrics, r.tracer)
}

func (r *runtime) orders(cfg config.Config, catalog services.Catalog) *services.OrderService {
	policy := services.OrderPolicy{
		WalkInName:             cfg.Orders.WalkInName,
		StrictTransitions:      cfg.Orders.StrictTransitions,
		ForbidCancelledBilling: cfg.Orders.ForbidCancelledBilling,
	}
	return services.NewOrderService(r.store, catalog, policy, r.metrics, r.tracer)
}

func (r *runtime) auth(cfg config.Config) (*services.AuthService, error) {
	if err := checkJWTSecret(cfg); err != nil {
		return nil, err
	}
	return services.NewAuthService(r.store.Admins, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), nil
}

// checkJWTSecret refuses an empty or placeholder signing secret outside development
func checkJWTSecret(cfg config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must not be empty")
	}
	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		if cfg.Environment != "development" {
			return errors.Errorf("auth.jwt_secret is the default value in %q, set POS_AUTH_JWT_SECRET", cfg.Environment)
		}
		log.Warn().Msg("auth.jwt_secret is the default value, do not use it outside development")
	}
	return nil
}

// healthChecks are run by the /health endpoint
func (r *runtime) healthChecks() map[string]handlers.HealthChecker {
	checks := map[string]handlers.HealthChecker{
		"database": func() error { return database.Ping(r.db) },
	}
	if r.cache.Enabled() {
		checks["redis"] = func() error { return r.cache.Ping(context.Background()) }
	}
	if r.elastic != nil {
		checks["elasticsearch"] = func() error { return r.elastic.Ping(context.Background()) }
	}
	return checks
}

func (r *runtime) close() {
	r.tracer.Close()
	if err := r.cache.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close Redis client")
	}
	if err := database.Close(r.db); err != nil {
		log.Warn().Err(err).Msg("Failed to close database")
	}
}
