// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alchemorsel/mealswap/internal/application/catalog"
	appswap "github.com/alchemorsel/mealswap/internal/application/swap"
	domainswap "github.com/alchemorsel/mealswap/internal/domain/swap"
	"github.com/alchemorsel/mealswap/internal/infrastructure/config"
	"github.com/alchemorsel/mealswap/internal/infrastructure/events"
	"github.com/alchemorsel/mealswap/internal/infrastructure/http/apiserver"
	"github.com/alchemorsel/mealswap/internal/infrastructure/monitoring"
	gormRepo "github.com/alchemorsel/mealswap/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/mealswap/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/mealswap/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/mealswap/internal/infrastructure/persistence/postgres"
	redisCache "github.com/alchemorsel/mealswap/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/mealswap/internal/infrastructure/persistence/seed"
	"github.com/alchemorsel/mealswap/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/mealswap/internal/ports/inbound"
	"github.com/alchemorsel/mealswap/internal/ports/outbound"
	"github.com/alchemorsel/mealswap/pkg/healthcheck"
	"github.com/alchemorsel/mealswap/pkg/logger"
)

// ConfigPath is the config file handed to config.Load. Empty means the
// default search paths.
type ConfigPath string

// Module provides all dependency injection modules. The caller supplies a
// ConfigPath.
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	DatabaseModule,
	CacheModule,

	RepositoryModule,
	EventModule,
	ServiceModule,
	HTTPModule,

	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug && !cfg.IsProduction(),
			Fields: map[string]string{
				"service":     cfg.App.Name,
				"version":     cfg.App.Version,
				"environment": cfg.App.Environment,
			},
		})
	},
)

// MonitoringModule provides the Prometheus collector and the tracer
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	NewTracingProvider,
	func(tp *monitoring.TracingProvider) trace.Tracer {
		return tp.Tracer()
	},
)

// DatabaseModule provides the GORM connection for the configured driver
var DatabaseModule = fx.Provide(
	NewDatabase,
)

// CacheModule provides the suggestion cache
var CacheModule = fx.Provide(
	NewCache,
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	gormRepo.NewFoodRepository,
	gormRepo.NewMealRepository,
)

// EventModule provides the in-process event dispatcher
var EventModule = fx.Options(
	fx.Provide(
		events.NewDispatcher,
		func(d *events.Dispatcher) outbound.EventPublisher {
			return d
		},
	),
	fx.Invoke(events.RegisterMealHandlers),
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(log *zap.Logger) *domainswap.Engine {
		return domainswap.NewEngine(domainswap.NewDefaultRegistry(), log)
	},

	// Swap service
	func(
		meals outbound.MealRepository,
		foods outbound.FoodRepository,
		cache outbound.CacheRepository,
		publisher outbound.EventPublisher,
		engine *domainswap.Engine,
		collector *monitoring.MetricsCollector,
		tracer trace.Tracer,
		cfg *config.Config,
		log *zap.Logger,
	) inbound.SwapService {
		var metrics appswap.Metrics
		if cfg.Monitoring.EnableMetrics {
			metrics = collector
		}
		return appswap.NewSwapService(meals, foods, cache, publisher, engine, metrics, tracer, appswap.Options{
			SuggestionTTL: cfg.Cache.SuggestionTTL,
			KeyPrefix:     cfg.Cache.KeyPrefix,
		}, log)
	},

	// Catalog service
	func(
		foods outbound.FoodRepository,
		cache outbound.CacheRepository,
		cfg *config.Config,
		log *zap.Logger,
	) inbound.CatalogService {
		swapKeys := appswap.NewKeyBuilder(cfg.Cache.KeyPrefix)
		return catalog.NewCatalogService(foods, cache, swapKeys.SwapsPrefix(), log)
	},
)

// HTTPModule provides the health checks and the API server
var HTTPModule = fx.Provide(
	NewHealthCheck,
	func(
		cfg *config.Config,
		log *zap.Logger,
		swaps inbound.SwapService,
		foods inbound.CatalogService,
		collector *monitoring.MetricsCollector,
		health *healthcheck.HealthCheck,
	) *apiserver.APIServer {
		var metrics apiserver.MetricsProvider
		if cfg.Monitoring.EnableMetrics {
			metrics = collector
		}
		return apiserver.NewAPIServer(cfg, log, swaps, foods, metrics, health)
	},
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// NewTracingProvider builds the tracer provider and flushes it on stop
func NewTracingProvider(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
	tp, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
		SamplingRate:   cfg.Monitoring.SamplingRate,
		Enabled:        cfg.Monitoring.EnableTracing,
	}, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
	return tp, nil
}

// NewDatabase opens the configured database, applies the schema and seeds
// an empty catalog when asked to. The connection is closed on stop, or
// before returning when any step after opening fails.
func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err = postgres.Connect(ctx, cfg, log)
	default:
		db, err = sqlite.SetupDatabase(cfg.Database.Path, sqlite.ParseLogLevel(cfg.Database.LogLevel))
	}
	if err != nil {
		return nil, err
	}

	if err := prepareDatabase(ctx, db, cfg, log); err != nil {
		return nil, errors.Join(err, closeDatabase(db))
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return closeDatabase(db)
		},
	})
	return db, nil
}

func prepareDatabase(ctx context.Context, db *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	if cfg.Database.Driver == config.DriverPostgres && cfg.Database.AutoMigrate {
		if err := migratePostgres(db, cfg.Database.Database, log); err != nil {
			return err
		}
	}

	log.Info("Database connected",
		zap.String("driver", cfg.Database.Driver),
		zap.Bool("auto_migrate", cfg.Database.AutoMigrate),
	)

	if !cfg.Database.Seed {
		return nil
	}
	seeded, err := seed.Load(ctx, gormRepo.NewFoodRepository(db))
	if err != nil {
		return err
	}
	if seeded > 0 {
		log.Info("Seeded starter catalog", zap.Int("foods", seeded))
	}
	return nil
}

func closeDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func migratePostgres(db *gorm.DB, databaseName string, log *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// The migrator is not closed: closing it closes sqlDB as well.
	migrator, err := migrations.New(sqlDB, databaseName, log)
	if err != nil {
		return err
	}
	return migrator.Up()
}

// CacheResult is the cache and the health probe matching its backend
type CacheResult struct {
	fx.Out

	Cache   outbound.CacheRepository
	Checker healthcheck.Checker `name:"cache_checker"`
}

// NewCache returns the Redis cache when enabled and reachable, otherwise the
// in-process cache.
func NewCache(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) CacheResult {
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := redisCache.NewClient(ctx, cfg)
		if err == nil {
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					return client.Close()
				},
			})
			log.Info("Using Redis cache", zap.String("addr", client.Options().Addr))
			return CacheResult{
				Cache:   redisCache.NewCacheRepository(client, log),
				Checker: healthcheck.Redis(client),
			}
		}
		log.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(err))
	}

	cache := memory.NewCacheRepository(time.Minute)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return cache.Close()
		},
	})
	log.Info("Using in-memory cache")
	return CacheResult{
		Cache: cache,
		Checker: healthcheck.CheckFunc(func(context.Context) (healthcheck.Status, string, map[string]any) {
			return healthcheck.StatusHealthy, "", map[string]any{"entries": cache.Len()}
		}),
	}
}

// HealthParams are the probes behind /health
type HealthParams struct {
	fx.In

	Config       *config.Config
	Logger       *zap.Logger
	DB           *gorm.DB
	CacheChecker healthcheck.Checker `name:"cache_checker"`
}

// NewHealthCheck registers the database and cache probes
func NewHealthCheck(p HealthParams) (*healthcheck.HealthCheck, error) {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	health := healthcheck.New(p.Config.App.Version, p.Logger.Named("health"))
	health.Register("database", healthcheck.Database(sqlDB))
	health.Register("cache", p.CacheChecker)
	return health, nil
}

// RegisterLifecycleHooks starts the API server and shuts it down gracefully
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	server *apiserver.APIServer,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting mealswap",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			go func() {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down mealswap")

			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
