// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alchemorsel/fusionchef/internal/application/feed"
	"github.com/alchemorsel/fusionchef/internal/application/generation"
	"github.com/alchemorsel/fusionchef/internal/application/navigation"
	"github.com/alchemorsel/fusionchef/internal/application/session"
	"github.com/alchemorsel/fusionchef/internal/domain/user"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/ai/gemini"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/ai/mock"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/ai/ollama"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/cache"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/history"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/http/server"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/http/ws"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/monitoring"
	gormRepo "github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/postgres"
	redisRepo "github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/security"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/storage"
	"github.com/alchemorsel/fusionchef/internal/ports/inbound"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
	"github.com/alchemorsel/fusionchef/pkg/healthcheck"
	"github.com/alchemorsel/fusionchef/pkg/logger"
)

// ConfigPath is the optional config file handed to config.Load
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	DatabaseModule,
	CacheModule,
	AIModule,
	StorageModule,
	MonitoringModule,

	// Application modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
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
			Development: cfg.App.Debug,
		})
	},
)

// Database is the relational side of the recipe store. Gorm and SQL are nil for the
// memory and none drivers.
type Database struct {
	Gorm  *gorm.DB
	SQL   *sql.DB
	close func() error
}

// Close releases the connection pool
func (d *Database) Close() error {
	if d.close == nil {
		return nil
	}
	return d.close()
}

// DatabaseModule provides database connections and the recipe store on top of them
var DatabaseModule = fx.Provide(
	NewDatabase,
	NewRecipeStore,
)

// NewDatabase opens the database named by database.driver
func NewDatabase(cfg *config.Config, log *zap.Logger) (*Database, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.SetupDatabase(cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		// Seed database with demo data
		if cfg.IsDevelopment() {
			if err := sqlite.SeedDatabase(db); err != nil {
				log.Warn("Failed to seed database", zap.Error(err))
			}
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		return &Database{Gorm: db, SQL: sqlDB, close: sqlDB.Close}, nil

	case "postgres":
		cm, err := postgres.NewConnectionManager(cfg, log)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			m, err := migrations.New(cm.SQLDB(), cfg.Database.Database, log)
			if err != nil {
				_ = cm.Close()
				return nil, err
			}
			if err := m.Up(); err != nil {
				_ = cm.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		return &Database{Gorm: cm.GetDB(), SQL: cm.SQLDB(), close: cm.Close}, nil

	default:
		log.Info("Running without a relational database", zap.String("driver", cfg.Database.Driver))
		return &Database{}, nil
	}
}

// NewRecipeStore picks the store for the driver and puts the recipe cache in front of
// the relational ones
func NewRecipeStore(cfg *config.Config, db *Database, c outbound.CacheRepository, log *zap.Logger) outbound.RecipeStore {
	switch {
	case db.Gorm != nil:
		return cache.NewRecipeCacheStore(gormRepo.NewRecipeRepository(db.Gorm), c, cfg.Redis.RecipeCacheTTL, log)
	case cfg.Database.Driver == "memory":
		return memory.NewRecipeStore()
	default:
		return memory.DisabledStore{}
	}
}

// Cache holds the key value store. Redis is nil when redis is disabled.
type Cache struct {
	Repository outbound.CacheRepository
	Redis      redis.UniversalClient
	close      func() error
}

// CacheModule provides caching
var CacheModule = fx.Provide(
	NewCache,
	func(c *Cache) outbound.CacheRepository { return c.Repository },
	func(c *Cache) outbound.SnapshotStore { return cache.NewSnapshotStore(c.Repository) },
)

// NewCache connects to redis when enabled and falls back to process memory
func NewCache(cfg *config.Config, log *zap.Logger) (*Cache, error) {
	if !cfg.Redis.Enabled {
		log.Info("Using in-memory cache")
		repo := memory.NewCacheRepository()
		return &Cache{Repository: repo, close: repo.Close}, nil
	}

	client, err := cache.NewRedisClient(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Cache{
		Repository: redisRepo.NewCacheRepository(client, cfg.App.Name+":", log),
		Redis:      client,
		close:      client.Close,
	}, nil
}

// Close releases the cache connections
func (c *Cache) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// AI bundles the model ports of the configured provider. Health is nil for the mock.
type AI struct {
	Text   outbound.TextGenerator
	Images outbound.ImageGenerator
	Ideas  outbound.IdeaService
	Health healthcheck.Pinger
}

// AIModule provides the model clients
var AIModule = fx.Provide(NewAI)

// NewAI builds the clients of ai.provider
func NewAI(cfg *config.Config, log *zap.Logger) (*AI, error) {
	switch cfg.AI.Provider {
	case "gemini":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c, err := gemini.NewClient(ctx, cfg.AI, log)
		if err != nil {
			return nil, err
		}
		return &AI{Text: c, Images: c, Ideas: c, Health: c}, nil
	case "ollama":
		c := ollama.NewClient(cfg.AI, log)
		return &AI{Text: c, Images: mock.NoImages{}, Ideas: c, Health: c}, nil
	default:
		log.Info("Using mock recipe generator")
		g := mock.NewGenerator()
		return &AI{Text: g, Images: g, Ideas: g}, nil
	}
}

// StorageModule provides the image store
var StorageModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (outbound.ImageStore, error) {
		return storage.NewImageStore(cfg.Storage, log)
	},
)

// MonitoringModule provides metrics, tracing and health checks
var MonitoringModule = fx.Provide(
	NewMetrics,
	func(m *monitoring.MetricsCollector) outbound.Metrics {
		if m == nil {
			return outbound.NopMetrics{}
		}
		return m
	},
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
	},
	NewHealthCheck,
	func(cfg *config.Config, m *monitoring.MetricsCollector, h *healthcheck.HealthCheck, log *zap.Logger) *monitoring.AdminServer {
		return monitoring.NewAdminServer(cfg.Monitoring, cfg.App.Debug, m, h, log)
	},
)

// NewMetrics returns nil when metrics are disabled
func NewMetrics(cfg *config.Config, db *Database, log *zap.Logger) *monitoring.MetricsCollector {
	if !cfg.Monitoring.EnableMetrics {
		return nil
	}
	m := monitoring.NewMetricsCollector(log)
	if db.SQL != nil {
		m.Registerer().MustRegister(collectors.NewDBStatsCollector(db.SQL, cfg.Database.Driver))
	}
	return m
}

// NewHealthCheck registers a checker for every configured dependency
func NewHealthCheck(cfg *config.Config, db *Database, c *Cache, ai *AI, images outbound.ImageStore, log *zap.Logger) *healthcheck.HealthCheck {
	h := healthcheck.New(cfg.App.Version, log)
	if db.SQL != nil {
		h.Register("database", healthcheck.NewDatabaseChecker(db.SQL))
	}
	if c.Redis != nil {
		h.Register("redis", healthcheck.NewRedisChecker(c.Redis))
	}
	if p, ok := images.(healthcheck.Pinger); ok {
		h.Register("storage", healthcheck.NewPingChecker("storage", p, false))
	}
	if ai.Health != nil {
		h.Register("ai", healthcheck.NewPingChecker("ai", ai.Health, false))
	}
	return h
}

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(cfg *config.Config, ai *AI, images outbound.ImageStore, recipes outbound.RecipeStore, metrics outbound.Metrics, log *zap.Logger) *generation.Service {
		return generation.NewService(ai.Text, ai.Images, images, recipes, metrics, generation.Config{
			Timeout:      cfg.Generation.Timeout,
			ImageTimeout: cfg.Generation.ImageTimeout,
			SaveTimeout:  cfg.Generation.SaveTimeout,
		}, log)
	},
	func(cfg *config.Config, log *zap.Logger) *ws.Hub {
		return ws.NewHub(cfg.Server.AllowedOrigins, log)
	},
	NewRegistry,
	func(cfg *config.Config, c outbound.CacheRepository, log *zap.Logger) *security.AuthService {
		return security.NewAuthService(cfg.Auth, c, log)
	},
	security.NewValidationService,
	func(cfg *config.Config, log *zap.Logger) *security.RateLimiter {
		return security.NewRateLimiter(cfg.RateLimit, log)
	},
)

// NewRegistry creates the session registry and ties session lifetimes to the event
// hub and the auth service
func NewRegistry(
	cfg *config.Config,
	gen *generation.Service,
	ai *AI,
	recipes outbound.RecipeStore,
	snapshots outbound.SnapshotStore,
	hub *ws.Hub,
	metrics outbound.Metrics,
	auth *security.AuthService,
	log *zap.Logger,
) *session.Registry {
	newHistory := func() outbound.HistoryStack { return history.NewRestrictedStack() }
	if cfg.Session.ServerHistory {
		newHistory = func() outbound.HistoryStack { return history.NewStack() }
	}

	registry := session.NewRegistry(session.Dependencies{
		Generator:  gen,
		Ideas:      ai.Ideas,
		Recipes:    recipes,
		Snapshots:  snapshots,
		Publisher:  hub,
		Metrics:    metrics,
		NewHistory: newHistory,
		Navigation: navigation.Config{SnapshotTTL: cfg.Session.SnapshotTTL},
		Feed: feed.Config{
			PageSize:     cfg.Feed.PageSize,
			Debounce:     cfg.Feed.DebounceWindow,
			FetchTimeout: cfg.Feed.FetchTimeout,
		},
		Logger: log,
	}, cfg.Session.MaxSessions, cfg.Session.IdleTTL)

	registry.OnEvict(hub.Disconnect)
	auth.OnAuthChange(func(e user.AuthChangedEvent) {
		if !e.SignedIn && e.User != nil {
			registry.SignOutUser(e.User.ID)
		}
	})
	return registry
}

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	func(r *session.Registry, hub *ws.Hub, v *security.ValidationService, log *zap.Logger) *handlers.SessionHandlers {
		return handlers.NewSessionHandlers(r, hub, v, log)
	},
	func(cfg *config.Config, auth *security.AuthService, r *session.Registry, log *zap.Logger) *handlers.AuthHandlers {
		return handlers.NewAuthHandlers(auth, r, cfg.Auth.DevCallback, log)
	},
	NewServer,
)

// NewServer assembles the API server
func NewServer(
	cfg *config.Config,
	sessions *handlers.SessionHandlers,
	authHandlers *handlers.AuthHandlers,
	auth *security.AuthService,
	limiter *security.RateLimiter,
	metrics *monitoring.MetricsCollector,
	log *zap.Logger,
) *server.Server {
	deps := server.RouterDeps{
		Config:   cfg.Server,
		Sessions: sessions,
		Auth:     authHandlers,
		Identity: inbound.AuthService(auth),
		Logger:   log,
	}
	if cfg.RateLimit.Enable {
		deps.Limiter = limiter.Middleware
	}
	if metrics != nil {
		deps.Metrics = metrics.HTTPMiddleware
	}
	return server.NewServer(deps)
}

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// Components are the pieces with a lifetime
type Components struct {
	fx.In

	Server   *server.Server
	Admin    *monitoring.AdminServer
	Tracing  *monitoring.TracingProvider
	Hub      *ws.Hub
	Limiter  *security.RateLimiter
	Registry *session.Registry
	Database *Database
	Cache    *Cache
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *config.Config, log *zap.Logger, c Components) {
	serve := func(name string, start func() error) {
		go func() {
			if err := start(); err != nil {
				log.Error("Server stopped", zap.String("server", name), zap.Error(err))
				_ = shutdowner.Shutdown(fx.ExitCode(1))
			}
		}()
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting FusionChef",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
				zap.String("ai_provider", cfg.AI.Provider),
			)

			serve("api", c.Server.Start)
			serve("admin", c.Admin.Start)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down FusionChef")

			if cfg.Server.ShutdownTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
				defer cancel()
			}

			// Close websockets first; Shutdown does not wait for hijacked connections.
			_ = c.Hub.Close()
			if err := c.Server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}
			if err := c.Admin.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown admin server", zap.Error(err))
			}

			c.Limiter.Close()
			if err := c.Tracing.Shutdown(ctx); err != nil {
				log.Error("Failed to flush traces", zap.Error(err))
			}
			if err := c.Cache.Close(); err != nil {
				log.Error("Failed to close cache", zap.Error(err))
			}
			if err := c.Database.Close(); err != nil {
				log.Error("Failed to close database connection", zap.Error(err))
			}

			// Flush logs
			_ = log.Sync()
			return nil
		},
	})
}
