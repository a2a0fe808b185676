// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	AI         AIConfig         `mapstructure:"ai"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Session    SessionConfig    `mapstructure:"session"`
	Feed       FeedConfig       `mapstructure:"feed"`
	Generation GenerationConfig `mapstructure:"generation"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	EnableCORS        bool          `mapstructure:"enable_cors"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	EnableCompression bool          `mapstructure:"enable_compression"`
}

// DatabaseConfig contains database configuration.
// Driver is one of sqlite, postgres, memory or none (local mode, nothing persisted).
type DatabaseConfig struct {
	Driver             string        `mapstructure:"driver"`
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Database           string        `mapstructure:"database"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	SSLMode            string        `mapstructure:"ssl_mode"`
	SQLitePath         string        `mapstructure:"sqlite_path"`
	ReadReplicas       []string      `mapstructure:"read_replicas"`
	MaxOpenConns       int           `mapstructure:"max_open_conns"`
	MaxIdleConns       int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel           string        `mapstructure:"log_level"`
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`
	AutoMigrate        bool          `mapstructure:"auto_migrate"`
}

// RedisConfig contains Redis configuration. Redis is optional; without it caches,
// redirect snapshots and token revocations stay in process memory.
type RedisConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Password        string        `mapstructure:"password"`
	Database        int           `mapstructure:"database"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	EnableCluster   bool          `mapstructure:"enable_cluster"`
	ClusterNodes    []string      `mapstructure:"cluster_nodes"`
	RecipeCacheTTL  time.Duration `mapstructure:"recipe_cache_ttl"`
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTExpiration time.Duration `mapstructure:"jwt_expiration"`
	Issuer        string        `mapstructure:"issuer"`
	// AuthorizeURL is the identity provider login page; the state nonce is appended
	AuthorizeURL string `mapstructure:"authorize_url"`
	// CallbackURL is where the provider sends the user back
	CallbackURL string `mapstructure:"callback_url"`
	// DevCallback trusts identity fields in the callback query; never enable in production
	DevCallback bool `mapstructure:"dev_callback"`
}

// AIConfig contains AI service configuration
type AIConfig struct {
	Provider       string        `mapstructure:"provider"`
	GeminiAPIKey   string        `mapstructure:"gemini_api_key"`
	TextModel      string        `mapstructure:"text_model"`
	ImageModel     string        `mapstructure:"image_model"`
	OllamaHost     string        `mapstructure:"ollama_host"`
	OllamaModel    string        `mapstructure:"ollama_model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StorageConfig contains object storage configuration for generated images.
// Provider is one of minio, s3 or none (images are kept as data URIs).
type StorageConfig struct {
	Provider        string `mapstructure:"provider"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	KeyPrefix       string `mapstructure:"key_prefix"`
}

// SessionConfig controls the wizard session registry
type SessionConfig struct {
	MaxSessions int           `mapstructure:"max_sessions"`
	IdleTTL     time.Duration `mapstructure:"idle_ttl"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
	// ServerHistory mirrors navigation to a server-side history stack. When false the
	// client owns browser history and reports restores.
	ServerHistory bool `mapstructure:"server_history"`
}

// FeedConfig controls the community feed controller
type FeedConfig struct {
	PageSize       int           `mapstructure:"page_size"`
	DebounceWindow time.Duration `mapstructure:"debounce_window"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
}

// GenerationConfig controls the recipe pipeline
type GenerationConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	ImageTimeout time.Duration `mapstructure:"image_timeout"`
	SaveTimeout  time.Duration `mapstructure:"save_timeout"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics   bool    `mapstructure:"enable_metrics"`
	MetricsPort     int     `mapstructure:"metrics_port"`
	EnableTracing   bool    `mapstructure:"enable_tracing"`
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	SamplingRate    float64 `mapstructure:"sampling_rate"`
	HealthCheckPath string  `mapstructure:"health_check_path"`
	ReadinessPath   string  `mapstructure:"readiness_path"`
}

// RateLimitConfig limits generation requests per client
type RateLimitConfig struct {
	Enable          bool          `mapstructure:"enable"`
	RequestsPerMin  int           `mapstructure:"requests_per_min"`
	BurstSize       int           `mapstructure:"burst_size"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/fusionchef")
	}

	v.SetEnvPrefix("FUSIONCHEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "FusionChef")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "110s")
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.enable_compression", true)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "fusionchef")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.sqlite_path", "fusionchef.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_query_threshold", "200ms")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.recipe_cache_ttl", "10m")

	v.SetDefault("auth.jwt_expiration", "24h")
	v.SetDefault("auth.issuer", "fusionchef")
	v.SetDefault("auth.authorize_url", "http://localhost:8080/api/v1/auth/callback")
	v.SetDefault("auth.dev_callback", true)

	v.SetDefault("ai.provider", "mock")
	v.SetDefault("ai.text_model", "gemini-3-flash-preview")
	v.SetDefault("ai.image_model", "gemini-2.5-flash-image")
	v.SetDefault("ai.ollama_host", "http://localhost:11434")
	v.SetDefault("ai.ollama_model", "llama3.2:3b")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.max_retries", 2)
	v.SetDefault("ai.retry_backoff", "500ms")
	v.SetDefault("ai.request_timeout", "60s")

	v.SetDefault("storage.provider", "none")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "fusionchef-images")
	v.SetDefault("storage.key_prefix", "recipes")

	v.SetDefault("session.max_sessions", 10000)
	v.SetDefault("session.idle_ttl", "2h")
	v.SetDefault("session.snapshot_ttl", "10m")
	v.SetDefault("session.server_history", true)

	v.SetDefault("feed.page_size", 10)
	v.SetDefault("feed.debounce_window", "300ms")
	v.SetDefault("feed.fetch_timeout", "10s")

	v.SetDefault("generation.timeout", "90s")
	v.SetDefault("generation.image_timeout", "45s")
	v.SetDefault("generation.save_timeout", "10s")

	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_port", 9090)
	v.SetDefault("monitoring.sampling_rate", 0.1)
	v.SetDefault("monitoring.health_check_path", "/health")
	v.SetDefault("monitoring.readiness_path", "/ready")

	v.SetDefault("rate_limit.enable", true)
	v.SetDefault("rate_limit.requests_per_min", 10)
	v.SetDefault("rate_limit.burst_size", 3)
	v.SetDefault("rate_limit.cleanup_interval", "5m")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	switch c.Database.Driver {
	case "sqlite", "memory", "none":
	case "postgres":
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}

	switch c.AI.Provider {
	case "gemini":
		if c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("ai.gemini_api_key is required for the gemini provider")
		}
	case "ollama", "mock":
	default:
		return fmt.Errorf("ai.provider %q is not supported", c.AI.Provider)
	}

	switch c.Storage.Provider {
	case "none", "minio", "s3":
	default:
		return fmt.Errorf("storage.provider %q is not supported", c.Storage.Provider)
	}

	if c.IsProduction() {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required in production")
		}
		if c.Auth.DevCallback {
			return fmt.Errorf("auth.dev_callback must be disabled in production")
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Feed.PageSize < 1 {
		return fmt.Errorf("feed.page_size must be positive")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// GetDSN returns the postgres connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Username,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetDatabaseURL returns the postgres URL form used by golang-migrate and pgx
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.Username,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// RedisAddr returns host:port
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
