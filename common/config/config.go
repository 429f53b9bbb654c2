package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service  ServiceConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Assets   AssetsConfig
	Render   RenderConfig
	Enrich   EnrichConfig
	Cleanup  CleanupConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds Redis settings for the enrichment cache
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	CacheTTL time.Duration
}

// AssetsConfig holds asset store settings
type AssetsConfig struct {
	Root string
}

// RenderConfig holds headless browser settings
type RenderConfig struct {
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
}

// EnrichConfig holds AI analysis endpoint settings
type EnrichConfig struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// CleanupConfig holds asset deletion and sweep settings
type CleanupConfig struct {
	SweepInterval    time.Duration
	DeleteRetries    int
	DeleteRetryDelay time.Duration
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "pindrop"),
			User:        getEnv("POSTGRES_USER", "pindrop"),
			Password:    getEnv("POSTGRES_PASSWORD", "pindrop"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 20),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 2),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			CacheTTL: getEnvDuration("ENRICH_CACHE_TTL", 24*time.Hour),
		},
		Assets: AssetsConfig{
			Root: getEnv("UPLOADS_DIR", "uploads"),
		},
		Render: RenderConfig{
			Timeout:        getEnvDuration("RENDER_TIMEOUT", 45*time.Second),
			ViewportWidth:  getEnvInt("RENDER_VIEWPORT_WIDTH", 1440),
			ViewportHeight: getEnvInt("RENDER_VIEWPORT_HEIGHT", 718),
		},
		Enrich: EnrichConfig{
			Endpoint: getEnv("OPENAI_API_ENDPOINT", ""),
			APIKey:   getEnv("OPENAI_API_KEY", ""),
			Model:    getEnv("OPENAI_API_MODEL", "gpt-4o-mini"),
			Timeout:  getEnvDuration("ENRICH_TIMEOUT", 30*time.Second),
		},
		Cleanup: CleanupConfig{
			SweepInterval:    getEnvDuration("CLEANUP_SWEEP_INTERVAL", 5*time.Minute),
			DeleteRetries:    getEnvInt("ASSET_DELETE_RETRIES", 3),
			DeleteRetryDelay: getEnvDuration("ASSET_DELETE_RETRY_DELAY", 500*time.Millisecond),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Assets.Root == "" {
		return fmt.Errorf("uploads directory is required")
	}

	if c.Render.ViewportWidth < 1 || c.Render.ViewportHeight < 1 {
		return fmt.Errorf("invalid render viewport: %dx%d", c.Render.ViewportWidth, c.Render.ViewportHeight)
	}

	if c.Cleanup.DeleteRetries < 1 {
		return fmt.Errorf("asset delete retries must be >= 1")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns the Redis host:port address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
