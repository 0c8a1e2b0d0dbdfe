package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	Engine    EngineConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL     string
	APIKey  string
	Enabled bool
}

// EngineConfig holds recommendation engine configuration
type EngineConfig struct {
	// BaseLanguage is the canonical catalog language used as the
	// cross-language bridge when a target-language label has no direct
	// taxonomy match.
	BaseLanguage string

	// ResolverConcurrency bounds the number of category groups whose
	// recovery metadata is resolved in parallel.
	ResolverConcurrency int

	// ResolverTimeout is the per-resolution deadline. A timed-out
	// resolution degrades to "no recovery constraint".
	ResolverTimeout time.Duration

	// ReasonablePriceThreshold is the price (KRW) below which an item
	// earns the full price-band score.
	ReasonablePriceThreshold float64

	// UnconstrainedTopN caps the number of items kept in a group whose
	// recovery metadata could not be resolved at all.
	UnconstrainedTopN int

	// PreferStayDaysForFit makes a positive recommended-stay value drive
	// the itinerary fit decision instead of the maximum recovery days.
	PreferStayDaysForFit bool

	// CacheSize bounds the in-process resolver memoization cache.
	CacheSize int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "glowtrip"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:     getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:  getEnv("TYPESENSE_API_KEY", "xyz"),
			Enabled: getEnvAsBool("TYPESENSE_ENABLED", false),
		},
		Engine: EngineConfig{
			BaseLanguage:             getEnv("ENGINE_BASE_LANGUAGE", "ko"),
			ResolverConcurrency:      getEnvAsInt("ENGINE_RESOLVER_CONCURRENCY", 8),
			ResolverTimeout:          getEnvAsDuration("ENGINE_RESOLVER_TIMEOUT", 3*time.Second),
			ReasonablePriceThreshold: getEnvAsFloat("ENGINE_REASONABLE_PRICE_KRW", 3_000_000),
			UnconstrainedTopN:        getEnvAsInt("ENGINE_UNCONSTRAINED_TOP_N", 20),
			PreferStayDaysForFit:     getEnvAsBool("ENGINE_PREFER_STAY_DAYS_FOR_FIT", false),
			CacheSize:                getEnvAsInt("ENGINE_RESOLVER_CACHE_SIZE", 2048),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "procedure-recommender"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if cfg.Engine.ResolverConcurrency < 1 {
		return nil, fmt.Errorf("ENGINE_RESOLVER_CONCURRENCY must be at least 1")
	}
	if cfg.Engine.CacheSize < 1 {
		return nil, fmt.Errorf("ENGINE_RESOLVER_CACHE_SIZE must be at least 1")
	}

	return cfg, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
