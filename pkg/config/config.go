package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env        string
	LogLevel   string
	Server     ServerConfig
	Storage    StorageConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Generation GenerationConfig
	Session    SessionConfig
	OTEL       OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins string
}

// StorageConfig selects the content store backend.
type StorageConfig struct {
	// Driver is "postgres" or "memory".
	Driver string
	// SeedFile optionally names a YAML file of doctor profiles loaded at start.
	SeedFile string
	// AutoMigrate creates missing tables on start.
	AutoMigrate bool
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
	Enabled    bool
	Host       string
	Port       int
	Password   string
	DB         int
	ContentTTL time.Duration
}

// GenerationConfig holds the text-generation endpoint configuration.
type GenerationConfig struct {
	// Provider is "openai" (any chat-completions compatible endpoint) or "gemini".
	Provider         string
	APIKey           string
	Model            string
	BaseURL          string
	MaxTokens        int
	Timeout          time.Duration
	RateLimitRPM     int
	RateLimitBurst   int
	BreakerThreshold int
	BreakerCooldown  time.Duration
	GeminiAPIKey     string
	GeminiModel      string
}

// SessionConfig bounds the in-process page session registry.
type SessionConfig struct {
	TTL     time.Duration
	MaxSize int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// LoadEnvFile reads a .env file from the working directory into the
// environment when present. Variables already set are kept.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Load loads configuration from environment variables. Call LoadEnvFile
// first to pick up a local .env file.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		},
		Storage: StorageConfig{
			Driver:      getEnv("STORAGE_DRIVER", "postgres"),
			SeedFile:    getEnv("STORAGE_SEED_FILE", ""),
			AutoMigrate: getEnvAsBool("STORAGE_AUTO_MIGRATE", true),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "clinic_leads"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:    getEnvAsBool("REDIS_ENABLED", true),
			Host:       getEnv("REDIS_HOST", "localhost"),
			Port:       getEnvAsInt("REDIS_PORT", 6379),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			ContentTTL: getEnvAsDuration("REDIS_CONTENT_TTL", 10*time.Minute),
		},
		Generation: GenerationConfig{
			Provider:         getEnv("GENERATION_PROVIDER", "openai"),
			APIKey:           getEnv("GENERATION_API_KEY", os.Getenv("OPENAI_API_KEY")),
			Model:            getEnv("GENERATION_MODEL", "gpt-4o-mini"),
			BaseURL:          getEnv("GENERATION_BASE_URL", "https://api.openai.com/v1"),
			MaxTokens:        getEnvAsInt("GENERATION_MAX_TOKENS", 2000),
			Timeout:          getEnvAsDuration("GENERATION_TIMEOUT", 60*time.Second),
			RateLimitRPM:     getEnvAsInt("GENERATION_RATE_LIMIT_RPM", 60),
			RateLimitBurst:   getEnvAsInt("GENERATION_RATE_LIMIT_BURST", 5),
			BreakerThreshold: getEnvAsInt("GENERATION_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  getEnvAsDuration("GENERATION_BREAKER_COOLDOWN", 30*time.Second),
			GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
			GeminiModel:      getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Session: SessionConfig{
			TTL:     getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			MaxSize: getEnvAsInt("SESSION_MAX_SIZE", 10000),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "clinic-leads"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	switch cfg.Storage.Driver {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
	switch cfg.Generation.Provider {
	case "openai", "gemini":
	default:
		return nil, fmt.Errorf("unsupported GENERATION_PROVIDER %q", cfg.Generation.Provider)
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
