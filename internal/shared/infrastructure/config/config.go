package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/quickbiz/quickbiz-api/internal/shared/infrastructure/database"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  database.PostgresConfig
	Redis     database.RedisConfig
	JWT       JWTConfig
	Migration MigrationConfig
	Analytics AnalyticsConfig
}

// AppConfig holds process-wide settings
type AppConfig struct {
	Env string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins string
}

// JWTConfig holds the secret used to validate dashboard bearer tokens.
// Tokens are issued by the account service, never by this one.
type JWTConfig struct {
	Secret string
}

// MigrationConfig controls schema migrations on startup
type MigrationConfig struct {
	Path        string
	AutoMigrate bool
}

// AnalyticsConfig holds analytics aggregation settings
type AnalyticsConfig struct {
	// Timezone decides which calendar date an event belongs to.
	Timezone string
	CacheTTL time.Duration
	// RedisEnabled turns on the period cache and unique visitor tracking.
	RedisEnabled bool
}

// LoadDotEnv loads variables from a .env file when one is present.
// A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}

// Load reads configuration from environment variables
func Load() Config {
	return Config{
		App: AppConfig{
			Env: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:4200"),
		},
		Database: database.PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "quickbiz"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: database.RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "default-dev-secret"),
		},
		Migration: MigrationConfig{
			Path:        getEnv("MIGRATIONS_PATH", "db/migrations"),
			AutoMigrate: getEnv("AUTO_MIGRATE", "true") == "true",
		},
		Analytics: AnalyticsConfig{
			Timezone:     getEnv("ANALYTICS_TIMEZONE", "UTC"),
			CacheTTL:     parseDuration(getEnv("ANALYTICS_CACHE_TTL", "30s"), 30*time.Second),
			RedisEnabled: getEnv("ANALYTICS_REDIS_ENABLED", "true") == "true",
		},
	}
}

// Location resolves the analytics timezone. An unknown zone is an error:
// falling back would file every event under the wrong date.
func (c AnalyticsConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYTICS_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration string or returns a default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

func parseInt(value string, defaultValue int) int {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return defaultValue
}
