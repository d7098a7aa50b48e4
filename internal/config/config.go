// Package config loads application settings from environment variables.
// cmd/api and cmd/salesctl call godotenv first so a local .env file feeds
// the same variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Import   ImportConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port    string
	AppName string
}

type DatabaseConfig struct {
	// Driver is "postgres" (default) or "sqlite".
	Driver          string
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
	LogLevel        string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	// Seeded on first start when no user with this name exists.
	AdminUsername string
	AdminPassword string
}

type ImportConfig struct {
	// Workers bounds the number of rows upserted concurrently.
	Workers     int
	MaxFileSize int64
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads the configuration. Precedence: explicit env var > default.
func Load() (Config, error) {
	var cfg Config
	var err error

	cfg.Server.Port = getEnv("PORT", "3000")
	cfg.Server.AppName = getEnv("APP_NAME", "Sales CRM v1.0")

	cfg.Database.Driver = getEnv("DB_DRIVER", "postgres")
	cfg.Database.URL = os.Getenv("DATABASE_URL")
	if cfg.Database.URL == "" && cfg.Database.Driver == "postgres" {
		cfg.Database.URL = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=America/Santiago",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_USER", "postgres"),
			os.Getenv("DB_PASSWORD"),
			getEnv("DB_NAME", "sales"),
			getEnv("DB_PORT", "5432"),
		)
	}
	if cfg.Database.URL == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.URL = "sales.db"
	}
	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return cfg, fmt.Errorf("DB_DRIVER: unsupported driver %q", cfg.Database.Driver)
	}
	if cfg.Database.MaxIdleConns, err = getInt("DB_MAX_IDLE_CONNS", 10); err != nil {
		return cfg, err
	}
	if cfg.Database.MaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", 100); err != nil {
		return cfg, err
	}
	if cfg.Database.ConnMaxLifetime, err = getDuration("DB_CONN_MAX_LIFETIME", time.Hour); err != nil {
		return cfg, err
	}
	if cfg.Database.SlowThreshold, err = getDuration("DB_SLOW_THRESHOLD", time.Second); err != nil {
		return cfg, err
	}
	cfg.Database.LogLevel = getEnv("DB_LOG_LEVEL", "warn")

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", "your-super-secret-key-change-in-production")
	if cfg.Auth.TokenTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return cfg, err
	}
	cfg.Auth.AdminUsername = getEnv("ADMIN_USERNAME", "admin")
	cfg.Auth.AdminPassword = getEnv("ADMIN_PASSWORD", "admin123")

	if cfg.Import.Workers, err = getInt("IMPORT_WORKERS", 8); err != nil {
		return cfg, err
	}
	if cfg.Import.Workers < 1 {
		return cfg, fmt.Errorf("IMPORT_WORKERS: must be at least 1, got %d", cfg.Import.Workers)
	}
	maxSize, err := getInt("IMPORT_MAX_FILE_SIZE", 10*1024*1024)
	if err != nil {
		return cfg, err
	}
	cfg.Import.MaxFileSize = int64(maxSize)

	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnv("LOG_FORMAT", "text")

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}
