package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the route search service and CLI
type Config struct {
	// HTTP
	Port           string   `yaml:"port" validate:"required,numeric"`
	AllowedOrigins []string `yaml:"allowed_origins" validate:"dive,required"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int      `yaml:"rate_limit_burst" validate:"gte=0"`

	// Storage
	SQLiteDatabase string `yaml:"sqlite_database" validate:"required_without=DatabaseURL"`
	DatabaseURL    string `yaml:"database_url"`

	// Catalog and search
	CatalogRefreshSeconds int `yaml:"catalog_refresh_seconds" validate:"gte=0"`
	SearchTimeoutMS       int `yaml:"search_timeout_ms" validate:"gt=0"`
	MaxTransfers          int `yaml:"max_transfers" validate:"gte=0,lte=2"`
	SearchMaxConcurrent   int `yaml:"search_max_concurrent" validate:"gte=0"`

	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		Port:                  "5000",
		AllowedOrigins:        []string{"http://localhost:5173"},
		RateLimitRPS:          10,
		RateLimitBurst:        20,
		SQLiteDatabase:        "./data/routes.db",
		CatalogRefreshSeconds: 300,
		SearchTimeoutMS:       2000,
		MaxTransfers:          2,
		SearchMaxConcurrent:   32,
		LogLevel:              "info",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// BUSROUTES_CONFIG (if any), then environment variables, and validates the
// result.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("BUSROUTES_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.SQLiteDatabase = getEnv("SQLITE_DATABASE", cfg.SQLiteDatabase)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.CatalogRefreshSeconds = getEnvInt("CATALOG_REFRESH_SECONDS", cfg.CatalogRefreshSeconds)
	cfg.SearchTimeoutMS = getEnvInt("SEARCH_TIMEOUT_MS", cfg.SearchTimeoutMS)
	cfg.MaxTransfers = getEnvInt("SEARCH_MAX_TRANSFERS", cfg.MaxTransfers)
	cfg.SearchMaxConcurrent = getEnvInt("SEARCH_MAX_CONCURRENT", cfg.SearchMaxConcurrent)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// CatalogRefresh is the catalog reload interval; zero disables reloading.
func (c *Config) CatalogRefresh() time.Duration {
	return time.Duration(c.CatalogRefreshSeconds) * time.Second
}

func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutMS) * time.Millisecond
}

// UsePostgres reports whether the catalog lives in Postgres instead of SQLite
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// NewLogger returns a text logger on stderr at the given level
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
