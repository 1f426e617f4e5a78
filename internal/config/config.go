package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config carries all runtime settings, loaded from the environment
// with an optional .env file.
type Config struct {
	DatabaseURL  string
	RedisAddr    string
	QuoteBaseURL string
	QuoteTimeout time.Duration
	QuoteTTL     time.Duration
	JWTSecret    string
	ListenAddr   string
	LogLevel     string
	RefreshEvery string
}

// Load reads configuration. A missing .env file is not an error; a
// missing JWT secret or database URL is.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisAddr:    getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		QuoteBaseURL: getEnv("QUOTE_BASE_URL", "http://localhost:9090"),
		QuoteTimeout: getDuration("QUOTE_TIMEOUT", 5*time.Second),
		QuoteTTL:     getDuration("QUOTE_CACHE_TTL", time.Minute),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		RefreshEvery: getEnv("PRICE_REFRESH_EVERY", "@every 5m"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
