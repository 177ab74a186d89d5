// Package config loads service configuration from the environment,
// honoring a local .env file when present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries everything the server needs to start.
type Config struct {
	// Addr is the HTTP/WebSocket listen address.
	Addr string
	// DatabaseURL points at Postgres; empty selects the in-memory store.
	DatabaseURL string
	// RedisAddr points at Redis; empty disables the cross-process feed.
	RedisAddr string
	// JWTSecret is the identity provider's shared signing secret.
	JWTSecret string
	// LedgerURL is the payout endpoint; empty selects the log-only ledger.
	LedgerURL string
	// MaxCommitRetries bounds optimistic-concurrency retries per action.
	MaxCommitRetries int
	// LogLevel is a logrus level name.
	LogLevel string
}

// Load reads configuration from the environment. A missing .env file is
// not an error; a malformed numeric variable is.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:             getEnv("SCAMBODIA_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		LedgerURL:        os.Getenv("LEDGER_URL"),
		MaxCommitRetries: 5,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	if raw := os.Getenv("MAX_COMMIT_RETRIES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid MAX_COMMIT_RETRIES %q", raw)
		}
		cfg.MaxCommitRetries = n
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
