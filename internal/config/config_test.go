// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SCAMBODIA_ADDR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LEDGER_URL", "")
	t.Setenv("MAX_COMMIT_RETRIES", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 5, cfg.MaxCommitRetries)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SCAMBODIA_ADDR", ":9999")
	t.Setenv("MAX_COMMIT_RETRIES", "8")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 8, cfg.MaxCommitRetries)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsBadInput(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MAX_COMMIT_RETRIES", "zero")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("MAX_COMMIT_RETRIES", "-1")
	_, err = Load()
	require.Error(t, err)
}
