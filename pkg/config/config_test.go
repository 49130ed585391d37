package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/screener")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 14, cfg.Fetch.WindowDays)
	assert.Equal(t, 5, cfg.Fetch.Workers)
	assert.Equal(t, 500, cfg.Fetch.HistoryWindow)
	assert.Equal(t, 20*time.Second, cfg.Fetch.SymbolTimeout)
	assert.Equal(t, 400, cfg.RetentionDays)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/screener")
	t.Setenv("ENV", "qa")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadWorkerCount(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/screener")
	t.Setenv("FETCH_WORKERS", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, getEnvAsInt("TEST_INT", 7))
	assert.Equal(t, 7, getEnvAsInt("TEST_INT_MISSING", 7))

	t.Setenv("TEST_INT_BAD", "not-a-number")
	assert.Equal(t, 7, getEnvAsInt("TEST_INT_BAD", 7))
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	assert.True(t, getEnvAsBool("TEST_BOOL", false))
	assert.False(t, getEnvAsBool("TEST_BOOL_MISSING", false))
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DUR", "90s")
	assert.Equal(t, 90*time.Second, getEnvAsDuration("TEST_DUR", "10s"))
	assert.Equal(t, 10*time.Second, getEnvAsDuration("TEST_DUR_MISSING", "10s"))

	t.Setenv("TEST_DUR_BAD", "soon")
	assert.Equal(t, 10*time.Second, getEnvAsDuration("TEST_DUR_BAD", "10s"))
}

func TestGetEnvAsFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "2.5")
	assert.Equal(t, 2.5, getEnvAsFloat("TEST_FLOAT", 1.0))
	assert.Equal(t, 1.0, getEnvAsFloat("TEST_FLOAT_MISSING", 1.0))
}
