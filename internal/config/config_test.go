package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.SyncInterval)
	assert.Equal(t, 24*time.Hour, cfg.SyncFrequency)
	assert.Equal(t, "http://localhost:9200", cfg.ElasticURL)
	assert.NotEmpty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9999")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("SYNC_INTERVAL", "30s")
	t.Setenv("SYNC_FREQUENCY", "2h")
	t.Setenv("DATABASE_URL", "postgres://example/db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
	assert.Equal(t, 2*time.Hour, cfg.SyncFrequency)
	assert.Equal(t, "postgres://example/db", cfg.DatabaseURL)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SYNC_INTERVAL", "often")

	_, err := Load()
	assert.Error(t, err)
}
