package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_MapsVariables(t *testing.T) {
	t.Setenv("APP_MASTER_PASSWORD", "s3cret")
	t.Setenv("APP_USER_ID", "dr-lee")
	t.Setenv("STORAGE_DB_DATABASE_URI", "/tmp/records.db")
	t.Setenv("REMOTE_BASE_URL", "https://fhir.example.org")
	t.Setenv("REMOTE_REQUEST_TIMEOUT", "30s")
	t.Setenv("REMOTE_USE_FAKE", "true")
	t.Setenv("SYNC_MAX_RETRIES", "4")
	t.Setenv("SYNC_RETRY_CHECK_INTERVAL", "250ms")
	t.Setenv("RETENTION_PHI_TTL", "12h")
	t.Setenv("STATUS_ADDRESS", "localhost:9180")
	t.Setenv("CONFIG", "/etc/medsync/config.json")

	cfg := &AgentConfig{}
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "s3cret", cfg.App.MasterPassword)
	assert.Equal(t, "dr-lee", cfg.App.UserID)
	assert.Equal(t, "/tmp/records.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "https://fhir.example.org", cfg.Remote.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Remote.RequestTimeout)
	assert.True(t, cfg.Remote.UseFake)
	assert.Equal(t, 4, cfg.Sync.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.RetryCheckInterval)
	assert.Equal(t, 12*time.Hour, cfg.Retention.PHITTL)
	assert.Equal(t, "localhost:9180", cfg.Status.HTTPAddress)
	assert.Equal(t, "/etc/medsync/config.json", cfg.JSONFilePath)
}

func TestParseEnv_BadDuration(t *testing.T) {
	t.Setenv("REMOTE_REQUEST_TIMEOUT", "half an hour")

	cfg := &AgentConfig{}
	require.Error(t, parseEnv(cfg))
}

func TestParseEnv_EmptyEnvironmentLeavesZeroValues(t *testing.T) {
	cfg := &AgentConfig{}
	require.NoError(t, parseEnv(cfg))

	assert.Empty(t, cfg.App.MasterPassword)
	assert.Zero(t, cfg.Sync.MaxRetries)
}
