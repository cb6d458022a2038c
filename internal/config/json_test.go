package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseJSON_FullConfig(t *testing.T) {
	path := writeTempJSON(t, `{
		"app": {"master_password": "s3cret", "user_id": "dr-lee", "version": "1.2.3"},
		"storage": {"db": {"dsn": "/tmp/records.db"}},
		"remote": {"base_url": "https://fhir.example.org", "token": "tok", "request_timeout": "30s"},
		"sync": {"max_retries": 5, "initial_backoff": "2s", "backoff_multiplier": 2, "max_backoff": "1m",
			"retry_check_interval": "500ms", "purge_interval": "1m", "probe_interval": "10s"},
		"status": {"http_address": "localhost:9180"},
		"retention": {"phi_ttl": "24h", "sensitive_ttl": "168h", "general_ttl": "720h"}
	}`)

	cfg, err := parseJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.App.MasterPassword)
	assert.Equal(t, "dr-lee", cfg.App.UserID)
	assert.Equal(t, "/tmp/records.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "https://fhir.example.org", cfg.Remote.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Remote.RequestTimeout)
	assert.Equal(t, 5, cfg.Sync.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Sync.InitialBackoff)
	assert.Equal(t, time.Minute, cfg.Sync.MaxBackoff)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.RetryCheckInterval)
	assert.Equal(t, "localhost:9180", cfg.Status.HTTPAddress)
	assert.Equal(t, 24*time.Hour, cfg.Retention.PHITTL)
}

func TestParseJSON_FileMissing(t *testing.T) {
	_, err := parseJSON(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestParseJSON_MalformedJSON(t *testing.T) {
	path := writeTempJSON(t, `{"app": `)
	_, err := parseJSON(path)
	require.Error(t, err)
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{name: "string form", raw: `"1h30m"`, want: 90 * time.Minute},
		{name: "numeric nanoseconds", raw: `1000000000`, want: time.Second},
		{name: "bad string", raw: `"not-a-duration"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.raw), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(Duration(30 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"30s"`, string(out))
}
