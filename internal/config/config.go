package config

import (
	"time"
)

// AgentConfig is the top-level configuration container for the medsync
// agent. It aggregates all sub-configurations and is populated by merging
// values from environment variables, command-line flags, an optional JSON
// file, and built-in defaults.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type AgentConfig struct {
	// App holds application-level settings such as the vault master
	// password and the application version.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the local encrypted store.
	Storage Storage `envPrefix:"STORAGE_"`

	// Remote holds connection settings for the remote FHIR endpoint.
	Remote Remote `envPrefix:"REMOTE_"`

	// Sync holds retry/backoff and scheduling settings for the sync engine
	// and its background workers.
	Sync Sync `envPrefix:"SYNC_"`

	// Status holds settings for the read-only status HTTP endpoint.
	Status Status `envPrefix:"STATUS_"`

	// Retention holds the per-classification TTL policy applied by the
	// secure store.
	Retention Retention `envPrefix:"RETENTION_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// MasterPassword is the secret the vault key hierarchy is derived
	// from. Must be kept confidential.
	// Env: APP_MASTER_PASSWORD
	MasterPassword string `env:"MASTER_PASSWORD"`

	// UserID identifies the clinician operating this device. Attached to
	// audit events; optional.
	// Env: APP_USER_ID
	UserID string `env:"USER_ID"`

	// Version is the semantic version string of the running agent
	// (e.g. "1.2.3").
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups the configuration for the local persistence backend.
type Storage struct {
	// DB holds the local SQLite settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local SQLite database.
type DB struct {
	// DSN is the SQLite file path (e.g. "/var/lib/medsync/records.db").
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Remote holds connection settings for the remote FHIR endpoint.
type Remote struct {
	// BaseURL is the FHIR server base URL (e.g. "https://fhir.example.org").
	// Env: REMOTE_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// Token is the bearer token presented on every request. Issued by an
	// external auth service; the agent only carries it.
	// Env: REMOTE_TOKEN
	Token string `env:"TOKEN"`

	// RequestTimeout bounds every remote call. There is no mid-call
	// cancellation; a timed-out call counts as a failed attempt.
	// Env: REMOTE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// UseFake selects the in-memory fake endpoint instead of the HTTP one.
	// The choice is made once at construction time.
	// Env: REMOTE_USE_FAKE
	UseFake bool `env:"USE_FAKE"`
}

// Sync holds retry/backoff and scheduling settings.
type Sync struct {
	// MaxRetries is the number of failed attempts after which a queued
	// operation is abandoned.
	// Env: SYNC_MAX_RETRIES
	MaxRetries int `env:"MAX_RETRIES"`

	// InitialBackoff is the wait floor before the first retry.
	// Env: SYNC_INITIAL_BACKOFF
	InitialBackoff time.Duration `env:"INITIAL_BACKOFF"`

	// BackoffMultiplier scales the backoff after each failure.
	// Env: SYNC_BACKOFF_MULTIPLIER
	BackoffMultiplier int `env:"BACKOFF_MULTIPLIER"`

	// MaxBackoff caps the backoff growth.
	// Env: SYNC_MAX_BACKOFF
	MaxBackoff time.Duration `env:"MAX_BACKOFF"`

	// RetryCheckInterval is how often the drain worker looks for ready
	// queue items.
	// Env: SYNC_RETRY_CHECK_INTERVAL
	RetryCheckInterval time.Duration `env:"RETRY_CHECK_INTERVAL"`

	// PurgeInterval is how often expired records are purged.
	// Env: SYNC_PURGE_INTERVAL
	PurgeInterval time.Duration `env:"PURGE_INTERVAL"`

	// ProbeInterval is how often the network monitor probes connectivity.
	// Env: SYNC_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`
}

// Status holds settings for the read-only status HTTP endpoint.
type Status struct {
	// HTTPAddress is the TCP address the status server listens on, in
	// "host:port" format. Empty disables the endpoint.
	// Env: STATUS_ADDRESS
	HTTPAddress string `env:"ADDRESS"`
}

// Retention holds the per-classification TTL policy. A zero value for a
// tier means records of that tier never expire.
type Retention struct {
	// Env: RETENTION_PHI_TTL
	PHITTL time.Duration `env:"PHI_TTL"`

	// Env: RETENTION_SENSITIVE_TTL
	SensitiveTTL time.Duration `env:"SENSITIVE_TTL"`

	// Env: RETENTION_GENERAL_TTL
	GeneralTTL time.Duration `env:"GENERAL_TTL"`
}

// GetAgentConfig loads, merges, and validates the agent configuration from
// all available sources in the following priority order (earlier sources win
// for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// Returns a fully populated *AgentConfig or an error if any source fails to
// load or the final config fails validation.
func GetAgentConfig() (*AgentConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
}
