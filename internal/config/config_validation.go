package config

import "strings"

// validate checks that the final merged [AgentConfig] satisfies all agent
// invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or one of the sentinel errors
// from errors.go otherwise.
func (cfg *AgentConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if !cfg.Remote.UseFake && cfg.Remote.BaseURL == "" {
		return ErrInvalidRemoteConfigs
	}
	if cfg.Remote.RequestTimeout <= 0 {
		return ErrInvalidRemoteConfigs
	}

	if cfg.App.MasterPassword == "" {
		return ErrInvalidAppConfigs
	}

	if cfg.Sync.MaxRetries <= 0 || cfg.Sync.BackoffMultiplier < 2 {
		return ErrInvalidSyncConfigs
	}
	if cfg.Sync.InitialBackoff <= 0 || cfg.Sync.MaxBackoff < cfg.Sync.InitialBackoff {
		return ErrInvalidSyncConfigs
	}
	if cfg.Sync.RetryCheckInterval <= 0 || cfg.Sync.PurgeInterval <= 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}
