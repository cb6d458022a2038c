package config

import (
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"
)

type configBuilder struct {
	configs []*AgentConfig
	err     error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{
		configs: make([]*AgentConfig, 0, 4),
	}
}

func (b *configBuilder) build() (*AgentConfig, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occured during building config: %w", b.err)
	}

	config := new(AgentConfig)
	for _, cfg := range b.configs {
		if err := mergo.Merge(config, cfg); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	return config, config.validate()
}

func (b *configBuilder) withEnv() *configBuilder {
	envCfg := &AgentConfig{}
	if err := parseEnv(envCfg); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.configs = append(b.configs, envCfg)
	return b
}

func (b *configBuilder) withFlags() *configBuilder {
	flags := ParseFlags()

	b.configs = append(b.configs, flags)
	return b
}

func (b *configBuilder) withJSON() *configBuilder {
	var jsonPath string
	isJSONSpecified := false

	for _, cfg := range b.configs {
		if cfg.JSONFilePath != "" {
			isJSONSpecified = true
			jsonPath = cfg.JSONFilePath
		}
	}

	if isJSONSpecified {
		jsonCfg, err := parseJSON(jsonPath)
		if err != nil {
			b.err = errors.Join(b.err, err)
			return b
		}
		b.configs = append(b.configs, jsonCfg)
	}

	return b
}

// withDefaults appends the built-in defaults as the lowest-priority source.
// mergo only fills fields that every earlier source left at their zero value.
func (b *configBuilder) withDefaults() *configBuilder {
	b.configs = append(b.configs, defaultConfig())
	return b
}

func defaultConfig() *AgentConfig {
	return &AgentConfig{
		Remote: Remote{
			RequestTimeout: 15 * time.Second,
		},
		Sync: Sync{
			MaxRetries:         3,
			InitialBackoff:     time.Second,
			BackoffMultiplier:  2,
			MaxBackoff:         30 * time.Second,
			RetryCheckInterval: 500 * time.Millisecond,
			PurgeInterval:      time.Minute,
			ProbeInterval:      10 * time.Second,
		},
		Retention: Retention{
			PHITTL:       24 * time.Hour,
			SensitiveTTL: 7 * 24 * time.Hour,
			GeneralTTL:   30 * 24 * time.Hour,
		},
	}
}
