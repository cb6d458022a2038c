package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// AgentJSONConfig mirrors [AgentConfig] with JSON tags and string-friendly
// durations, so operators can keep a readable config file alongside env vars.
type AgentJSONConfig struct {
	App struct {
		MasterPassword string `json:"master_password"`
		UserID         string `json:"user_id"`
		Version        string `json:"version"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Remote struct {
		BaseURL        string   `json:"base_url"`
		Token          string   `json:"token"`
		RequestTimeout Duration `json:"request_timeout"`
		UseFake        bool     `json:"use_fake"`
	} `json:"remote,omitempty"`

	Sync struct {
		MaxRetries         int      `json:"max_retries"`
		InitialBackoff     Duration `json:"initial_backoff"`
		BackoffMultiplier  int      `json:"backoff_multiplier"`
		MaxBackoff         Duration `json:"max_backoff"`
		RetryCheckInterval Duration `json:"retry_check_interval"`
		PurgeInterval      Duration `json:"purge_interval"`
		ProbeInterval      Duration `json:"probe_interval"`
	} `json:"sync,omitempty"`

	Status struct {
		HTTPAddress string `json:"http_address"`
	} `json:"status,omitempty"`

	Retention struct {
		PHITTL       Duration `json:"phi_ttl"`
		SensitiveTTL Duration `json:"sensitive_ttl"`
		GeneralTTL   Duration `json:"general_ttl"`
	} `json:"retention,omitempty"`
}

func parseJSON(jsonFilePath string) (*AgentConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg AgentJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &AgentConfig{
		App: App{
			MasterPassword: jsonCfg.App.MasterPassword,
			UserID:         jsonCfg.App.UserID,
			Version:        jsonCfg.App.Version,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
		},
		Remote: Remote{
			BaseURL:        jsonCfg.Remote.BaseURL,
			Token:          jsonCfg.Remote.Token,
			RequestTimeout: time.Duration(jsonCfg.Remote.RequestTimeout),
			UseFake:        jsonCfg.Remote.UseFake,
		},
		Sync: Sync{
			MaxRetries:         jsonCfg.Sync.MaxRetries,
			InitialBackoff:     time.Duration(jsonCfg.Sync.InitialBackoff),
			BackoffMultiplier:  jsonCfg.Sync.BackoffMultiplier,
			MaxBackoff:         time.Duration(jsonCfg.Sync.MaxBackoff),
			RetryCheckInterval: time.Duration(jsonCfg.Sync.RetryCheckInterval),
			PurgeInterval:      time.Duration(jsonCfg.Sync.PurgeInterval),
			ProbeInterval:      time.Duration(jsonCfg.Sync.ProbeInterval),
		},
		Status: Status{
			HTTPAddress: jsonCfg.Status.HTTPAddress,
		},
		Retention: Retention{
			PHITTL:       time.Duration(jsonCfg.Retention.PHITTL),
			SensitiveTTL: time.Duration(jsonCfg.Retention.SensitiveTTL),
			GeneralTTL:   time.Duration(jsonCfg.Retention.GeneralTTL),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
