// Package config loads the CLI-facing RunConfig from a YAML file via
// viper. This is distinct from the programmatic Builder in the root
// package: the core engine's own constraint validation happens there, via
// panics, exactly as spec'd; this package only validates the file-driven
// wrapper the cmd/pacer binary reads before calling it.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// RunConfig is the file-driven descriptor for a single pacer invocation.
type RunConfig struct {
	Scenario string `mapstructure:"scenario"`
	Duration string `mapstructure:"duration"`

	TPS       uint32  `mapstructure:"tps"`
	ErrorRate float64 `mapstructure:"error_rate"`

	Latency struct {
		Target   string  `mapstructure:"target"`
		Quantile float64 `mapstructure:"quantile"`
	} `mapstructure:"latency"`

	Hint struct {
		StartingTPS         uint32  `mapstructure:"starting_tps"`
		StartingConcurrency int     `mapstructure:"starting_concurrency"`
		LatencyKp           float64 `mapstructure:"latency_kp"`
		Burst               int     `mapstructure:"burst"`
		WarmupSamples       int     `mapstructure:"warmup_samples"`
	} `mapstructure:"hint"`

	Postgres struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Database string `mapstructure:"database"`
		SSLMode  string `mapstructure:"sslmode"`
		Query    string `mapstructure:"query"`
	} `mapstructure:"postgres"`

	Logging LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig mirrors internal/logging.LoggerConfig's fields for the
// file-driven schema, so cmd/pacer can convert it directly.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Output      string `mapstructure:"output"`
	Development bool   `mapstructure:"development"`
}

// Load reads and validates a RunConfig from configFile.
func Load(configFile string) (*RunConfig, error) {
	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg RunConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func validateConfig(cfg *RunConfig) error {
	if cfg.Scenario == "" {
		return fmt.Errorf("scenario name is required")
	}

	if cfg.Duration != "" {
		if _, err := time.ParseDuration(cfg.Duration); err != nil {
			return fmt.Errorf("invalid duration format: %s", cfg.Duration)
		}
	}

	hasConstraint := cfg.TPS > 0 || cfg.ErrorRate > 0 || cfg.Latency.Target != ""
	if !hasConstraint {
		return fmt.Errorf("at least one of tps, error_rate, or latency must be set")
	}

	if cfg.ErrorRate < 0 || cfg.ErrorRate > 1 {
		return fmt.Errorf("error_rate must be in [0,1], got: %v", cfg.ErrorRate)
	}

	if cfg.Latency.Target != "" {
		if _, err := time.ParseDuration(cfg.Latency.Target); err != nil {
			return fmt.Errorf("invalid latency target format: %s", cfg.Latency.Target)
		}
		if cfg.Latency.Quantile < 0 || cfg.Latency.Quantile > 1 {
			return fmt.Errorf("latency quantile must be in [0,1], got: %v", cfg.Latency.Quantile)
		}
	}

	if cfg.Postgres.Query != "" {
		if cfg.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required when a query is configured")
		}
		if cfg.Postgres.Port <= 0 || cfg.Postgres.Port > 65535 {
			return fmt.Errorf("postgres port must be between 1-65535, got: %d", cfg.Postgres.Port)
		}
		if cfg.Postgres.Database == "" {
			return fmt.Errorf("postgres database is required when a query is configured")
		}

		validSSLModes := map[string]bool{
			"": true, "disable": true, "require": true, "verify-ca": true, "verify-full": true,
		}
		if !validSSLModes[cfg.Postgres.SSLMode] {
			return fmt.Errorf("invalid sslmode: %s (valid: disable, require, verify-ca, verify-full)", cfg.Postgres.SSLMode)
		}
	}

	return nil
}
