// Package config loads the research CLI's JSON configuration file with
// encoding/json and DisallowUnknownFields, then layers environment variable
// overrides for the secrets and paths that should never live in a
// checked-in file.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Config is the research CLI's top-level configuration.
type Config struct {
	DuckDBPath     string  `json:"duckdbPath"`
	ClickhouseURL  string  `json:"clickhouseUrl"`
	ArtifactsDir   string  `json:"artifactsDir"`
	InitialCapital float64 `json:"initialCapital"`
	MaxConcurrent  int     `json:"maxConcurrent"`
	GridShards     int     `json:"gridShards"`

	// BirdeyeAPIKey / HeliusAPIKey are never read from the config file;
	// they only ever come from the environment (see applyEnvOverrides).
	BirdeyeAPIKey string `json:"-"`
	HeliusAPIKey  string `json:"-"`
}

// Default returns the research CLI's baseline configuration.
func Default() Config {
	return Config{
		DuckDBPath:     "./data/callsim.duckdb",
		ArtifactsDir:   "./artifacts",
		InitialCapital: 10_000,
		MaxConcurrent:  25,
		GridShards:     8,
	}
}

// Load reads path as JSON into Default(), rejecting unknown fields, then
// applies environment variable overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyEnvOverrides layers DUCKDB_PATH, CLICKHOUSE_URL, BIRDEYE_API_KEY,
// HELIUS_API_KEY, and ARTIFACTS_DIR over whatever the config file set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DUCKDB_PATH"); v != "" {
		cfg.DuckDBPath = v
	}
	if v := os.Getenv("CLICKHOUSE_URL"); v != "" {
		cfg.ClickhouseURL = v
	}
	if v := os.Getenv("ARTIFACTS_DIR"); v != "" {
		cfg.ArtifactsDir = v
	}
	if v := os.Getenv("BIRDEYE_API_KEY"); v != "" {
		cfg.BirdeyeAPIKey = v
	}
	if v := os.Getenv("HELIUS_API_KEY"); v != "" {
		cfg.HeliusAPIKey = v
	}
}
