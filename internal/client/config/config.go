// Package config handles configuration for the passvault CLI: defaults, then
// an optional JSON file, then PASSVAULT_* environment variables. Command
// flags are applied on top by the cli package.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the CLI.
//
//   - ServerURL: base URL of the passvault HTTP API.
//   - SessionPath: SQLite file holding the current login session.
//   - RequestTimeout: per-request HTTP timeout.
type Config struct {
	ServerURL      string
	SessionPath    string
	RequestTimeout time.Duration
}

// userConfigDir is a seam for os.UserConfigDir.
var userConfigDir = os.UserConfigDir

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second

	c.SessionPath = "passvault-session.db"
	if dir, err := userConfigDir(); err == nil && dir != "" {
		c.SessionPath = filepath.Join(dir, "passvault", "session.db")
	}
}

// Load applies defaults, then the JSON file at jsonPath (if not empty),
// then the environment.
func Load(jsonPath string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, jsonPath); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}
