package config

import (
	"fmt"
	"time"
)

const (
	EnvServerURL      = "PASSVAULT_SERVER"
	EnvSessionPath    = "PASSVAULT_SESSION"
	EnvRequestTimeout = "PASSVAULT_TIMEOUT"
)

func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvServerURL); ok && v != "" {
		cfg.ServerURL = v
	}
	if v, ok := lookup(EnvSessionPath); ok && v != "" {
		cfg.SessionPath = v
	}
	if v, ok := lookup(EnvRequestTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}
