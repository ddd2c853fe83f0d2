// Package config handles configuration for the passvault server: defaults,
// then a JSON file overlay, then PASSVAULT_* environment variables, then
// command-line flags. Validate must pass before the server starts.
package config

import (
	"errors"
	"os"
	"time"
)

// MinSecretKeyLen is the shortest signing secret accepted in production.
const MinSecretKeyLen = 32

// MemoryDSN selects the in-process store instead of PostgreSQL.
const MemoryDSN = "memory"

// Config holds runtime settings for the server.
//
//   - EndpointAddrHTTP: bind address of the HTTP API.
//   - DatabaseDSN: PostgreSQL DSN (pgx), or MemoryDSN.
//   - SecretKey: HMAC secret for HS256 tokens. Never has a literal default.
//   - TokenValidityDuration: absolute token lifetime.
//   - Production: refuse to start without a proper SecretKey.
//   - S3*: object storage for encrypted backups; empty bucket disables them.
type Config struct {
	EndpointAddrHTTP      string
	DatabaseDSN           string
	SecretKey             string
	TokenValidityDuration time.Duration
	Production            bool
	LogLevel              string
	S3AccessKey           string
	S3SecretKey           string
	S3Bucket              string
	S3Region              string
	S3BaseEndpoint        string
}

var (
	ErrMissingSecretKey = errors.New("secret key is required in production")
	ErrWeakSecretKey    = errors.New("secret key is too short")
)

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = MemoryDSN
	c.TokenValidityDuration = 7 * 24 * time.Hour
	c.LogLevel = "info"
	c.S3Region = "us-east-1"
}

// LoadConfig builds a Config from defaults, the JSON file named by -c,
// the environment and flags, in that order of precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseEnv(cfg, os.LookupEnv)
	parseFlags(cfg, os.Args[1:])
	return cfg
}

// Validate fails fast on settings the server must not run with.
// It reports whether an ephemeral signing secret is needed (development only).
func (c *Config) Validate() (ephemeralSecret bool, err error) {
	if c.SecretKey == "" {
		if c.Production {
			return false, ErrMissingSecretKey
		}
		return true, nil
	}
	if c.Production && len(c.SecretKey) < MinSecretKeyLen {
		return false, ErrWeakSecretKey
	}
	return false, nil
}

// BackupsEnabled reports whether object storage is configured.
func (c *Config) BackupsEnabled() bool {
	return c.S3Bucket != ""
}
