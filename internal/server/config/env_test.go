package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func Test_parseEnv(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	parseEnv(cfg, mapLookup(map[string]string{
		"PASSVAULT_ADDRESS":      ":9999",
		"PASSVAULT_DATABASE_DSN": "postgres://env",
		"PASSVAULT_SECRET_KEY":   "from-env",
		"PASSVAULT_TOKEN_TTL":    "2h",
		"PASSVAULT_PRODUCTION":   "true",
		"PASSVAULT_S3_BUCKET":    "bkt",
	}))

	assert.Equal(t, ":9999", cfg.EndpointAddrHTTP)
	assert.Equal(t, "postgres://env", cfg.DatabaseDSN)
	assert.Equal(t, "from-env", cfg.SecretKey)
	assert.Equal(t, 2*time.Hour, cfg.TokenValidityDuration)
	assert.True(t, cfg.Production)
	assert.Equal(t, "bkt", cfg.S3Bucket)
}

func Test_parseEnv_IgnoresEmptyAndInvalid(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	parseEnv(cfg, mapLookup(map[string]string{
		"PASSVAULT_SECRET_KEY": "",
		"PASSVAULT_TOKEN_TTL":  "forever",
		"PASSVAULT_PRODUCTION": "maybe",
	}))

	assert.Empty(t, cfg.SecretKey)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenValidityDuration)
	assert.False(t, cfg.Production)
}
