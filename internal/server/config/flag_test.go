package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expected    *Config
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret", "-t", "60",
				"-l", "debug", "-prod", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
			},
			expected: &Config{
				EndpointAddrHTTP:      "127.0.0.1:9090",
				DatabaseDSN:           "db",
				SecretKey:             "secret",
				TokenValidityDuration: time.Hour,
				Production:            true,
				LogLevel:              "debug",
				S3Bucket:              "bucket",
				S3Region:              "us-west-1",
				S3BaseEndpoint:        "http://endpoint",
			},
		},
		{
			name: "config flag and unknown flags are ignored",
			args: []string{"-c", "cfg.json", "-x", "1", "-a", ":1"},
			expected: &Config{
				EndpointAddrHTTP:      ":1",
				TokenValidityDuration: 0,
			},
		},
		{
			name:        "bad int panics",
			args:        []string{"-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestParseFlags_KeepsSubMinuteTTLUnlessGiven(t *testing.T) {
	for _, ttl := range []time.Duration{30 * time.Second, 90 * time.Second} {
		config := &Config{TokenValidityDuration: ttl}
		parseFlags(config, []string{"-a", ":1"})
		assert.Equal(t, ttl, config.TokenValidityDuration)
	}

	config := &Config{TokenValidityDuration: 90 * time.Second}
	parseFlags(config, []string{"-t", "2"})
	assert.Equal(t, 2*time.Minute, config.TokenValidityDuration)
}

func TestConfigPrecedence_EnvTTLSurvivesFlags(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, mapLookup(map[string]string{"PASSVAULT_TOKEN_TTL": "90s"}))
	parseFlags(cfg, nil)
	assert.Equal(t, 90*time.Second, cfg.TokenValidityDuration)
}
