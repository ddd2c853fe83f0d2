package config

import (
	"strconv"
	"time"
)

// parseEnv overlays PASSVAULT_* variables. lookup is os.LookupEnv in
// production and a map in tests.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	str("PASSVAULT_ADDRESS", &config.EndpointAddrHTTP)
	str("PASSVAULT_DATABASE_DSN", &config.DatabaseDSN)
	str("PASSVAULT_SECRET_KEY", &config.SecretKey)
	str("PASSVAULT_LOG_LEVEL", &config.LogLevel)
	str("PASSVAULT_S3_ACCESS_KEY", &config.S3AccessKey)
	str("PASSVAULT_S3_SECRET_KEY", &config.S3SecretKey)
	str("PASSVAULT_S3_BUCKET", &config.S3Bucket)
	str("PASSVAULT_S3_REGION", &config.S3Region)
	str("PASSVAULT_S3_ENDPOINT", &config.S3BaseEndpoint)

	if v, ok := lookup("PASSVAULT_TOKEN_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			config.TokenValidityDuration = d
		}
	}
	if v, ok := lookup("PASSVAULT_PRODUCTION"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Production = b
		}
	}
}
