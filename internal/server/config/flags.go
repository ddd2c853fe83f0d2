package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/passvault/internal/flagx"
)

// parseFlags populates Config from command-line flags.
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-d string   PostgreSQL DSN, or "memory"
//	-s string   token signing secret
//	-t int      token validity, minutes
//	-l string   log level
//	-prod       production mode
//	-b string   S3 bucket for backups
//	-g string   S3 region
//	-e string   S3 base endpoint
//
// Args are filtered through flagx.FilterArgs first so -c and foreign flags
// do not trip the parser. S3 credentials are deliberately not accepted as
// flags; they would show up in the process list.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-l", "-prod", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.BoolVar(&config.Production, "prod", config.Production, "production mode")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket for backups")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// -t only counts in whole minutes, so it must not round a finer value
	// from the environment or the config file unless it was given.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		}
	})
}
