package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/todolist/internal/flagx"
)

var serverFlags = []string{"-a", "-g", "-driver", "-d", "-m", "-s", "-r", "-t", "-l"}

// ValueFlags lists every flag that takes a value, the config file locator
// included. Operator subcommands use it to tell their operands apart from
// configuration.
var ValueFlags = append(append([]string{}, serverFlags...), "-c", "-config")

var boolFlags = []string{"-migrate"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string       HTTP bind address (e.g., ":8080")
//	-g string       gRPC health bind address
//	-driver string  database driver: pgx or sqlite
//	-d string       database DSN
//	-m string       migrations directory
//	-migrate bool   run migrations on start
//	-s string       session signing secret
//	-r string       Redis URL of the session store
//	-t int          session lifetime, minutes
//	-l string       log level
//
// Only recognised flags are parsed, see flagx.FilterArgs.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags, boolFlags...)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run the web server")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "address and port of the gRPC health endpoint")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver (pgx or sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MigrationsDir, "m", config.MigrationsDir, "migrations directory")
	fs.BoolVar(&config.MigrateOnStart, "migrate", config.MigrateOnStart, "run pending migrations on start")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "session signing secret")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL of the session store")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session lifetime (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
}
