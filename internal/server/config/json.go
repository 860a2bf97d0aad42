package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/todolist/internal/flagx"
	"github.com/dmitrijs2005/todolist/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "24h" and integer nanoseconds are accepted.
// Absent keys leave the current value untouched.
type JsonConfig struct {
	HTTPAddr       *string         `json:"http_addr"`
	GRPCHealthAddr *string         `json:"grpc_health_addr"`
	DatabaseDriver *string         `json:"database_driver"`
	DatabaseDSN    *string         `json:"database_dsn"`
	MigrationsDir  *string         `json:"migrations_dir"`
	MigrateOnStart *bool           `json:"migrate_on_start"`
	SecretKey      *string         `json:"secret_key"`
	RedisURL       *string         `json:"redis_url"`
	SessionTTL     *timex.Duration `json:"session_ttl"`
	LogLevel       *string         `json:"log_level"`
}

// parseJson overlays values from the file named by -c / -config. Without
// the flag nothing is loaded. An unreadable or invalid file panics, like a
// bad flag does.
func parseJson(config *Config) {
	path := flagx.ConfigFilePath()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MigrationsDir, c.MigrationsDir)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.LogLevel, c.LogLevel)

	if c.MigrateOnStart != nil {
		config.MigrateOnStart = *c.MigrateOnStart
	}
	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
