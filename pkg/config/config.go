// Package config loads reslot settings from an optional reslot.yaml and
// RESLOT_* environment variables.
//
// Environment variables take precedence over the file. Nested keys map to
// underscores: history.backend is RESLOT_HISTORY_BACKEND.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultDir = ".reslot"
	DefaultDB  = DefaultDir + "/reslot.db"
	EnvPrefix  = "RESLOT"
	FileName   = "reslot"
)

// Accepted values for Driver and History.Backend.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	BackendSQL   = "sql"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config is the full set of settings.
type Config struct {
	// DB is a SQLite file path or, with the postgres driver, a DSN.
	DB       string `mapstructure:"db"`
	Driver   string `mapstructure:"driver"`
	Owner    string `mapstructure:"owner"`
	Timezone string `mapstructure:"timezone"`

	History HistoryConfig `mapstructure:"history"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Log     LogConfig     `mapstructure:"log"`
}

// HistoryConfig selects and tunes the resolution log.
type HistoryConfig struct {
	Backend         string        `mapstructure:"backend"`
	Dir             string        `mapstructure:"dir"`
	CacheSize       int           `mapstructure:"cache_size"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
	RecordTimeout   time.Duration `mapstructure:"record_timeout"`
}

// RedisConfig is used when History.Backend is "redis".
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// LogConfig configures diagnostics output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", DefaultDB)
	v.SetDefault("driver", DriverSQLite)
	v.SetDefault("owner", "")
	v.SetDefault("timezone", "UTC")

	v.SetDefault("history.backend", BackendSQL)
	v.SetDefault("history.dir", DefaultDir)
	v.SetDefault("history.cache_size", 256)
	v.SetDefault("history.breaker_failures", 3)
	v.SetDefault("history.breaker_cooldown", 30*time.Second)
	v.SetDefault("history.record_timeout", 5*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "reslot:resolution_log")

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
}

// Load reads configuration. An empty path searches for reslot.yaml in the
// working directory and in .reslot/; a missing file is not an error then.
// An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings and the timezone.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("config: unknown driver %q (want sqlite or postgres)", c.Driver)
	}
	switch c.History.Backend {
	case BackendSQL, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("config: unknown history backend %q (want sql, file or redis)", c.History.Backend)
	}
	if c.DB == "" {
		return errors.New("config: db must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. Empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
