// Package config loads service settings from a .env file, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	HTTPAddr    string `mapstructure:"http_addr"`
	LogLevel    string `mapstructure:"log_level"`
	StoreDriver string `mapstructure:"store_driver"`
	DatabaseURL string `mapstructure:"database_url"`
	SQLitePath  string `mapstructure:"sqlite_path"`

	Workers      int           `mapstructure:"workers"`
	QueueSize    int           `mapstructure:"queue_size"`
	DirectoryTTL time.Duration `mapstructure:"directory_ttl"`

	SlackBotToken          string  `mapstructure:"slack_bot_token"`
	SlackUserToken         string  `mapstructure:"slack_user_token"`
	SlackSigningSecret     string  `mapstructure:"slack_signing_secret"`
	SlackVerificationToken string  `mapstructure:"slack_verification_token"`
	BotName                string  `mapstructure:"bot_name"`
	BackfillRPS            float64 `mapstructure:"backfill_rps"`
}

var defaults = map[string]any{
	"http_addr":     ":8080",
	"log_level":     "info",
	"store_driver":  DriverPostgres,
	"database_url":  "",
	"sqlite_path":   "reacts.db",
	"workers":       8,
	"queue_size":    1024,
	"directory_ttl": 10 * time.Minute,

	"slack_bot_token":          "",
	"slack_user_token":         "",
	"slack_signing_secret":     "",
	"slack_verification_token": "",
	"bot_name":                 "reactanalyticsbot",
	"backfill_rps":             1.0,
}

// Slack settings keep the names Slack's own tooling uses.
var envNames = map[string]string{
	"slack_bot_token":          "SLACK_BOT_TOKEN",
	"slack_user_token":         "SLACK_USER_TOKEN",
	"slack_signing_secret":     "SLACK_SIGNING_SECRET",
	"slack_verification_token": "SLACK_VERIFICATION_TOKEN",
}

// Load reads envFile if it exists, then the REACTS_* and SLACK_* variables,
// then any flags in flags that were set explicitly. Flags are matched to
// keys by name with dashes in place of underscores.
func Load(envFile string, flags *pflag.FlagSet) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("REACTS")
	for key, value := range defaults {
		v.SetDefault(key, value)
		var err error
		if name, ok := envNames[key]; ok {
			err = v.BindEnv(key, name)
		} else {
			err = v.BindEnv(key)
		}
		if err != nil {
			return nil, err
		}
	}

	if flags != nil {
		for key := range defaults {
			if f := flags.Lookup(flagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func flagName(key string) string {
	b := []byte(key)
	for i := range b {
		if b[i] == '_' {
			b[i] = '-'
		}
	}
	return string(b)
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database_url is required for the postgres driver")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite_path is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}

	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive, got %d", c.QueueSize)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
