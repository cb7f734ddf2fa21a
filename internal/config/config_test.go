package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("REACTS_STORE_DRIVER", DriverMemory)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 1024, cfg.QueueSize)
	assert.Equal(t, 10*time.Minute, cfg.DirectoryTTL)
	assert.Equal(t, "reactanalyticsbot", cfg.BotName)
	assert.InDelta(t, 1.0, cfg.BackfillRPS, 1e-9)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_EnvironmentAndFlags(t *testing.T) {
	t.Setenv("REACTS_STORE_DRIVER", DriverSQLite)
	t.Setenv("REACTS_WORKERS", "3")
	t.Setenv("REACTS_DIRECTORY_TTL", "30s")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_SIGNING_SECRET", "shh")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("http-addr", ":8080", "")
	flags.Int("workers", 8, "")
	require.NoError(t, flags.Parse([]string{"--http-addr=:9090"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr, "explicit flag wins")
	assert.Equal(t, 3, cfg.Workers, "unset flag does not shadow the environment")
	assert.Equal(t, 30*time.Second, cfg.DirectoryTTL)
	assert.Equal(t, "xoxb-test", cfg.SlackBotToken)
	assert.Equal(t, "shh", cfg.SlackSigningSecret)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("REACTS_STORE_DRIVER=memory\nREACTS_BOT_NAME=from-dotenv\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("REACTS_STORE_DRIVER")
		os.Unsetenv("REACTS_BOT_NAME")
	})

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.BotName)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"), nil)
	require.NoError(t, err, "a missing env file is not an error")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "postgres needs url", mutate: func(c *Config) { c.StoreDriver = DriverPostgres }, wantErr: "database_url"},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "mongo" }, wantErr: "unknown store driver"},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: "workers"},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log_level"},
		{name: "valid", mutate: func(c *Config) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{StoreDriver: DriverMemory, Workers: 1, QueueSize: 1, LogLevel: "debug"}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
