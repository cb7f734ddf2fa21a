package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"react-analytics/internal/config"
	"react-analytics/internal/domain"
	"react-analytics/internal/store/memstore"
	"react-analytics/internal/store/pgstore"
	"react-analytics/internal/store/sqlitestore"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "reactanalytics",
	Short: "Reaction analytics for a Slack workspace",
	Long: `reactanalytics ingests message and reaction events from a Slack workspace,
keeps running tallies of who reacts with what, and answers /reacts queries
over Slack and a JSON API.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", ".env", "Path to a .env file to load before the environment")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("store-driver", config.DriverPostgres, "Store backend: postgres, sqlite or memory")
	flags.String("database-url", "", "PostgreSQL connection string")
	flags.String("sqlite-path", "reacts.db", "SQLite database file")
}

// loadConfig reads settings and installs the JSON logger as the default.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(envFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

type store interface {
	domain.Repository
	Migrate(ctx context.Context) error
	Close() error
}

type memoryStore struct {
	*memstore.Store
}

func (memoryStore) Migrate(context.Context) error { return nil }
func (memoryStore) Close() error                  { return nil }

// openStore connects the configured backend and brings its schema up to date.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store, error) {
	var (
		s   store
		err error
	)
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		s, err = pgstore.Open(ctx, cfg.DatabaseURL, logger)
	case config.DriverSQLite:
		s, err = sqlitestore.Open(cfg.SQLitePath, logger)
	case config.DriverMemory:
		s = memoryStore{memstore.New()}
	default:
		err = fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate %s store: %w", cfg.StoreDriver, err)
	}
	return s, nil
}
