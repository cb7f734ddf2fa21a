package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the store schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		s, err := openStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		logger.Info("store schema is up to date", "store", cfg.StoreDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
