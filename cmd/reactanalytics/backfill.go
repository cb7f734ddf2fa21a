package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"react-analytics/internal/ingest"
	"react-analytics/internal/slackclient"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill [channel-id...]",
	Short: "Load message and reaction history from Slack",
	Long: `Read channel history through the Web API and store every message with the
reactions it currently carries. Without arguments every public, non-archived
channel is read. Messages that are already stored are skipped, so the command
can be run again after an interruption.

Reading history needs a user token (SLACK_USER_TOKEN) with the
channels:history scope.`,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().Float64("backfill-rps", 1, "Maximum Slack Web API calls per second")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token := cfg.SlackUserToken
	if token == "" {
		token = cfg.SlackBotToken
	}
	slackAPI, err := slackclient.New(token)
	if err != nil {
		return err
	}

	s, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	history := slackclient.NewHistory(slackAPI, cfg.BackfillRPS, logger)
	stats, err := history.Backfill(ctx, ingest.NewIngestor(s, logger, nil), args)
	if err != nil {
		return fmt.Errorf("backfill stopped after %d messages: %w", stats.Messages, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "channels: %d, messages read: %d, newly stored: %d\n",
		stats.Channels, stats.Messages, stats.Stored)
	return nil
}
