package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"react-analytics/internal/analytics"
	"react-analytics/internal/domain"
)

var (
	queryCount   int
	queryUser    string
	queryChannel string
	queryReact   string
)

var queryCmd = &cobra.Command{
	Use:   "query <name>",
	Short: "Run an analytics query against the store and print JSON",
	Long: `Run one analytics query directly against the configured store.

Queries:
  reacts          most used reacts (--user narrows to one user)
  most-reacted    messages with the most reactions (--user)
  most-unique     messages with the most distinct reacts (--channel)
  buzzwords       words on messages carrying a react (--react)
  phrases         most common three-word phrases
  most-reacts     users who react the most
  most-messages   users who post the most
  most-active     users by messages plus reactions`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	flags := queryCmd.Flags()
	flags.IntVarP(&queryCount, "count", "n", analytics.DefaultCount, "Number of results")
	flags.StringVar(&queryUser, "user", "", "User id to narrow to")
	flags.StringVar(&queryChannel, "channel", "", "Channel id to narrow to")
	flags.StringVar(&queryReact, "react", "", "React name for buzzwords, without colons")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	engine := analytics.NewEngine(s, logger, nil)

	var result any
	switch args[0] {
	case "reacts":
		if queryUser != "" {
			result, err = engine.FavoriteReactsOfUser(ctx, queryUser, queryCount)
		} else {
			result, err = engine.MostUsedReacts(ctx, queryCount)
		}
	case "most-reacted":
		result, err = engine.MostReactedToPosts(ctx, queryUser, queryCount)
	case "most-unique":
		result, err = engine.MostUniqueReactsOnAPost(ctx, queryChannel, queryCount)
	case "buzzwords":
		if queryReact == "" {
			return errors.New("buzzwords needs --react")
		}
		result, err = engine.ReactBuzzword(ctx, strings.Trim(queryReact, ":"), domain.Directory{}, queryCount)
	case "phrases":
		result, err = engine.CommonPhrases(ctx, queryCount)
	case "most-reacts":
		result, err = engine.UsersWithMostReacts(ctx, queryCount)
	case "most-messages":
		result, err = engine.MostMessages(ctx, queryCount)
	case "most-active":
		result, err = engine.MostActive(ctx, queryCount)
	default:
		return fmt.Errorf("unknown query %q", args[0])
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
