package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"react-analytics/internal/analytics"
	"react-analytics/internal/domain"
)

// DirectorySource hands out the current workspace directory.
type DirectorySource interface {
	Snapshot(ctx context.Context) domain.Directory
}

// Runner executes parsed commands against the analytics engine and renders
// the result as a chat message.
type Runner struct {
	engine    *analytics.Engine
	repo      domain.Repository
	directory DirectorySource
	count     int
}

func NewRunner(engine *analytics.Engine, repo domain.Repository, directory DirectorySource) *Runner {
	return &Runner{
		engine:    engine,
		repo:      repo,
		directory: directory,
		count:     analytics.DefaultCount,
	}
}

func (r *Runner) Run(ctx context.Context, cmd Command) (string, error) {
	switch cmd.Name {
	case Help:
		return HelpText(), nil
	case MostUsed:
		return r.mostUsed(ctx, cmd.UserID)
	case MostReactedTo:
		return r.mostReactedTo(ctx, cmd.UserID)
	case MostUnique:
		return r.mostUnique(ctx, cmd.ChannelID)
	case Buzzwords:
		return r.buzzwords(ctx, cmd.Reacts)
	case MostReacts:
		ranked, err := r.engine.UsersWithMostReacts(ctx, r.count)
		if err != nil {
			return "", err
		}
		return renderUsers("Users that react the most:\n", ranked, true), nil
	case MostMessages:
		ranked, err := r.engine.MostMessages(ctx, r.count)
		if err != nil {
			return "", err
		}
		return renderUsers("Users with the most messages:\n", ranked, true), nil
	case MostActive:
		ranked, err := r.engine.MostActive(ctx, r.count)
		if err != nil {
			return "", err
		}
		return renderUsers("Most active users:\n", ranked, false), nil
	case CommonPhrases:
		return r.commonPhrases(ctx)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}
}

func (r *Runner) mostUsed(ctx context.Context, userID string) (string, error) {
	var (
		ranked []analytics.Ranked[string]
		err    error
	)
	header := "Most used reacts:\n"
	if userID == "" {
		ranked, err = r.engine.MostUsedReacts(ctx, r.count)
	} else {
		ranked, err = r.engine.FavoriteReactsOfUser(ctx, userID, r.count)
		header = "Most used reacts by <@" + userID + ">:\n"
	}
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(header)
	for _, e := range ranked {
		b.WriteString(":" + e.Key + ": : " + strconv.FormatInt(e.Weight, 10) + "\n")
	}
	return b.String(), nil
}

// snapshot is empty when the runner has no directory source.
func (r *Runner) snapshot(ctx context.Context) domain.Directory {
	if r.directory == nil {
		return domain.Directory{}
	}
	return r.directory.Snapshot(ctx)
}

func (r *Runner) mostReactedTo(ctx context.Context, userID string) (string, error) {
	ranked, err := r.engine.MostReactedToPosts(ctx, userID, r.count)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if userID == "" {
		b.WriteString("Most reacted to posts:\n")
	} else {
		name := userID
		if n, ok := r.snapshot(ctx).UserName(userID); ok {
			name = n
		}
		b.WriteString("Most reacted to posts for " + name + ":\n")
	}
	for _, e := range ranked {
		text, err := r.repo.GetMessageText(ctx, e.Key)
		if err != nil {
			return "", err
		}
		if text == "" {
			continue
		}
		b.WriteString(text + " : " + strconv.FormatInt(e.Weight, 10) + "\n")
	}
	return b.String(), nil
}

func (r *Runner) mostUnique(ctx context.Context, channelID string) (string, error) {
	ranked, err := r.engine.MostUniqueReactsOnAPost(ctx, channelID, r.count)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Messages with most unique reacts:\n")
	for _, e := range ranked {
		text, err := r.repo.GetMessageText(ctx, e.Key)
		if err != nil {
			return "", err
		}
		if text == "" {
			continue
		}
		reacts, err := r.repo.GetReactsOnMessage(ctx, e.Key)
		if err != nil {
			return "", err
		}
		b.WriteString(text + " : ")
		for _, kc := range reacts {
			b.WriteString(":" + kc.Key + ": ")
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (r *Runner) buzzwords(ctx context.Context, reacts []string) (string, error) {
	if len(reacts) == 0 {
		return ErrMissingReact.Error(), nil
	}
	dir := r.snapshot(ctx)

	var b strings.Builder
	for _, react := range reacts {
		words, err := r.engine.ReactBuzzword(ctx, react, dir, BuzzwordCount)
		if err != nil {
			return "", err
		}
		b.WriteString(":" + react + ":: ")
		if len(words) == 0 {
			b.WriteString("React not used\n")
			continue
		}
		keys := make([]string, 0, len(words))
		for _, w := range words {
			keys = append(keys, w.Key)
		}
		b.WriteString(strings.Join(keys, ", ") + "\n")
	}
	return b.String(), nil
}

func (r *Runner) commonPhrases(ctx context.Context) (string, error) {
	ranked, err := r.engine.CommonPhrases(ctx, r.count)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Common Phrases:\n")
	for _, e := range ranked {
		b.WriteString(e.Key.String() + "\n")
	}
	return b.String(), nil
}

func renderUsers(header string, ranked []analytics.Ranked[string], withCount bool) string {
	var b strings.Builder
	b.WriteString(header)
	for _, e := range ranked {
		b.WriteString("<@" + e.Key + ">")
		if withCount {
			b.WriteString(": " + strconv.FormatInt(e.Weight, 10))
		}
		b.WriteString("\n")
	}
	return b.String()
}
