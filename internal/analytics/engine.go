package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"react-analytics/internal/domain"
	"react-analytics/internal/metrics"
)

// Engine answers aggregate queries. It keeps no state between calls: every
// query reads the current tallies from the repository, so a cancelled query
// leaves nothing behind.
type Engine struct {
	repo    domain.Repository
	logger  *slog.Logger
	metrics *metrics.Metrics
	// fanout bounds concurrent repository reads in FavoriteReactsOfAll.
	fanout int
}

func NewEngine(repo domain.Repository, logger *slog.Logger, m *metrics.Metrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		repo:    repo,
		logger:  logger,
		metrics: m,
		fanout:  8,
	}
}

func (e *Engine) MostUsedReacts(ctx context.Context, count int) ([]Ranked[string], error) {
	defer e.metrics.ObserveQuery("most_used_reacts", time.Now())

	rows, err := e.repo.GetReactCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get react counts: %w", err)
	}
	return TopK(fromKeyCounts(rows), count), nil
}

func (e *Engine) FavoriteReactsOfUser(ctx context.Context, userID string, count int) ([]Ranked[string], error) {
	defer e.metrics.ObserveQuery("favorite_reacts_of_user", time.Now())

	rows, err := e.repo.GetReactsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get reacts by user %s: %w", userID, err)
	}
	return TopK(fromKeyCounts(rows), count), nil
}

// FavoriteReactsOfAll runs FavoriteReactsOfUser for each user. Users with
// no reactions map to an empty ranking.
func (e *Engine) FavoriteReactsOfAll(ctx context.Context, users []string, count int) (map[string][]Ranked[string], error) {
	defer e.metrics.ObserveQuery("favorite_reacts_of_all", time.Now())

	var mu sync.Mutex
	result := make(map[string][]Ranked[string], len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.fanout)
	for _, user := range users {
		g.Go(func() error {
			rows, err := e.repo.GetReactsByUser(gctx, user)
			if err != nil {
				return fmt.Errorf("get reacts by user %s: %w", user, err)
			}
			ranked := TopK(fromKeyCounts(rows), count)

			mu.Lock()
			result[user] = ranked
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// MostReactedToPosts ranks messages by the sum of all react counts on them,
// optionally only those authored by userID.
func (e *Engine) MostReactedToPosts(ctx context.Context, userID string, count int) ([]Ranked[domain.MessageID], error) {
	defer e.metrics.ObserveQuery("most_reacted_to_posts", time.Now())

	var authored map[domain.MessageID]struct{}
	if userID != "" {
		ids, err := e.repo.GetMessagesByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get messages by user %s: %w", userID, err)
		}
		authored = make(map[domain.MessageID]struct{}, len(ids))
		for _, id := range ids {
			authored[id] = struct{}{}
		}
	}

	reacts, err := e.repo.GetAllMessageReacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get message reacts: %w", err)
	}

	totals := NewTally[domain.MessageID]()
	for _, r := range reacts {
		if authored != nil {
			if _, ok := authored[r.MessageID]; !ok {
				continue
			}
		}
		totals.Add(r.MessageID, r.Count)
	}
	return totals.Top(count), nil
}

// MostUniqueReactsOnAPost ranks stored messages by how many different react
// names they carry, optionally within one channel. Messages without reacts
// are left out.
func (e *Engine) MostUniqueReactsOnAPost(ctx context.Context, channelID string, count int) ([]Ranked[domain.MessageID], error) {
	defer e.metrics.ObserveQuery("most_unique_reacts_on_a_post", time.Now())

	ids, err := e.repo.GetMessageIDs(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("get message ids: %w", err)
	}
	reacts, err := e.repo.GetAllMessageReacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get message reacts: %w", err)
	}

	distinct := make(map[domain.MessageID]int64)
	for _, r := range reacts {
		if r.Count > 0 {
			distinct[r.MessageID]++
		}
	}

	unique := NewTally[domain.MessageID]()
	for _, id := range ids {
		if n := distinct[id]; n > 0 {
			unique.Add(id, n)
		}
	}
	return unique.Top(count), nil
}

// ReactBuzzword counts, for every message carrying react, the distinct words
// of that message, resolving escaped users and channels through dir.
func (e *Engine) ReactBuzzword(ctx context.Context, react string, dir domain.Directory, count int) ([]Ranked[string], error) {
	defer e.metrics.ObserveQuery("react_buzzword", time.Now())

	texts, err := e.repo.GetMessageTextsWithReact(ctx, react)
	if err != nil {
		return nil, fmt.Errorf("get messages with react %s: %w", react, err)
	}

	words := NewTally[string]()
	for _, text := range texts {
		for _, token := range Tokens(text, dir) {
			words.Add(token, 1)
		}
	}
	return words.Top(count), nil
}

func (e *Engine) CommonPhrases(ctx context.Context, count int) ([]Ranked[Phrase], error) {
	defer e.metrics.ObserveQuery("common_phrases", time.Now())

	texts, err := e.repo.GetAllMessageTexts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get message texts: %w", err)
	}

	phrases := NewTally[Phrase]()
	for _, text := range texts {
		for _, p := range Phrases(text) {
			phrases.Add(p, 1)
		}
	}
	return phrases.Top(count), nil
}

// UsersWithMostReacts ranks users by the reactions they gave.
func (e *Engine) UsersWithMostReacts(ctx context.Context, count int) ([]Ranked[string], error) {
	defer e.metrics.ObserveQuery("users_with_most_reacts", time.Now())

	rows, err := e.repo.GetUserReactTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("get user react totals: %w", err)
	}
	return TopK(fromKeyCounts(rows), count), nil
}

func (e *Engine) MostMessages(ctx context.Context, count int) ([]Ranked[string], error) {
	defer e.metrics.ObserveQuery("most_messages", time.Now())

	rows, err := e.repo.GetUserMessageCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get user message counts: %w", err)
	}
	return TopK(fromKeyCounts(rows), count), nil
}

// MostActive ranks users by messages posted plus reactions given.
func (e *Engine) MostActive(ctx context.Context, count int) ([]Ranked[string], error) {
	defer e.metrics.ObserveQuery("most_active", time.Now())

	messages, err := e.repo.GetUserMessageCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get user message counts: %w", err)
	}
	reacts, err := e.repo.GetUserReactTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("get user react totals: %w", err)
	}

	activity := NewTally[string]()
	for _, row := range messages {
		activity.Add(row.Key, row.Count)
	}
	for _, row := range reacts {
		activity.Add(row.Key, row.Count)
	}
	return activity.Top(count), nil
}
