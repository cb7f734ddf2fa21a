package slackclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/slack-go/slack"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"react-analytics/internal/domain"
)

// SnapshotSink stores a message read from history with the reactions it
// carries. ingest.Ingestor implements it.
type SnapshotSink interface {
	ApplySnapshot(ctx context.Context, posted domain.MessagePosted, reactions []domain.ReactionAdded) (bool, error)
}

type BackfillStats struct {
	Channels int
	Messages int64
	Stored   int64
}

// History walks channel history and replays it into a SnapshotSink.
type History struct {
	api         API
	limiter     *rate.Limiter
	logger      *slog.Logger
	concurrency int
}

// NewHistory limits Web API calls to rps per second across all channels.
func NewHistory(api API, rps float64, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	if rps <= 0 {
		rps = 1
	}
	return &History{
		api:         api,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		logger:      logger,
		concurrency: 4,
	}
}

// Backfill replays the history of channelIDs, or of every public channel
// when channelIDs is empty.
func (h *History) Backfill(ctx context.Context, sink SnapshotSink, channelIDs []string) (BackfillStats, error) {
	if len(channelIDs) == 0 {
		if err := h.limiter.Wait(ctx); err != nil {
			return BackfillStats{}, err
		}
		convs, err := channels(ctx, h.api, []string{"public_channel"})
		if err != nil {
			return BackfillStats{}, err
		}
		for _, c := range convs {
			if c.IsArchived {
				continue
			}
			channelIDs = append(channelIDs, c.ID)
		}
	}

	var messages, stored atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for _, channelID := range channelIDs {
		g.Go(func() error {
			m, s, err := h.backfillChannel(gctx, sink, channelID)
			messages.Add(m)
			stored.Add(s)
			if err != nil {
				return fmt.Errorf("backfill channel %s: %w", channelID, err)
			}
			h.logger.Info("channel backfilled", "channel_id", channelID, "messages", m, "stored", s)
			return nil
		})
	}
	err := g.Wait()

	return BackfillStats{
		Channels: len(channelIDs),
		Messages: messages.Load(),
		Stored:   stored.Load(),
	}, err
}

func (h *History) backfillChannel(ctx context.Context, sink SnapshotSink, channelID string) (int64, int64, error) {
	params := &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     200,
	}

	var seen, stored int64
	for {
		if err := h.limiter.Wait(ctx); err != nil {
			return seen, stored, err
		}

		var history *slack.GetConversationHistoryResponse
		err := withRetry(ctx, func() error {
			var err error
			history, err = h.api.GetConversationHistoryContext(ctx, params)
			return err
		})
		if err != nil {
			return seen, stored, err
		}

		for _, msg := range history.Messages {
			posted, reactions, ok := snapshot(channelID, msg)
			if !ok {
				continue
			}
			seen++
			h.warnTruncated(channelID, msg)

			isNew, err := sink.ApplySnapshot(ctx, posted, reactions)
			if err != nil {
				return seen, stored, err
			}
			if isNew {
				stored++
			}
		}

		if !history.HasMore || history.ResponseMetaData.NextCursor == "" {
			return seen, stored, nil
		}
		params.Cursor = history.ResponseMetaData.NextCursor
	}
}

// warnTruncated logs reactions whose user list Slack cut short. Only the
// listed users are stored, so such a react is undercounted.
func (h *History) warnTruncated(channelID string, msg slack.Message) {
	for _, r := range msg.Reactions {
		if len(r.Users) < r.Count {
			h.logger.Warn("reaction users truncated, storing listed users only",
				"channel_id", channelID, "ts", msg.Timestamp, "react", r.Name,
				"count", r.Count, "listed", len(r.Users))
		}
	}
}

// snapshot converts a history message. Bot posts and subtyped messages
// (joins, topic changes and the like) are skipped.
func snapshot(channelID string, msg slack.Message) (domain.MessagePosted, []domain.ReactionAdded, bool) {
	if msg.BotID != "" || msg.SubType != "" || msg.User == "" {
		return domain.MessagePosted{}, nil, false
	}

	posted := domain.MessagePosted{
		TeamID:    msg.Team,
		ChannelID: channelID,
		Timestamp: msg.Timestamp,
		UserID:    msg.User,
		Text:      msg.Text,
	}

	var reactions []domain.ReactionAdded
	for _, r := range msg.Reactions {
		for _, user := range r.Users {
			reactions = append(reactions, domain.ReactionAdded{
				ChannelID: channelID,
				Timestamp: msg.Timestamp,
				UserID:    user,
				React:     r.Name,
			})
		}
	}
	return posted, reactions, true
}
