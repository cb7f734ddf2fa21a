package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"react-analytics/internal/domain"
)

// Store is the Postgres domain.Repository. Counter updates run in one
// transaction per event; row locks taken by the guarded UPDATEs serialize
// concurrent changes to the same counter.
type Store struct {
	pool    *pgxpool.Pool
	queries *Queries
	logger  *slog.Logger
}

var _ domain.Repository = (*Store)(nil)

func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool, queries: New(pool), logger: logger}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) InsertMessage(ctx context.Context, msg domain.Message) error {
	return insertMessageRow(ctx, s.queries, msg)
}

func insertMessageRow(ctx context.Context, q *Queries, msg domain.Message) error {
	n, err := q.InsertMessage(ctx, InsertMessageParams{
		ChannelID: msg.ID.ChannelID,
		Ts:        msg.ID.Timestamp,
		TeamID:    msg.TeamID,
		UserID:    msg.UserID,
		Text:      msg.Text,
	})
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if n == 0 {
		return domain.ErrDuplicateMessage
	}
	return nil
}

func (s *Store) InsertMessageWithReacts(ctx context.Context, msg domain.Message, reacts []domain.UserReact) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		q := s.queries.WithTx(tx)

		if err := insertMessageRow(ctx, q, msg); err != nil {
			return err
		}
		for _, r := range reacts {
			if err := incrementReact(ctx, q, msg.ID, r.UserID, r.React); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) DeleteMessage(ctx context.Context, id domain.MessageID) error {
	if err := s.queries.DeleteMessage(ctx, DeleteMessageParams{ChannelID: id.ChannelID, Ts: id.Timestamp}); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (s *Store) IncrementReact(ctx context.Context, id domain.MessageID, userID, react string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return incrementReact(ctx, s.queries.WithTx(tx), id, userID, react)
	})
}

func incrementReact(ctx context.Context, q *Queries, id domain.MessageID, userID, react string) error {
	if err := q.IncrementMessageReact(ctx, IncrementMessageReactParams{ChannelID: id.ChannelID, Ts: id.Timestamp, React: react}); err != nil {
		return fmt.Errorf("increment message react: %w", err)
	}
	if err := q.IncrementUserReact(ctx, IncrementUserReactParams{UserID: userID, React: react}); err != nil {
		return fmt.Errorf("increment user react: %w", err)
	}
	if err := q.IncrementReactCount(ctx, react); err != nil {
		return fmt.Errorf("increment react count: %w", err)
	}
	return nil
}

func (s *Store) DecrementReact(ctx context.Context, id domain.MessageID, userID, react string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		q := s.queries.WithTx(tx)

		onMessage, err := q.DecrementMessageReact(ctx, DecrementMessageReactParams{ChannelID: id.ChannelID, Ts: id.Timestamp, React: react})
		if err != nil {
			return fmt.Errorf("decrement message react: %w", err)
		}
		if _, err := q.DecrementUserReact(ctx, DecrementUserReactParams{UserID: userID, React: react}); err != nil {
			return fmt.Errorf("decrement user react: %w", err)
		}
		// The global tally follows the per-message one so it stays their sum.
		if onMessage > 0 {
			if _, err := q.DecrementReactCount(ctx, react); err != nil {
				return fmt.Errorf("decrement react count: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) GetReactCounts(ctx context.Context) ([]domain.KeyCount, error) {
	rows, err := s.queries.GetReactCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get react counts: %w", err)
	}
	out := make([]domain.KeyCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.KeyCount{Key: r.React, Count: r.Count})
	}
	return out, nil
}

func (s *Store) GetReactsByUser(ctx context.Context, userID string) ([]domain.KeyCount, error) {
	rows, err := s.queries.GetReactsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get reacts by user: %w", err)
	}
	out := make([]domain.KeyCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.KeyCount{Key: r.React, Count: r.Count})
	}
	return out, nil
}

func (s *Store) GetReactsOnMessage(ctx context.Context, id domain.MessageID) ([]domain.KeyCount, error) {
	rows, err := s.queries.GetReactsOnMessage(ctx, GetReactsOnMessageParams{ChannelID: id.ChannelID, Ts: id.Timestamp})
	if err != nil {
		return nil, fmt.Errorf("get reacts on message: %w", err)
	}
	out := make([]domain.KeyCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.KeyCount{Key: r.React, Count: r.Count})
	}
	return out, nil
}

func (s *Store) GetAllMessageReacts(ctx context.Context) ([]domain.MessageReact, error) {
	rows, err := s.queries.GetAllMessageReacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all message reacts: %w", err)
	}
	out := make([]domain.MessageReact, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.MessageReact{
			MessageID: domain.NewMessageID(r.ChannelID, r.Ts),
			React:     r.React,
			Count:     r.Count,
		})
	}
	return out, nil
}

func (s *Store) GetMessagesByUser(ctx context.Context, userID string) ([]domain.MessageID, error) {
	rows, err := s.queries.GetMessagesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get messages by user: %w", err)
	}
	out := make([]domain.MessageID, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.NewMessageID(r.ChannelID, r.Ts))
	}
	return out, nil
}

func (s *Store) GetMessageIDs(ctx context.Context, channelID string) ([]domain.MessageID, error) {
	rows, err := s.queries.GetMessageIDs(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("get message ids: %w", err)
	}
	out := make([]domain.MessageID, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.NewMessageID(r.ChannelID, r.Ts))
	}
	return out, nil
}

func (s *Store) GetAllMessageTexts(ctx context.Context) ([]string, error) {
	texts, err := s.queries.GetAllMessageTexts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all message texts: %w", err)
	}
	if texts == nil {
		texts = []string{}
	}
	return texts, nil
}

func (s *Store) GetMessageText(ctx context.Context, id domain.MessageID) (string, error) {
	text, err := s.queries.GetMessageText(ctx, GetMessageTextParams{ChannelID: id.ChannelID, Ts: id.Timestamp})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get message text: %w", err)
	}
	return text, nil
}

func (s *Store) GetMessageTextsWithReact(ctx context.Context, react string) ([]string, error) {
	texts, err := s.queries.GetMessageTextsWithReact(ctx, react)
	if err != nil {
		return nil, fmt.Errorf("get message texts with react: %w", err)
	}
	if texts == nil {
		texts = []string{}
	}
	return texts, nil
}

func (s *Store) GetUserReactTotals(ctx context.Context) ([]domain.KeyCount, error) {
	rows, err := s.queries.GetUserReactTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("get user react totals: %w", err)
	}
	out := make([]domain.KeyCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.KeyCount{Key: r.UserID, Count: r.Total})
	}
	return out, nil
}

func (s *Store) GetUserMessageCounts(ctx context.Context) ([]domain.KeyCount, error) {
	rows, err := s.queries.GetUserMessageCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get user message counts: %w", err)
	}
	out := make([]domain.KeyCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.KeyCount{Key: r.UserID, Count: r.Count})
	}
	return out, nil
}
