// Package sqlitestore is a domain.Repository on an embedded SQLite database,
// for single-node deployments that do not want a Postgres server.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"react-analytics/internal/domain"
)

//go:embed schema.sql
var schema string

type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

var _ domain.Repository = (*Store)(nil)

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite allows a single writer, and an in-memory
	// database only exists on the connection that created it.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-16000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	return &Store{conn: conn, logger: logger}, nil
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// WithTx runs fn in a transaction, rolling back when fn fails.
func (s *Store) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction", "error", err, "rollback_error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) InsertMessage(ctx context.Context, msg domain.Message) error {
	return insertMessage(ctx, s.conn, msg)
}

func insertMessage(ctx context.Context, db execer, msg domain.Message) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO messages (channel_id, ts, team_id, user_id, text)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (channel_id, ts) DO NOTHING
	`, msg.ID.ChannelID, msg.ID.Timestamp, msg.TeamID, msg.UserID, msg.Text)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if n == 0 {
		return domain.ErrDuplicateMessage
	}
	return nil
}

func (s *Store) InsertMessageWithReacts(ctx context.Context, msg domain.Message, reacts []domain.UserReact) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if err := insertMessage(ctx, tx, msg); err != nil {
			return err
		}
		for _, r := range reacts {
			if err := incrementReact(ctx, tx, msg.ID, r.UserID, r.React); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) DeleteMessage(ctx context.Context, id domain.MessageID) error {
	_, err := s.conn.ExecContext(ctx, `DELETE FROM messages WHERE channel_id = ? AND ts = ?`, id.ChannelID, id.Timestamp)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (s *Store) IncrementReact(ctx context.Context, id domain.MessageID, userID, react string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		return incrementReact(ctx, tx, id, userID, react)
	})
}

func incrementReact(ctx context.Context, tx *sql.Tx, id domain.MessageID, userID, react string) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reacts_on_message (channel_id, ts, react, count) VALUES (?, ?, ?, 1)
		ON CONFLICT (channel_id, ts, react) DO UPDATE SET count = count + 1
	`, id.ChannelID, id.Timestamp, react); err != nil {
		return fmt.Errorf("increment message react: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reacts_on_user (user_id, react, count) VALUES (?, ?, 1)
		ON CONFLICT (user_id, react) DO UPDATE SET count = count + 1
	`, userID, react); err != nil {
		return fmt.Errorf("increment user react: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO react_counts (react, count) VALUES (?, 1)
		ON CONFLICT (react) DO UPDATE SET count = count + 1
	`, react); err != nil {
		return fmt.Errorf("increment react count: %w", err)
	}
	return nil
}

func (s *Store) DecrementReact(ctx context.Context, id domain.MessageID, userID, react string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE reacts_on_message SET count = count - 1
			WHERE channel_id = ? AND ts = ? AND react = ? AND count > 0
		`, id.ChannelID, id.Timestamp, react)
		if err != nil {
			return fmt.Errorf("decrement message react: %w", err)
		}
		onMessage, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("decrement message react: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE reacts_on_user SET count = count - 1
			WHERE user_id = ? AND react = ? AND count > 0
		`, userID, react); err != nil {
			return fmt.Errorf("decrement user react: %w", err)
		}

		if onMessage > 0 {
			if _, err := tx.ExecContext(ctx, `
				UPDATE react_counts SET count = count - 1
				WHERE react = ? AND count > 0
			`, react); err != nil {
				return fmt.Errorf("decrement react count: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) GetReactCounts(ctx context.Context) ([]domain.KeyCount, error) {
	return s.keyCounts(ctx, "get react counts", `
		SELECT react, count FROM react_counts WHERE count > 0 ORDER BY react
	`)
}

func (s *Store) GetReactsByUser(ctx context.Context, userID string) ([]domain.KeyCount, error) {
	return s.keyCounts(ctx, "get reacts by user", `
		SELECT react, count FROM reacts_on_user WHERE user_id = ? AND count > 0 ORDER BY react
	`, userID)
}

func (s *Store) GetReactsOnMessage(ctx context.Context, id domain.MessageID) ([]domain.KeyCount, error) {
	return s.keyCounts(ctx, "get reacts on message", `
		SELECT react, count FROM reacts_on_message
		WHERE channel_id = ? AND ts = ? AND count > 0
		ORDER BY react
	`, id.ChannelID, id.Timestamp)
}

func (s *Store) GetAllMessageReacts(ctx context.Context) ([]domain.MessageReact, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT channel_id, ts, react, count FROM reacts_on_message
		WHERE count > 0
		ORDER BY channel_id, ts, react
	`)
	if err != nil {
		return nil, fmt.Errorf("get all message reacts: %w", err)
	}
	defer rows.Close()

	out := []domain.MessageReact{}
	for rows.Next() {
		var r domain.MessageReact
		if err := rows.Scan(&r.MessageID.ChannelID, &r.MessageID.Timestamp, &r.React, &r.Count); err != nil {
			return nil, fmt.Errorf("get all message reacts: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get all message reacts: %w", err)
	}
	return out, nil
}

func (s *Store) GetMessagesByUser(ctx context.Context, userID string) ([]domain.MessageID, error) {
	return s.messageIDs(ctx, "get messages by user", `
		SELECT channel_id, ts FROM messages WHERE user_id = ? ORDER BY channel_id, ts
	`, userID)
}

func (s *Store) GetMessageIDs(ctx context.Context, channelID string) ([]domain.MessageID, error) {
	return s.messageIDs(ctx, "get message ids", `
		SELECT channel_id, ts FROM messages
		WHERE ?1 = '' OR channel_id = ?1
		ORDER BY channel_id, ts
	`, channelID)
}

func (s *Store) GetAllMessageTexts(ctx context.Context) ([]string, error) {
	return s.texts(ctx, "get all message texts", `
		SELECT text FROM messages ORDER BY channel_id, ts
	`)
}

func (s *Store) GetMessageText(ctx context.Context, id domain.MessageID) (string, error) {
	var text string
	err := s.conn.QueryRowContext(ctx, `
		SELECT text FROM messages WHERE channel_id = ? AND ts = ?
	`, id.ChannelID, id.Timestamp).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get message text: %w", err)
	}
	return text, nil
}

func (s *Store) GetMessageTextsWithReact(ctx context.Context, react string) ([]string, error) {
	return s.texts(ctx, "get message texts with react", `
		SELECT m.text FROM messages m
		JOIN reacts_on_message r ON r.channel_id = m.channel_id AND r.ts = m.ts
		WHERE r.react = ? AND r.count > 0
		ORDER BY m.channel_id, m.ts
	`, react)
}

func (s *Store) GetUserReactTotals(ctx context.Context) ([]domain.KeyCount, error) {
	return s.keyCounts(ctx, "get user react totals", `
		SELECT user_id, SUM(count) FROM reacts_on_user
		WHERE count > 0
		GROUP BY user_id
		ORDER BY user_id
	`)
}

func (s *Store) GetUserMessageCounts(ctx context.Context) ([]domain.KeyCount, error) {
	return s.keyCounts(ctx, "get user message counts", `
		SELECT user_id, COUNT(*) FROM messages GROUP BY user_id ORDER BY user_id
	`)
}

func (s *Store) keyCounts(ctx context.Context, op, query string, args ...any) ([]domain.KeyCount, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []domain.KeyCount{}
	for rows.Next() {
		var kc domain.KeyCount
		if err := rows.Scan(&kc.Key, &kc.Count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, kc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *Store) messageIDs(ctx context.Context, op, query string, args ...any) ([]domain.MessageID, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []domain.MessageID{}
	for rows.Next() {
		var id domain.MessageID
		if err := rows.Scan(&id.ChannelID, &id.Timestamp); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *Store) texts(ctx context.Context, op, query string, args ...any) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
