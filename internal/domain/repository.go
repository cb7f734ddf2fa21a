package domain

import "context"

// Repository is the durable store of messages and reaction tallies.
//
// Counters are non-negative. IncrementReact and DecrementReact touch the
// per-message, per-user and global counters in a single transaction, and a
// decrement floors each counter at zero instead of failing. The global
// counter only moves down when the per-message counter did, so it always
// equals the sum of the per-message counters.
//
// Read methods never fail for unknown ids; they return empty results. Only
// positive counts are returned. KeyCount slices are ordered by key, message
// lists by channel then timestamp.
type Repository interface {
	// InsertMessage returns ErrDuplicateMessage if the id is already stored.
	// The stored row is left untouched in that case.
	InsertMessage(ctx context.Context, msg Message) error
	DeleteMessage(ctx context.Context, id MessageID) error
	// InsertMessageWithReacts stores msg and counts every reaction it
	// carries in one transaction: either all of it is applied or none.
	// A message that is already stored yields ErrDuplicateMessage and no
	// counter moves.
	InsertMessageWithReacts(ctx context.Context, msg Message, reacts []UserReact) error

	IncrementReact(ctx context.Context, id MessageID, userID, react string) error
	DecrementReact(ctx context.Context, id MessageID, userID, react string) error

	GetReactCounts(ctx context.Context) ([]KeyCount, error)
	GetReactsByUser(ctx context.Context, userID string) ([]KeyCount, error)
	GetReactsOnMessage(ctx context.Context, id MessageID) ([]KeyCount, error)
	GetAllMessageReacts(ctx context.Context) ([]MessageReact, error)

	GetMessagesByUser(ctx context.Context, userID string) ([]MessageID, error)
	// GetMessageIDs lists stored messages, restricted to one channel unless
	// channelID is empty.
	GetMessageIDs(ctx context.Context, channelID string) ([]MessageID, error)
	GetAllMessageTexts(ctx context.Context) ([]string, error)
	// GetMessageText returns "" when the message is not stored.
	GetMessageText(ctx context.Context, id MessageID) (string, error)
	// GetMessageTextsWithReact returns the text of every stored message that
	// carries react at least once.
	GetMessageTextsWithReact(ctx context.Context, react string) ([]string, error)

	// GetUserReactTotals is the number of reactions each user has given.
	GetUserReactTotals(ctx context.Context) ([]KeyCount, error)
	// GetUserMessageCounts is the number of stored messages per author.
	GetUserMessageCounts(ctx context.Context) ([]KeyCount, error)
}
