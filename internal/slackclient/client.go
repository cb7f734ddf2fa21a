// Package slackclient wraps the Slack Web API calls the service makes:
// loading the workspace directory, reading channel history and sending
// direct messages.
package slackclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slack-go/slack"
)

// API is the part of *slack.Client this package uses.
type API interface {
	GetUsersContext(ctx context.Context, options ...slack.GetUsersOption) ([]slack.User, error)
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ API = (*slack.Client)(nil)

// New builds a client for token. An empty token is rejected here rather
// than on the first call.
func New(token string) (*slack.Client, error) {
	if token == "" {
		return nil, errors.New("slack token is empty")
	}
	return slack.New(token), nil
}

const maxRetries = 5

// withRetry calls fn until it succeeds, fails with something other than a
// rate limit, or maxRetries is reached. Rate-limit responses are waited out
// for the duration Slack asks for.
func withRetry(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()

		var rateLimited *slack.RateLimitedError
		if !errors.As(err, &rateLimited) || attempt >= maxRetries {
			return err
		}

		wait := rateLimited.RetryAfter
		if wait <= 0 {
			wait = time.Duration(attempt+1) * time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// channels lists every conversation the token can see, following cursors.
func channels(ctx context.Context, api API, types []string) ([]slack.Channel, error) {
	var all []slack.Channel
	params := &slack.GetConversationsParameters{
		Types: types,
		Limit: 1000,
	}

	for {
		var (
			page   []slack.Channel
			cursor string
		)
		err := withRetry(ctx, func() error {
			var err error
			page, cursor, err = api.GetConversationsContext(ctx, params)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("list conversations: %w", err)
		}
		all = append(all, page...)

		if cursor == "" {
			return all, nil
		}
		params.Cursor = cursor
	}
}
