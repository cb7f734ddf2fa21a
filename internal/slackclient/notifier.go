package slackclient

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Notifier sends direct messages as the bot.
type Notifier struct {
	api     API
	botName string
}

func NewNotifier(api API, botName string) *Notifier {
	return &Notifier{api: api, botName: botName}
}

func (n *Notifier) SendDM(ctx context.Context, userID, text string) error {
	var channel *slack.Channel
	err := withRetry(ctx, func() error {
		var err error
		channel, _, _, err = n.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
			Users: []string{userID},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("open conversation with %s: %w", userID, err)
	}

	options := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if n.botName != "" {
		options = append(options, slack.MsgOptionUsername(n.botName))
	}

	err = withRetry(ctx, func() error {
		_, _, err := n.api.PostMessageContext(ctx, channel.ID, options...)
		return err
	})
	if err != nil {
		return fmt.Errorf("post message to %s: %w", userID, err)
	}
	return nil
}
