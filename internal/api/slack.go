package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"react-analytics/internal/command"
	"react-analytics/internal/domain"
	"react-analytics/internal/ingest"
)

const (
	commandTimeout = 2 * time.Minute
	commandFailed  = "There was an error processing your request"
)

// deletedMessage is the part of a message_deleted callback the typed
// slackevents structs do not expose.
type deletedMessage struct {
	Event struct {
		Channel   string `json:"channel"`
		DeletedTs string `json:"deleted_ts"`
	} `json:"event"`
}

func (h *Handler) handleSlackEvents(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.PureJSON(http.StatusBadRequest, "failed to read body")
		return
	}

	if h.signingSecret == "" && h.verificationToken != "" && !h.validToken(body) {
		c.Header("X-Slack-No-Retry", "1")
		c.PureJSON(http.StatusForbidden, "invalid token")
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		h.logger.Warn("failed to parse slack event", "error", err)
		c.Header("X-Slack-No-Retry", "1")
		c.PureJSON(http.StatusBadRequest, err.Error())
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			c.PureJSON(http.StatusBadRequest, err.Error())
			return
		}
		c.String(http.StatusOK, challenge.Challenge)
		return
	case slackevents.CallbackEvent:
	default:
		c.Status(http.StatusOK)
		return
	}

	ev, ok := toDomainEvent(event, body)
	if !ok {
		c.Status(http.StatusOK)
		return
	}
	if err := ev.Validate(); err != nil {
		c.Header("X-Slack-No-Retry", "1")
		c.PureJSON(http.StatusBadRequest, err.Error())
		return
	}

	if err := h.pool.Submit(c.Request.Context(), ev); err != nil {
		if errors.Is(err, ingest.ErrQueueFull) || errors.Is(err, ingest.ErrPoolClosed) {
			h.logger.Warn("event rejected", "kind", ev.Kind(), "message_id", ev.MessageID().String(), "error", err)
			c.PureJSON(http.StatusServiceUnavailable, err.Error())
			return
		}

		h.logger.Error("failed to submit event", "kind", ev.Kind(), "error", err)
		c.PureJSON(http.StatusInternalServerError, "something went wrong")
		return
	}

	c.Status(http.StatusOK)
}

func (h *Handler) validToken(body []byte) bool {
	var outer struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &outer); err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(outer.Token), []byte(h.verificationToken)) == 1
}

// toDomainEvent maps a callback onto one of the four domain events. Bot
// posts, edits and reactions on anything but messages are ignored.
func toDomainEvent(event slackevents.EventsAPIEvent, body []byte) (domain.Event, bool) {
	switch inner := event.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		switch inner.SubType {
		case "":
			if inner.BotID != "" {
				return nil, false
			}
			return domain.MessagePosted{
				TeamID:    event.TeamID,
				ChannelID: inner.Channel,
				Timestamp: inner.TimeStamp,
				UserID:    inner.User,
				Text:      inner.Text,
			}, true
		case "message_deleted":
			var deleted deletedMessage
			if err := json.Unmarshal(body, &deleted); err != nil {
				return nil, false
			}
			return domain.MessageRemoved{
				ChannelID: deleted.Event.Channel,
				Timestamp: deleted.Event.DeletedTs,
			}, true
		}
	case *slackevents.ReactionAddedEvent:
		if inner.Item.Type != "message" {
			return nil, false
		}
		return domain.ReactionAdded{
			ChannelID: inner.Item.Channel,
			Timestamp: inner.Item.Timestamp,
			UserID:    inner.User,
			React:     inner.Reaction,
		}, true
	case *slackevents.ReactionRemovedEvent:
		if inner.Item.Type != "message" {
			return nil, false
		}
		return domain.ReactionRemoved{
			ChannelID: inner.Item.Channel,
			Timestamp: inner.Item.Timestamp,
			UserID:    inner.User,
			React:     inner.Reaction,
		}, true
	}
	return nil, false
}

func (h *Handler) handleSlashCommand(c *gin.Context) {
	s, err := slack.SlashCommandParse(c.Request)
	if err != nil {
		c.PureJSON(http.StatusBadRequest, err.Error())
		return
	}

	if h.signingSecret == "" && h.verificationToken != "" && !s.ValidateToken(h.verificationToken) {
		c.PureJSON(http.StatusForbidden, "invalid token")
		return
	}

	cmd, err := command.Parse(s.Text)
	switch {
	case errors.Is(err, command.ErrUnknownCommand):
		c.String(http.StatusOK, command.UnknownText)
		return
	case errors.Is(err, command.ErrMissingReact):
		c.String(http.StatusOK, err.Error())
		return
	case err != nil:
		c.PureJSON(http.StatusBadRequest, err.Error())
		return
	}

	if cmd.Name == command.Help {
		c.String(http.StatusOK, command.HelpText())
		return
	}

	h.runCommand(c.Request.Context(), s.UserID, cmd)

	c.Status(http.StatusOK)
}

// runCommand answers a slash command by direct message once the query has
// finished. Slack expects the HTTP reply within three seconds.
func (h *Handler) runCommand(ctx context.Context, requester string, cmd command.Command) {
	h.background.Add(1)
	go func() {
		defer h.background.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commandTimeout)
		defer cancel()

		text, err := h.commands.Run(ctx, cmd)
		if err != nil {
			h.logger.Error("failed to run command", "command", cmd.Name, "user_id", requester, "error", err)
			text = commandFailed
		}

		if err := h.notifier.SendDM(ctx, requester, text); err != nil {
			h.logger.Error("failed to send command result", "command", cmd.Name, "user_id", requester, "error", err)
		}
	}()
}
