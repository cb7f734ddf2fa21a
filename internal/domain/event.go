package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEvent     = errors.New("invalid event")
	ErrUnknownEvent     = errors.New("unknown event")
	ErrDuplicateMessage = errors.New("message already exists")
)

const (
	KindMessagePosted   = "message_posted"
	KindMessageRemoved  = "message_removed"
	KindReactionAdded   = "reaction_added"
	KindReactionRemoved = "reaction_removed"
)

// Event is the closed set of inbound chat events. Only the four variants
// declared in this package implement it.
type Event interface {
	Kind() string
	// MessageID is the message the event applies to. Events touching the same
	// message must be applied in arrival order.
	MessageID() MessageID
	Validate() error
	isEvent()
}

type MessagePosted struct {
	TeamID    string `json:"team_id"`
	ChannelID string `json:"channel_id"`
	Timestamp string `json:"ts"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
}

type MessageRemoved struct {
	ChannelID string `json:"channel_id"`
	Timestamp string `json:"ts"`
}

type ReactionAdded struct {
	ChannelID string `json:"channel_id"`
	Timestamp string `json:"ts"`
	UserID    string `json:"user_id"`
	React     string `json:"react"`
}

type ReactionRemoved struct {
	ChannelID string `json:"channel_id"`
	Timestamp string `json:"ts"`
	UserID    string `json:"user_id"`
	React     string `json:"react"`
}

func (MessagePosted) Kind() string   { return KindMessagePosted }
func (MessageRemoved) Kind() string  { return KindMessageRemoved }
func (ReactionAdded) Kind() string   { return KindReactionAdded }
func (ReactionRemoved) Kind() string { return KindReactionRemoved }

func (e MessagePosted) MessageID() MessageID   { return NewMessageID(e.ChannelID, e.Timestamp) }
func (e MessageRemoved) MessageID() MessageID  { return NewMessageID(e.ChannelID, e.Timestamp) }
func (e ReactionAdded) MessageID() MessageID   { return NewMessageID(e.ChannelID, e.Timestamp) }
func (e ReactionRemoved) MessageID() MessageID { return NewMessageID(e.ChannelID, e.Timestamp) }

func (MessagePosted) isEvent()   {}
func (MessageRemoved) isEvent()  {}
func (ReactionAdded) isEvent()   {}
func (ReactionRemoved) isEvent() {}

func (e MessagePosted) Validate() error {
	return required(e.Kind(), "channel_id", e.ChannelID, "ts", e.Timestamp, "user_id", e.UserID)
}

func (e MessageRemoved) Validate() error {
	return required(e.Kind(), "channel_id", e.ChannelID, "ts", e.Timestamp)
}

func (e ReactionAdded) Validate() error {
	return required(e.Kind(), "channel_id", e.ChannelID, "ts", e.Timestamp, "user_id", e.UserID, "react", e.React)
}

func (e ReactionRemoved) Validate() error {
	return required(e.Kind(), "channel_id", e.ChannelID, "ts", e.Timestamp, "user_id", e.UserID, "react", e.React)
}

// required takes alternating field names and values.
func required(kind string, fields ...string) error {
	for i := 0; i+1 < len(fields); i += 2 {
		if fields[i+1] == "" {
			return fmt.Errorf("%w: %s: missing %s", ErrInvalidEvent, kind, fields[i])
		}
	}
	return nil
}
