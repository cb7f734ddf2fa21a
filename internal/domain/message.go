package domain

// MessageID identifies a message by the channel it was posted in and the
// platform-assigned timestamp. Timestamps are opaque: they are compared for
// equality only and never parsed as numbers.
type MessageID struct {
	ChannelID string `json:"channel_id"`
	Timestamp string `json:"ts"`
}

// NewMessageID builds the composite key for a message.
func NewMessageID(channelID, timestamp string) MessageID {
	return MessageID{ChannelID: channelID, Timestamp: timestamp}
}

// String is for logs and display. It is not parsed back.
func (id MessageID) String() string {
	return id.ChannelID + "/" + id.Timestamp
}

func (id MessageID) IsZero() bool {
	return id.ChannelID == "" && id.Timestamp == ""
}

type Message struct {
	ID     MessageID `json:"id"`
	TeamID string    `json:"team_id"`
	UserID string    `json:"user_id"`
	Text   string    `json:"text"`
}

// UserReact is one user's reaction on a message, as listed in history.
type UserReact struct {
	UserID string `json:"user_id"`
	React  string `json:"react"`
}

// KeyCount is one row of an aggregate keyed by a string (react name, user id).
type KeyCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// MessageReact is the tally of one react name on one message.
type MessageReact struct {
	MessageID MessageID `json:"message_id"`
	React     string    `json:"react"`
	Count     int64     `json:"count"`
}

// Directory maps workspace ids to display names. It is refreshed outside the
// core and handed to queries by value.
type Directory struct {
	Users    map[string]string
	Channels map[string]string
}

func (d Directory) UserName(id string) (string, bool) {
	name, ok := d.Users[id]
	return name, ok
}

func (d Directory) ChannelName(id string) (string, bool) {
	name, ok := d.Channels[id]
	return name, ok
}
