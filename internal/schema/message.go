package schema

// Message is the envelope pushed to websocket subscribers.
type Message struct {
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

type MessagePostedEvent struct {
	ChannelID string `json:"channel_id"`
	Ts        string `json:"ts"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
}

type MessageRemovedEvent struct {
	ChannelID string `json:"channel_id"`
	Ts        string `json:"ts"`
}

type ReactionChangedEvent struct {
	ChannelID string `json:"channel_id"`
	Ts        string `json:"ts"`
	UserID    string `json:"user_id"`
	React     string `json:"react"`
}
