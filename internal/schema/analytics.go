package schema

type QueryInput struct {
	Count   *int   `form:"count"`
	User    string `form:"user"`
	Channel string `form:"channel"`
}

type FavoritesInput struct {
	Count *int     `form:"count"`
	Users []string `form:"user" binding:"required"`
}

type BuzzwordInput struct {
	React string `uri:"react" binding:"required"`
}

type ReactCountOutput struct {
	React string `json:"react"`
	Count int64  `json:"count"`
}

type UserCountOutput struct {
	UserID string `json:"user_id"`
	Count  int64  `json:"count"`
}

type MessageRankOutput struct {
	ChannelID string `json:"channel_id"`
	Ts        string `json:"ts"`
	Text      string `json:"text"`
	Count     int64  `json:"count"`
}

type WordCountOutput struct {
	Word  string `json:"word"`
	Count int64  `json:"count"`
}

type PhraseCountOutput struct {
	Phrase string `json:"phrase"`
	Count  int64  `json:"count"`
}
