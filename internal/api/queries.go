package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"react-analytics/internal/analytics"
	"react-analytics/internal/domain"
	"react-analytics/internal/schema"
)

// resultSize defaults a missing count. Zero or less asks for everything.
func resultSize(count *int) int {
	if count == nil {
		return analytics.DefaultCount
	}
	return *count
}

func reactCounts(ranked []analytics.Ranked[string]) []schema.ReactCountOutput {
	output := make([]schema.ReactCountOutput, 0, len(ranked))
	for _, r := range ranked {
		output = append(output, schema.ReactCountOutput{React: r.Key, Count: r.Weight})
	}
	return output
}

func userCounts(ranked []analytics.Ranked[string]) []schema.UserCountOutput {
	output := make([]schema.UserCountOutput, 0, len(ranked))
	for _, r := range ranked {
		output = append(output, schema.UserCountOutput{UserID: r.Key, Count: r.Weight})
	}
	return output
}

func (h *Handler) messageRanks(ctx context.Context, ranked []analytics.Ranked[domain.MessageID]) ([]schema.MessageRankOutput, error) {
	output := make([]schema.MessageRankOutput, 0, len(ranked))
	for _, r := range ranked {
		text, err := h.repo.GetMessageText(ctx, r.Key)
		if err != nil {
			return nil, err
		}
		output = append(output, schema.MessageRankOutput{
			ChannelID: r.Key.ChannelID,
			Ts:        r.Key.Timestamp,
			Text:      text,
			Count:     r.Weight,
		})
	}
	return output, nil
}

func (h *Handler) handleMostUsedReacts(c *gin.Context) {
	var query schema.QueryInput
	if err := c.ShouldBindQuery(&query); err != nil {
		c.PureJSON(http.StatusBadRequest, err.Error())
		return
	}

	var (
		ranked []analytics.Ranked[string]
		err    error
	)
	if query.User != "" {
		ranked, err = h.engine.FavoriteReactsOfUser(c.Request.Context(), query.User, resultSize(query.Count))
	} else {
		ranked, err = h.engine.MostUsedReacts(c.Request.Context(), resultSize(query.Count))
	}
	if err != nil {
		h.logger.Error("failed to get most used reacts", "error", err)
		c.PureJSON(http.StatusInternalServerError, "something went wrong")
		return
	}

	c.PureJSON(http.StatusOK, reactCounts(ranked))
}

func (h *Handler) handleFavoriteReacts(c *gin.Context) {
	var query schema.FavoritesInput
	if err := c.ShouldBindQuery(&query); err != nil {
		c.PureJSON(http.StatusBadRequest, err.Error())
		return
	}

	favorites, err := h.engine.FavoriteReactsOfAll(c.Request.Context(), query.Users, resultSize(query.Count))
	if err != nil {
		h.logger.Error("failed to get favorite reacts", "error", err)
		c.PureJSON(http.StatusInternalServerError, "something went wrong")
		return
	}

	output := make(map[string][]schema.ReactCountOutput, len(favorites))
	for user, ranked := range favorites {
		output[user] = reactCounts(ranked)
	}

	c.PureJSON(http.StatusOK, output)
}

func (h *Handler) handleMostReactedToPosts(c *gin.Context) {
	var query schema.QueryInput
	if err := c.ShouldBindQuery(&query); err != nil {
		c.PureJSON(http.StatusBadRequest, err.Error())
		return
	}

	ranked, err := h.engine.MostReactedToPosts(c.Request.Context(), query.User, resultSize(query.Count))
	if err != nil {
		h.logger.Error("failed to get most reacted to posts", "error", err)
		c.PureJSON(http.StatusInternalServerError, "something went wrong")
		return
	}

	output, err := h.messageRanks(c.Request.Context(), ranked)
	if err != nil {
		h.logger.Error("failed to get message text", "error", err)
		c.PureJSON(http.StatusInternalServerError, "something went wrong")
		return
	}

	c.PureJSON(http.StatusOK, output)
}

func (h *Handler) handleMostUniqueReacts(c *gin.Context) {
	var query schema.QueryInput
	if err := c.ShouldBindQuery(&query); err != nil {
		c.PureJSON(http.StatusBadRequest, err.Error())
		return
	}

	ranked, err := h.engine.MostUniqueReactsOnAPost(c.Request.Context(), query.Channel, resultSize(query.Count))
	if err != nil {
		h.logger.Error("failed to get most unique reacts", "error", err)
		c.PureJSON(http.StatusInternalServerError, "something went wrong")
		return
	}

	output, err := h.messageRanks(c.Request.Context(), ranked)
	if err != nil {
		h.logger.Error("failed to get message text", "error", err)
		c.PureJSON(http.StatusInternalServerError, "something went wrong")
		return
	}

	c.PureJSON(http.StatusOK, output)
}

func (h *Handler) handleReactBuzzwords(c *gin.Context) {
	var uri schema.BuzzwordInput
	if err := c.ShouldBindUri(&uri); err != nil {
		c.PureJSON(http.StatusBadRequest, err.Error())
		return
	}

	var query schema.QueryInput
	if err := c.ShouldBindQuery(&query); err != nil {
		c.PureJSON(http.StatusBadRequest, err.Error())
		return
	}

	var dir domain.Directory
	if h.directory != nil {
		dir = h.directory.Snapshot(c.Request.Context())
	}

	ranked, err := h.engine.ReactBuzzword(c.Request.Context(), uri.React, dir, resultSize(query.Count))
	if err != nil {
		h.logger.Error("failed to get buzzwords", "react", uri.React, "error", err)
		c.PureJSON(http.StatusInternalServerError, "something went wrong")
		return
	}

	output := make([]schema.WordCountOutput, 0, len(ranked))
	for _, r := range ranked {
		output = append(output, schema.WordCountOutput{Word: r.Key, Count: r.Weight})
	}

	c.PureJSON(http.StatusOK, output)
}

func (h *Handler) handleCommonPhrases(c *gin.Context) {
	var query schema.QueryInput
	if err := c.ShouldBindQuery(&query); err != nil {
		c.PureJSON(http.StatusBadRequest, err.Error())
		return
	}

	ranked, err := h.engine.CommonPhrases(c.Request.Context(), resultSize(query.Count))
	if err != nil {
		h.logger.Error("failed to get common phrases", "error", err)
		c.PureJSON(http.StatusInternalServerError, "something went wrong")
		return
	}

	output := make([]schema.PhraseCountOutput, 0, len(ranked))
	for _, r := range ranked {
		output = append(output, schema.PhraseCountOutput{Phrase: r.Key.String(), Count: r.Weight})
	}

	c.PureJSON(http.StatusOK, output)
}

func (h *Handler) handleUsersWithMostReacts(c *gin.Context) {
	h.handleUserRanking(c, "most reacts", h.engine.UsersWithMostReacts)
}

func (h *Handler) handleMostMessages(c *gin.Context) {
	h.handleUserRanking(c, "most messages", h.engine.MostMessages)
}

func (h *Handler) handleMostActive(c *gin.Context) {
	h.handleUserRanking(c, "most active", h.engine.MostActive)
}

func (h *Handler) handleUserRanking(c *gin.Context, name string, rank func(context.Context, int) ([]analytics.Ranked[string], error)) {
	var query schema.QueryInput
	if err := c.ShouldBindQuery(&query); err != nil {
		c.PureJSON(http.StatusBadRequest, err.Error())
		return
	}

	ranked, err := rank(c.Request.Context(), resultSize(query.Count))
	if err != nil {
		h.logger.Error("failed to rank users", "ranking", name, "error", err)
		c.PureJSON(http.StatusInternalServerError, "something went wrong")
		return
	}

	c.PureJSON(http.StatusOK, userCounts(ranked))
}
