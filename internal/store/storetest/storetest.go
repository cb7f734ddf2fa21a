// Package storetest is a conformance suite every domain.Repository backend
// runs from its own tests.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"react-analytics/internal/domain"
)

// Factory returns an empty repository. Cleanup is registered on t.
type Factory func(t *testing.T) domain.Repository

func Run(t *testing.T, newRepo Factory) {
	t.Run("InsertMessage", func(t *testing.T) { testInsertMessage(t, newRepo(t)) })
	t.Run("InsertMessageWithReacts", func(t *testing.T) { testInsertMessageWithReacts(t, newRepo(t)) })
	t.Run("DeleteMessage", func(t *testing.T) { testDeleteMessage(t, newRepo(t)) })
	t.Run("Additivity", func(t *testing.T) { testAdditivity(t, newRepo(t)) })
	t.Run("FloorInvariant", func(t *testing.T) { testFloorInvariant(t, newRepo(t)) })
	t.Run("RemoveNeverAdded", func(t *testing.T) { testRemoveNeverAdded(t, newRepo(t)) })
	t.Run("GlobalConsistency", func(t *testing.T) { testGlobalConsistency(t, newRepo(t)) })
	t.Run("Reads", func(t *testing.T) { testReads(t, newRepo(t)) })
	t.Run("ConcurrentSameKey", func(t *testing.T) { testConcurrentSameKey(t, newRepo(t)) })
}

func count(rows []domain.KeyCount, key string) int64 {
	for _, r := range rows {
		if r.Key == key {
			return r.Count
		}
	}
	return 0
}

// counters returns the per-message, per-user and global count for one react.
func counters(t *testing.T, repo domain.Repository, id domain.MessageID, user, react string) (int64, int64, int64) {
	t.Helper()
	ctx := context.Background()

	onMessage, err := repo.GetReactsOnMessage(ctx, id)
	require.NoError(t, err)
	byUser, err := repo.GetReactsByUser(ctx, user)
	require.NoError(t, err)
	global, err := repo.GetReactCounts(ctx)
	require.NoError(t, err)

	return count(onMessage, react), count(byUser, react), count(global, react)
}

func testInsertMessage(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	id := domain.NewMessageID("C1", "1.0")

	require.NoError(t, repo.InsertMessage(ctx, domain.Message{ID: id, TeamID: "T1", UserID: "U1", Text: "first"}))

	err := repo.InsertMessage(ctx, domain.Message{ID: id, TeamID: "T1", UserID: "U2", Text: "second"})
	require.ErrorIs(t, err, domain.ErrDuplicateMessage)

	text, err := repo.GetMessageText(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "first", text)

	ids, err := repo.GetMessagesByUser(ctx, "U2")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func testInsertMessageWithReacts(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	id := domain.NewMessageID("C1", "1.0")
	reacts := []domain.UserReact{
		{UserID: "U1", React: "fire"},
		{UserID: "U2", React: "fire"},
		{UserID: "U2", React: "tada"},
	}

	require.NoError(t, repo.InsertMessageWithReacts(ctx, domain.Message{ID: id, UserID: "U1", Text: "ship it"}, reacts))

	onMessage, byUser, global := counters(t, repo, id, "U2", "fire")
	assert.Equal(t, int64(2), onMessage)
	assert.Equal(t, int64(1), byUser)
	assert.Equal(t, int64(2), global)

	err := repo.InsertMessageWithReacts(ctx, domain.Message{ID: id, UserID: "U1", Text: "again"}, reacts)
	require.ErrorIs(t, err, domain.ErrDuplicateMessage)

	onMessage, _, global = counters(t, repo, id, "U2", "fire")
	assert.Equal(t, int64(2), onMessage, "a stored message counts nothing again")
	assert.Equal(t, int64(2), global)

	text, err := repo.GetMessageText(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ship it", text)

	other := domain.NewMessageID("C1", "2.0")
	require.NoError(t, repo.InsertMessageWithReacts(ctx, domain.Message{ID: other, UserID: "U3", Text: "quiet"}, nil))
	ids, err := repo.GetMessagesByUser(ctx, "U3")
	require.NoError(t, err)
	assert.Equal(t, []domain.MessageID{other}, ids)
}

func testDeleteMessage(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	id := domain.NewMessageID("C1", "1.0")

	require.NoError(t, repo.DeleteMessage(ctx, id), "deleting an absent message is a no-op")

	require.NoError(t, repo.InsertMessage(ctx, domain.Message{ID: id, UserID: "U1", Text: "hello"}))
	require.NoError(t, repo.DeleteMessage(ctx, id))

	text, err := repo.GetMessageText(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, text)

	require.NoError(t, repo.InsertMessage(ctx, domain.Message{ID: id, UserID: "U1", Text: "again"}),
		"a removed id can be posted again")
}

func testAdditivity(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	id := domain.NewMessageID("C1", "1.0")

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.IncrementReact(ctx, id, "U1", "+1"))
	}
	require.NoError(t, repo.IncrementReact(ctx, id, "U2", "+1"))

	onMessage, byUser, global := counters(t, repo, id, "U1", "+1")
	assert.Equal(t, int64(4), onMessage)
	assert.Equal(t, int64(3), byUser)
	assert.Equal(t, int64(4), global)
}

func testFloorInvariant(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	id := domain.NewMessageID("C1", "1.0")

	steps := []struct {
		add  bool
		want int64
	}{
		{true, 1}, {true, 2}, {false, 1}, {false, 0}, {false, 0}, {true, 1}, {false, 0}, {false, 0},
	}
	for i, step := range steps {
		if step.add {
			require.NoError(t, repo.IncrementReact(ctx, id, "U1", "+1"))
		} else {
			require.NoError(t, repo.DecrementReact(ctx, id, "U1", "+1"))
		}
		onMessage, byUser, global := counters(t, repo, id, "U1", "+1")
		assert.Equal(t, step.want, onMessage, "step %d message", i)
		assert.Equal(t, step.want, byUser, "step %d user", i)
		assert.Equal(t, step.want, global, "step %d global", i)
	}
}

func testRemoveNeverAdded(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	id := domain.NewMessageID("C1", "1.0")

	require.NoError(t, repo.DecrementReact(ctx, id, "U1", "tada"))

	onMessage, byUser, global := counters(t, repo, id, "U1", "tada")
	assert.Zero(t, onMessage)
	assert.Zero(t, byUser)
	assert.Zero(t, global)
}

func testGlobalConsistency(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	ids := []domain.MessageID{
		domain.NewMessageID("C1", "1.0"),
		domain.NewMessageID("C1", "2.0"),
		domain.NewMessageID("C2", "1.0"),
	}
	users := []string{"U1", "U2", "U3"}
	reacts := []string{"+1", "fire", "tada"}

	// A fixed walk that mixes adds with removes, some of them against zero.
	for i := 0; i < 60; i++ {
		id := ids[i%len(ids)]
		user := users[(i/2)%len(users)]
		react := reacts[(i*7)%len(reacts)]
		if i%3 == 2 || i%11 == 0 {
			require.NoError(t, repo.DecrementReact(ctx, id, user, react))
		} else {
			require.NoError(t, repo.IncrementReact(ctx, id, user, react))
		}
	}
	// A removal against a different user than the one who added.
	require.NoError(t, repo.DecrementReact(ctx, ids[0], "U9", "+1"))

	all, err := repo.GetAllMessageReacts(ctx)
	require.NoError(t, err)
	sums := map[string]int64{}
	for _, r := range all {
		assert.Positive(t, r.Count)
		sums[r.React] += r.Count
	}

	global, err := repo.GetReactCounts(ctx)
	require.NoError(t, err)
	for _, react := range reacts {
		assert.Equal(t, sums[react], count(global, react), "react %s", react)
	}
}

func testReads(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	m1 := domain.Message{ID: domain.NewMessageID("C1", "1.0"), TeamID: "T1", UserID: "U1", Text: "hello world"}
	m2 := domain.Message{ID: domain.NewMessageID("C1", "2.0"), TeamID: "T1", UserID: "U2", Text: "second one"}
	m3 := domain.Message{ID: domain.NewMessageID("C2", "1.0"), TeamID: "T1", UserID: "U1", Text: "other channel"}
	for _, m := range []domain.Message{m3, m2, m1} {
		require.NoError(t, repo.InsertMessage(ctx, m))
	}

	require.NoError(t, repo.IncrementReact(ctx, m1.ID, "U2", "fire"))
	require.NoError(t, repo.IncrementReact(ctx, m1.ID, "U3", "+1"))
	require.NoError(t, repo.IncrementReact(ctx, m3.ID, "U3", "+1"))
	require.NoError(t, repo.IncrementReact(ctx, m2.ID, "U2", "tada"))
	require.NoError(t, repo.DecrementReact(ctx, m2.ID, "U2", "tada"))

	ids, err := repo.GetMessagesByUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, []domain.MessageID{m1.ID, m3.ID}, ids)

	ids, err = repo.GetMessageIDs(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, []domain.MessageID{m1.ID, m2.ID}, ids)

	ids, err = repo.GetMessageIDs(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []domain.MessageID{m1.ID, m2.ID, m3.ID}, ids)

	texts, err := repo.GetAllMessageTexts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world", "second one", "other channel"}, texts)

	texts, err = repo.GetMessageTextsWithReact(ctx, "+1")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world", "other channel"}, texts)

	texts, err = repo.GetMessageTextsWithReact(ctx, "tada")
	require.NoError(t, err)
	assert.Empty(t, texts, "a react counted back to zero no longer marks the message")

	onMessage, err := repo.GetReactsOnMessage(ctx, m1.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.KeyCount{{Key: "+1", Count: 1}, {Key: "fire", Count: 1}}, onMessage)

	all, err := repo.GetAllMessageReacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.MessageReact{
		{MessageID: m1.ID, React: "+1", Count: 1},
		{MessageID: m1.ID, React: "fire", Count: 1},
		{MessageID: m3.ID, React: "+1", Count: 1},
	}, all)

	totals, err := repo.GetUserReactTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.KeyCount{{Key: "U2", Count: 1}, {Key: "U3", Count: 2}}, totals)

	messages, err := repo.GetUserMessageCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.KeyCount{{Key: "U1", Count: 2}, {Key: "U2", Count: 1}}, messages)

	text, err := repo.GetMessageText(ctx, domain.NewMessageID("C9", "9.9"))
	require.NoError(t, err)
	assert.Empty(t, text)

	byUser, err := repo.GetReactsByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, byUser)
}

func testConcurrentSameKey(t *testing.T, repo domain.Repository) {
	ctx := context.Background()
	id := domain.NewMessageID("C1", "1.0")
	const n = 40

	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.IncrementReact(ctx, id, "U1", "+1")
		}()
	}
	wg.Wait()

	onMessage, byUser, global := counters(t, repo, id, "U1", "+1")
	assert.Equal(t, int64(n), onMessage)
	assert.Equal(t, int64(n), byUser)
	assert.Equal(t, int64(n), global)

	for i := 0; i < n+10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.DecrementReact(ctx, id, "U1", "+1")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	onMessage, byUser, global = counters(t, repo, id, "U1", "+1")
	assert.Zero(t, onMessage)
	assert.Zero(t, byUser)
	assert.Zero(t, global)
}
