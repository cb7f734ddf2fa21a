package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"react-analytics/internal/domain"
	"react-analytics/internal/store/storetest"
)

func open(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.Repository {
		return open(t, ":memory:")
	})
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reacts.db")
	ctx := context.Background()
	id := domain.NewMessageID("C1", "1.0")

	first := open(t, path)
	require.NoError(t, first.InsertMessage(ctx, domain.Message{ID: id, UserID: "U1", Text: "kept"}))
	require.NoError(t, first.IncrementReact(ctx, id, "U2", "+1"))
	require.NoError(t, first.Close())

	second := open(t, path)
	text, err := second.GetMessageText(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "kept", text)

	counts, err := second.GetReactCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.KeyCount{{Key: "+1", Count: 1}}, counts)
}

func TestStore_InsertMessageWithReactsIsAllOrNothing(t *testing.T) {
	store := open(t, ":memory:")
	ctx := context.Background()
	id := domain.NewMessageID("C1", "1.0")
	msg := domain.Message{ID: id, UserID: "U1", Text: "ship it"}
	reacts := []domain.UserReact{
		{UserID: "U1", React: "fire"},
		{UserID: "U2", React: "fire"},
		{UserID: "U3", React: "fire"},
	}

	_, err := store.conn.ExecContext(ctx, `
		CREATE TRIGGER fail_second_react BEFORE INSERT ON reacts_on_user
		WHEN NEW.user_id = 'U2'
		BEGIN SELECT RAISE(ABORT, 'store unavailable'); END
	`)
	require.NoError(t, err)

	require.Error(t, store.InsertMessageWithReacts(ctx, msg, reacts))

	text, err := store.GetMessageText(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, text, "the message is rolled back with its reactions")
	counts, err := store.GetReactCounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)

	_, err = store.conn.ExecContext(ctx, `DROP TRIGGER fail_second_react`)
	require.NoError(t, err)

	require.NoError(t, store.InsertMessageWithReacts(ctx, msg, reacts), "a retry applies everything")
	counts, err = store.GetReactCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.KeyCount{{Key: "fire", Count: 3}}, counts)
}
