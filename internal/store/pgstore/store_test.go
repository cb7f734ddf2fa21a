package pgstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"react-analytics/internal/domain"
	"react-analytics/internal/store/storetest"
)

func TestStore(t *testing.T) {
	url := os.Getenv("REACTS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("REACTS_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := Open(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "migrations are idempotent")

	storetest.Run(t, func(t *testing.T) domain.Repository {
		_, err := store.pool.Exec(ctx, `TRUNCATE messages, reacts_on_message, reacts_on_user, react_counts`)
		require.NoError(t, err)
		return store
	})
}
