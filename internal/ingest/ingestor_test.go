package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"react-analytics/internal/domain"
	"react-analytics/internal/metrics"
	"react-analytics/internal/store/memstore"
)

func reactCount(t *testing.T, repo domain.Repository, id domain.MessageID, react string) int64 {
	t.Helper()
	rows, err := repo.GetReactsOnMessage(context.Background(), id)
	require.NoError(t, err)
	for _, r := range rows {
		if r.Key == react {
			return r.Count
		}
	}
	return 0
}

func TestIngestor_AddTwiceRemoveThrice(t *testing.T) {
	repo := memstore.New()
	ing := NewIngestor(repo, nil, nil)
	ctx := context.Background()

	added := domain.ReactionAdded{ChannelID: "C1", Timestamp: "1.0", UserID: "U1", React: "+1"}
	removed := domain.ReactionRemoved{ChannelID: "C1", Timestamp: "1.0", UserID: "U1", React: "+1"}

	events := []domain.Event{added, added, removed, removed, removed}
	for _, ev := range events {
		require.NoError(t, ing.Apply(ctx, ev))
	}

	assert.Zero(t, reactCount(t, repo, added.MessageID(), "+1"))

	global, err := repo.GetReactCounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, global)

	byUser, err := repo.GetReactsByUser(ctx, "U1")
	require.NoError(t, err)
	assert.Empty(t, byUser)
}

func TestIngestor_DuplicatePostIsSkipped(t *testing.T) {
	repo := memstore.New()
	m := metrics.New(prometheus.NewRegistry())
	ing := NewIngestor(repo, nil, m)
	ctx := context.Background()

	first := domain.MessagePosted{TeamID: "T1", ChannelID: "C1", Timestamp: "1.0", UserID: "U1", Text: "first"}
	second := first
	second.Text = "edited"

	require.NoError(t, ing.Apply(ctx, first))
	require.NoError(t, ing.Apply(ctx, second))

	text, err := repo.GetMessageText(ctx, first.MessageID())
	require.NoError(t, err)
	assert.Equal(t, "first", text)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicateMessages))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues(domain.KindMessagePosted, metrics.StatusApplied)))
}

func TestIngestor_RemoveMessage(t *testing.T) {
	repo := memstore.New()
	ing := NewIngestor(repo, nil, nil)
	ctx := context.Background()

	removed := domain.MessageRemoved{ChannelID: "C1", Timestamp: "1.0"}
	require.NoError(t, ing.Apply(ctx, removed), "removing an absent message is a no-op")

	require.NoError(t, ing.Apply(ctx, domain.MessagePosted{ChannelID: "C1", Timestamp: "1.0", UserID: "U1", Text: "hi"}))
	require.NoError(t, ing.Apply(ctx, domain.ReactionAdded{ChannelID: "C1", Timestamp: "1.0", UserID: "U2", React: "wave"}))
	require.NoError(t, ing.Apply(ctx, removed))

	text, err := repo.GetMessageText(ctx, removed.MessageID())
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, int64(1), reactCount(t, repo, removed.MessageID(), "wave"), "tallies outlive the message")
}

func TestIngestor_ApplySnapshotCountsReactionsOnce(t *testing.T) {
	repo := memstore.New()
	ing := NewIngestor(repo, nil, nil)
	ctx := context.Background()

	posted := domain.MessagePosted{TeamID: "T1", ChannelID: "C1", Timestamp: "1.0", UserID: "U1", Text: "from history"}
	reactions := []domain.ReactionAdded{
		{ChannelID: "C1", Timestamp: "1.0", UserID: "U2", React: "fire"},
		{ChannelID: "C1", Timestamp: "1.0", UserID: "U3", React: "fire"},
	}

	stored, err := ing.ApplySnapshot(ctx, posted, reactions)
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = ing.ApplySnapshot(ctx, posted, reactions)
	require.NoError(t, err)
	assert.False(t, stored)

	assert.Equal(t, int64(2), reactCount(t, repo, posted.MessageID(), "fire"))

	_, err = ing.ApplySnapshot(ctx, domain.MessagePosted{ChannelID: "C1"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
}

// flakyRepo fails the first snapshot write without touching the store,
// the way a rolled-back transaction does.
type flakyRepo struct {
	*memstore.Store
	failures int
}

func (r *flakyRepo) InsertMessageWithReacts(ctx context.Context, msg domain.Message, reacts []domain.UserReact) error {
	if r.failures > 0 {
		r.failures--
		return errStore
	}
	return r.Store.InsertMessageWithReacts(ctx, msg, reacts)
}

func TestIngestor_ApplySnapshotRetryAfterFailure(t *testing.T) {
	repo := &flakyRepo{Store: memstore.New(), failures: 1}
	m := metrics.New(prometheus.NewRegistry())
	ing := NewIngestor(repo, nil, m)
	ctx := context.Background()

	posted := domain.MessagePosted{ChannelID: "C1", Timestamp: "1.0", UserID: "U1", Text: "from history"}
	reactions := []domain.ReactionAdded{
		{ChannelID: "C1", Timestamp: "1.0", UserID: "U2", React: "fire"},
		{ChannelID: "C1", Timestamp: "1.0", UserID: "U3", React: "fire"},
		{ChannelID: "C1", Timestamp: "1.0", UserID: "U4", React: "fire"},
	}

	stored, err := ing.ApplySnapshot(ctx, posted, reactions)
	require.ErrorIs(t, err, errStore)
	assert.False(t, stored)
	assert.Equal(t, int64(0), reactCount(t, repo, posted.MessageID(), "fire"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues(domain.KindMessagePosted, metrics.StatusFailed)))

	stored, err = ing.ApplySnapshot(ctx, posted, reactions)
	require.NoError(t, err)
	assert.True(t, stored, "the retry stores the message")
	assert.Equal(t, int64(3), reactCount(t, repo, posted.MessageID(), "fire"))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues(domain.KindReactionAdded, metrics.StatusApplied)))
}

func TestIngestor_ApplySnapshotNeverUsesSingleIncrements(t *testing.T) {
	// brokenRepo fails every IncrementReact; snapshots must not depend on it.
	repo := brokenRepo{memstore.New()}
	ing := NewIngestor(repo, nil, nil)

	posted := domain.MessagePosted{ChannelID: "C1", Timestamp: "1.0", UserID: "U1", Text: "from history"}
	reactions := []domain.ReactionAdded{
		{ChannelID: "C1", Timestamp: "1.0", UserID: "U2", React: "fire"},
		{ChannelID: "C1", Timestamp: "1.0", UserID: "U3", React: "fire"},
	}

	stored, err := ing.ApplySnapshot(context.Background(), posted, reactions)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, int64(2), reactCount(t, repo, posted.MessageID(), "fire"))
}

func TestIngestor_ApplySnapshotRejectsForeignReaction(t *testing.T) {
	repo := memstore.New()
	ing := NewIngestor(repo, nil, nil)

	posted := domain.MessagePosted{ChannelID: "C1", Timestamp: "1.0", UserID: "U1", Text: "from history"}
	reactions := []domain.ReactionAdded{{ChannelID: "C1", Timestamp: "2.0", UserID: "U2", React: "fire"}}

	_, err := ing.ApplySnapshot(context.Background(), posted, reactions)
	require.ErrorIs(t, err, domain.ErrInvalidEvent)

	text, err := repo.GetMessageText(context.Background(), posted.MessageID())
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestIngestor_Rejects(t *testing.T) {
	ing := NewIngestor(memstore.New(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		ev   domain.Event
		want error
	}{
		{name: "nil event", ev: nil, want: domain.ErrUnknownEvent},
		{name: "missing react", ev: domain.ReactionAdded{ChannelID: "C1", Timestamp: "1.0", UserID: "U1"}, want: domain.ErrInvalidEvent},
		{name: "missing channel", ev: domain.MessageRemoved{Timestamp: "1.0"}, want: domain.ErrInvalidEvent},
		{name: "missing author", ev: domain.MessagePosted{ChannelID: "C1", Timestamp: "1.0"}, want: domain.ErrInvalidEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ing.Apply(ctx, tt.ev), tt.want)
		})
	}
}

type brokenRepo struct {
	*memstore.Store
}

var errStore = errors.New("store unavailable")

func (brokenRepo) IncrementReact(context.Context, domain.MessageID, string, string) error {
	return errStore
}

func TestIngestor_RepositoryFailurePropagates(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	ing := NewIngestor(brokenRepo{memstore.New()}, nil, m)

	err := ing.Apply(context.Background(), domain.ReactionAdded{ChannelID: "C1", Timestamp: "1.0", UserID: "U1", React: "+1"})
	require.ErrorIs(t, err, errStore)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues(domain.KindReactionAdded, metrics.StatusFailed)))
}
