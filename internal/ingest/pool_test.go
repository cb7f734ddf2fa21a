package ingest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"react-analytics/internal/domain"
	"react-analytics/internal/store/memstore"
)

func TestPool_PerMessageOrder(t *testing.T) {
	repo := memstore.New()
	pool := NewPool(NewIngestor(repo, nil, nil), PoolConfig{Workers: 4, QueueSize: 256}, nil, nil)
	pool.Start(context.Background())
	ctx := context.Background()

	var ids []domain.MessageID
	for c := 0; c < 8; c++ {
		id := domain.NewMessageID(fmt.Sprintf("C%d", c), "1.0")
		ids = append(ids, id)

		added := domain.ReactionAdded{ChannelID: id.ChannelID, Timestamp: id.Timestamp, UserID: "U1", React: "+1"}
		removed := domain.ReactionRemoved{ChannelID: id.ChannelID, Timestamp: id.Timestamp, UserID: "U1", React: "+1"}
		// Net one per message only when applied in submission order.
		for _, ev := range []domain.Event{added, removed, removed, added} {
			require.NoError(t, pool.Submit(ctx, ev))
		}
	}
	pool.Close()

	for _, id := range ids {
		assert.Equal(t, int64(1), reactCount(t, repo, id, "+1"), id.String())
	}
}

func TestPool_NotifiesObserversAfterApply(t *testing.T) {
	repo := memstore.New()
	pool := NewPool(NewIngestor(repo, nil, nil), PoolConfig{Workers: 2, QueueSize: 16}, nil, nil)

	var mu sync.Mutex
	var seen []string
	pool.Subscribe(func(ev domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, ev.Kind())
	})
	pool.Start(context.Background())

	ctx := context.Background()
	require.NoError(t, pool.Submit(ctx, domain.MessagePosted{ChannelID: "C1", Timestamp: "1.0", UserID: "U1", Text: "hi"}))
	require.NoError(t, pool.Submit(ctx, domain.ReactionAdded{ChannelID: "C1", Timestamp: "1.0", UserID: "U2", React: "wave"}))
	require.NoError(t, pool.Submit(ctx, domain.ReactionAdded{ChannelID: "C1", Timestamp: "1.0", UserID: "U2"}))
	pool.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{domain.KindMessagePosted, domain.KindReactionAdded}, seen, "invalid events are not broadcast")
}

type blockingApplier struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingApplier) Apply(context.Context, domain.Event) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil
}

func TestPool_SubmitReportsFullQueue(t *testing.T) {
	applier := &blockingApplier{started: make(chan struct{}), release: make(chan struct{})}
	pool := NewPool(applier, PoolConfig{Workers: 1, QueueSize: 1}, nil, nil)
	pool.Start(context.Background())
	ctx := context.Background()

	ev := domain.ReactionAdded{ChannelID: "C1", Timestamp: "1.0", UserID: "U1", React: "+1"}

	require.NoError(t, pool.Submit(ctx, ev))
	<-applier.started
	require.NoError(t, pool.Submit(ctx, ev))
	assert.ErrorIs(t, pool.Submit(ctx, ev), ErrQueueFull)

	close(applier.release)
	pool.Close()

	assert.ErrorIs(t, pool.Submit(ctx, ev), ErrPoolClosed)
	assert.NotPanics(t, pool.Close)
}

func TestPool_SubmitHonoursContext(t *testing.T) {
	pool := NewPool(NewIngestor(memstore.New(), nil, nil), PoolConfig{}, nil, nil)
	pool.Start(context.Background())
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pool.Submit(ctx, domain.MessageRemoved{ChannelID: "C1", Timestamp: "1.0"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_SubmitRejectsNilEvent(t *testing.T) {
	pool := NewPool(NewIngestor(memstore.New(), nil, nil), PoolConfig{}, nil, nil)
	pool.Start(context.Background())
	defer pool.Close()

	err := pool.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)
}
