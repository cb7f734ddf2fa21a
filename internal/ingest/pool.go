package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"

	"react-analytics/internal/domain"
	"react-analytics/internal/metrics"
)

var (
	ErrQueueFull  = errors.New("ingest queue full")
	ErrPoolClosed = errors.New("ingest pool closed")
)

// Observer is told about every event after it has been applied.
type Observer func(domain.Event)

type PoolConfig struct {
	Workers   int
	QueueSize int
}

// Pool dispatches events to a fixed set of workers. Each worker owns one
// bounded queue, and an event's queue is chosen by hashing its message id,
// so events for one message are applied in the order they were submitted
// while different messages proceed in parallel.
type Pool struct {
	applier Applier
	logger  *slog.Logger
	metrics *metrics.Metrics

	queues []chan domain.Event
	wg     sync.WaitGroup

	mu        sync.RWMutex
	closed    bool
	observers []Observer
}

func NewPool(applier Applier, cfg PoolConfig, logger *slog.Logger, m *metrics.Metrics) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		applier: applier,
		logger:  logger,
		metrics: m,
		queues:  make([]chan domain.Event, cfg.Workers),
	}
	for n := range p.queues {
		p.queues[n] = make(chan domain.Event, cfg.QueueSize)
	}
	return p
}

// Start launches the workers. Events are applied with ctx, which should
// outlive the pool; Close is how the pool is stopped.
func (p *Pool) Start(ctx context.Context) {
	for n, queue := range p.queues {
		p.wg.Add(1)
		go p.work(ctx, n, queue)
	}
}

// Subscribe registers fn for applied events. It is called from worker
// goroutines and must not block for long.
func (p *Pool) Subscribe(fn Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.observers = append(p.observers, fn)
}

// Submit enqueues ev without blocking. It returns ErrQueueFull when the
// event's shard has no room.
func (p *Pool) Submit(ctx context.Context, ev domain.Event) error {
	if ev == nil {
		return fmt.Errorf("%w: nil event", domain.ErrUnknownEvent)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	n := p.shard(ev.MessageID())
	select {
	case p.queues[n] <- ev:
		p.metrics.SetQueueDepth(n, len(p.queues[n]))
		return nil
	default:
		p.metrics.Event(ev.Kind(), metrics.StatusDropped)
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for the queued ones to be applied.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, queue := range p.queues {
		close(queue)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) shard(id domain.MessageID) int {
	h := xxhash.Sum64String(id.ChannelID + "|" + id.Timestamp)
	return int(h % uint64(len(p.queues)))
}

func (p *Pool) work(ctx context.Context, n int, queue <-chan domain.Event) {
	defer p.wg.Done()

	for ev := range queue {
		p.metrics.SetQueueDepth(n, len(queue))

		if err := p.applier.Apply(ctx, ev); err != nil {
			p.logger.Error("failed to apply event",
				"kind", ev.Kind(),
				"message_id", ev.MessageID().String(),
				"shard", n,
				"error", err,
			)
			continue
		}
		p.notify(ev)
	}
}

func (p *Pool) notify(ev domain.Event) {
	p.mu.RLock()
	observers := p.observers
	p.mu.RUnlock()

	for _, fn := range observers {
		fn(ev)
	}
}
