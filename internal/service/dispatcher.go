package service

import (
	"context"
	"errors"
	"sync"

	"denomination-wallet/internal/core/domain"
	"denomination-wallet/internal/core/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var errPublisherClosed = errors.New("event publisher closed")

// SyncPublisher projects events on the caller's goroutine, so reads issued after
// a successful command already see it.
type SyncPublisher struct {
	projector *Projector
}

// NewSyncPublisher creates a new SyncPublisher.
func NewSyncPublisher(projector *Projector) *SyncPublisher {
	return &SyncPublisher{projector: projector}
}

// Publish projects events in order and stops at the first failure.
func (p *SyncPublisher) Publish(ctx context.Context, events []domain.Event) error {
	for _, evt := range events {
		if err := p.projector.Project(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// AsyncPublisher queues events for a fixed pool of projection workers. Each
// wallet always lands on the same worker, which keeps its events in order.
// Listings cached while an event waited in the queue are dropped once it is
// projected.
type AsyncPublisher struct {
	projector   *Projector
	invalidator ports.CacheInvalidator // optional
	shards      []chan domain.Event
	log         zerolog.Logger

	mu     sync.RWMutex
	closed bool
	g      *errgroup.Group
}

// NewAsyncPublisher creates an AsyncPublisher with the given worker count and
// per-worker queue length. invalidator may be nil. Call Start before publishing.
func NewAsyncPublisher(projector *Projector, invalidator ports.CacheInvalidator, workers, buffer int, log zerolog.Logger) *AsyncPublisher {
	workers = max(workers, 1)
	shards := make([]chan domain.Event, workers)
	for i := range shards {
		shards[i] = make(chan domain.Event, max(buffer, 0))
	}
	return &AsyncPublisher{
		projector:   projector,
		invalidator: invalidator,
		shards:      shards,
		log:         log,
		g:           &errgroup.Group{},
	}
}

// Start launches the workers. They drain their queues until Close.
func (p *AsyncPublisher) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i, ch := range p.shards {
		p.g.Go(func() error {
			for evt := range ch {
				if err := p.projector.Project(ctx, evt); err != nil {
					p.log.Warn().Err(err).
						Int("worker", i).
						Str("wallet_id", evt.AggregateID.String()).
						Int64("version", evt.Version).
						Msg("async projection failed, next event for this wallet catches up")
					continue
				}
				p.invalidate(ctx, evt)
			}
			return nil
		})
	}
	p.log.Info().Int("workers", len(p.shards)).Msg("projection workers started")
}

func (p *AsyncPublisher) invalidate(ctx context.Context, evt domain.Event) {
	if p.invalidator == nil {
		return
	}
	sig := ports.InvalidationSignal{WalletID: evt.AggregateID, ActorID: evt.ActorID}
	if err := p.invalidator.Invalidate(ctx, sig); err != nil {
		p.log.Warn().Err(err).Str("wallet_id", evt.AggregateID.String()).Msg("cache invalidation after projection failed")
	}
}

// Publish enqueues events. It blocks while the worker queue is full and gives up
// when ctx is done.
func (p *AsyncPublisher) Publish(ctx context.Context, events []domain.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errPublisherClosed
	}
	for _, evt := range events {
		select {
		case p.shards[shardFor(evt.AggregateID, len(p.shards))] <- evt:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close stops accepting events, then waits for the queued ones to be projected.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		for _, ch := range p.shards {
			close(ch)
		}
	}
	p.mu.Unlock()
	return p.g.Wait()
}
