package memory

import (
	"context"
	"iter"
	"sync"

	"denomination-wallet/internal/core/domain"

	"github.com/google/uuid"
)

// EventStore implements ports.EventStore in process memory. It is the storage
// driver for tests and for `storage.driver: memory`.
type EventStore struct {
	mu      sync.RWMutex
	streams map[uuid.UUID][]domain.Event
	log     []domain.Event
}

// NewEventStore creates an empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{streams: make(map[uuid.UUID][]domain.Event)}
}

// Append stores events if the stream is still at expectedVersion.
func (s *EventStore) Append(ctx context.Context, aggregateID uuid.UUID, expectedVersion int64, events []domain.Event) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := domain.CheckBatch(aggregateID, expectedVersion, events); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[aggregateID]
	if current := int64(len(stream)); current != expectedVersion {
		return 0, domain.NewConcurrencyConflict(aggregateID, expectedVersion, current)
	}
	s.streams[aggregateID] = append(stream, events...)
	s.log = append(s.log, events...)
	return expectedVersion + int64(len(events)), nil
}

// Load yields the events of one stream after fromVersion.
func (s *EventStore) Load(ctx context.Context, aggregateID uuid.UUID, fromVersion int64) iter.Seq2[domain.Event, error] {
	return func(yield func(domain.Event, error) bool) {
		s.mu.RLock()
		stream := s.streams[aggregateID]
		var tail []domain.Event
		if fromVersion < int64(len(stream)) {
			tail = stream[max(fromVersion, 0):]
		}
		s.mu.RUnlock()

		for _, evt := range tail {
			if err := ctx.Err(); err != nil {
				yield(domain.Event{}, err)
				return
			}
			if !yield(evt, nil) {
				return
			}
		}
	}
}

// LoadAll yields every event in append order.
func (s *EventStore) LoadAll(ctx context.Context) iter.Seq2[domain.Event, error] {
	return func(yield func(domain.Event, error) bool) {
		s.mu.RLock()
		all := s.log[:len(s.log):len(s.log)]
		s.mu.RUnlock()

		for _, evt := range all {
			if err := ctx.Err(); err != nil {
				yield(domain.Event{}, err)
				return
			}
			if !yield(evt, nil) {
				return
			}
		}
	}
}
