package postgres

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"denomination-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const eventColumns = `event_id, wallet_id, version, event_type, transaction_group_id, actor_id, payload, recorded_at`

// EventStore implements ports.EventStore on wallet_streams and wallet_events.
type EventStore struct {
	pool Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Append writes events in one transaction. The wallet_streams row is the version
// guard: it is inserted for a new stream and advanced only from expectedVersion.
func (s *EventStore) Append(ctx context.Context, aggregateID uuid.UUID, expectedVersion int64, events []domain.Event) (int64, error) {
	if err := domain.CheckBatch(aggregateID, expectedVersion, events); err != nil {
		return 0, err
	}
	newVersion := expectedVersion + int64(len(events))

	err := withTx(ctx, s.pool, func(tx pgx.Tx) error {
		var (
			tag pgconn.CommandTag
			err error
		)
		if expectedVersion == 0 {
			tag, err = tx.Exec(ctx, `INSERT INTO wallet_streams (wallet_id, version, updated_at)
				VALUES ($1, $2, NOW()) ON CONFLICT (wallet_id) DO NOTHING`, aggregateID, newVersion)
		} else {
			tag, err = tx.Exec(ctx, `UPDATE wallet_streams SET version = $1, updated_at = NOW()
				WHERE wallet_id = $2 AND version = $3`, newVersion, aggregateID, expectedVersion)
		}
		if err != nil {
			return fmt.Errorf("advance wallet stream: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.NewConcurrencyConflict(aggregateID, expectedVersion, -1)
		}

		for _, evt := range events {
			payload, err := evt.MarshalPayload()
			if err != nil {
				return fmt.Errorf("encode event %s: %w", evt.ID, err)
			}
			_, err = tx.Exec(ctx, `INSERT INTO wallet_events (`+eventColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				evt.ID, evt.AggregateID, evt.Version, string(evt.Type),
				nullableUUID(evt.TransactionGroupID), evt.ActorID, payload, evt.RecordedAt,
			)
			if err != nil {
				if isUniqueViolation(err) {
					return domain.NewConcurrencyConflict(aggregateID, expectedVersion, -1)
				}
				return fmt.Errorf("insert event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

// Load yields the events of one stream with a version above fromVersion, in order.
func (s *EventStore) Load(ctx context.Context, aggregateID uuid.UUID, fromVersion int64) iter.Seq2[domain.Event, error] {
	return s.stream(ctx, `SELECT `+eventColumns+` FROM wallet_events
		WHERE wallet_id = $1 AND version > $2 ORDER BY version`, aggregateID, fromVersion)
}

// LoadAll yields every stored event in append order.
func (s *EventStore) LoadAll(ctx context.Context) iter.Seq2[domain.Event, error] {
	return s.stream(ctx, `SELECT `+eventColumns+` FROM wallet_events ORDER BY global_seq`)
}

func (s *EventStore) stream(ctx context.Context, query string, args ...any) iter.Seq2[domain.Event, error] {
	return func(yield func(domain.Event, error) bool) {
		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			yield(domain.Event{}, fmt.Errorf("load events: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			evt, err := scanEvent(rows)
			if err != nil {
				yield(domain.Event{}, err)
				return
			}
			if !yield(evt, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(domain.Event{}, fmt.Errorf("iterate event rows: %w", err))
		}
	}
}

func scanEvent(rows pgx.Rows) (domain.Event, error) {
	var (
		evt     domain.Event
		typ     string
		group   *uuid.UUID
		payload []byte
	)
	err := rows.Scan(&evt.ID, &evt.AggregateID, &evt.Version, &typ, &group, &evt.ActorID, &payload, &evt.RecordedAt)
	if err != nil {
		return domain.Event{}, fmt.Errorf("scan event row: %w", err)
	}
	evt.Type = domain.EventType(typ)
	if group != nil {
		evt.TransactionGroupID = *group
	}
	evt.Payload, err = domain.DecodePayload(evt.Type, payload)
	if err != nil {
		return domain.Event{}, fmt.Errorf("decode event %s: %w", evt.ID, err)
	}
	return evt, nil
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
