package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// IdempotencyStore implements ports.IdempotencyCache on idempotency_keys.
// A row holds a finished result, an in-flight claim, or both.
type IdempotencyStore struct {
	pool Pool
	now  func() time.Time
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(pool Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool, now: time.Now}
}

// Get returns the stored result for key, or nil if there is none or it expired.
func (s *IdempotencyStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT response_json FROM idempotency_keys
		WHERE key = $1 AND response_json IS NOT NULL AND expires_at > $2`, key, s.now().UTC()).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency result: %w", err)
	}
	return data, nil
}

// Set stores value under key until ttl elapses.
func (s *IdempotencyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO idempotency_keys (key, response_json, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET response_json = EXCLUDED.response_json, expires_at = EXCLUDED.expires_at`,
		key, value, s.now().UTC().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("set idempotency result: %w", err)
	}
	return nil
}

// Reserve claims key for ttl. A claim held by another request that has not yet
// lapsed makes it report false.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := s.now().UTC()
	tag, err := s.pool.Exec(ctx, `INSERT INTO idempotency_keys (key, reserved_until)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET reserved_until = EXCLUDED.reserved_until
		WHERE idempotency_keys.reserved_until IS NULL OR idempotency_keys.reserved_until <= $3`,
		key, now.Add(ttl), now,
	)
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Release drops the in-flight claim on key and keeps any stored result.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `UPDATE idempotency_keys SET reserved_until = NULL WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
