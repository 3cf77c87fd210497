package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"denomination-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SnapshotStore implements ports.SnapshotStore on wallet_snapshots.
type SnapshotStore struct {
	pool Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Save stores snap. A snapshot already taken at the same version is kept.
func (s *SnapshotStore) Save(ctx context.Context, snap domain.WalletSnapshot) error {
	state, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO wallet_snapshots (wallet_id, version, state, taken_at)
		VALUES ($1, $2, $3, $4) ON CONFLICT (wallet_id, version) DO NOTHING`,
		snap.WalletID, snap.Version, state, snap.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Latest returns the newest snapshot of a wallet, or nil if none was taken.
func (s *SnapshotStore) Latest(ctx context.Context, walletID uuid.UUID) (*domain.WalletSnapshot, error) {
	var state []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM wallet_snapshots
		WHERE wallet_id = $1 ORDER BY version DESC LIMIT 1`, walletID).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}

	snap := &domain.WalletSnapshot{}
	if err := json.Unmarshal(state, snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
