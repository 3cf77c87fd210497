package memory

import (
	"context"
	"sync"

	"denomination-wallet/internal/core/domain"

	"github.com/google/uuid"
)

// SnapshotStore implements ports.SnapshotStore in process memory.
type SnapshotStore struct {
	mu    sync.RWMutex
	snaps map[uuid.UUID]domain.WalletSnapshot
}

// NewSnapshotStore creates an empty SnapshotStore.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snaps: make(map[uuid.UUID]domain.WalletSnapshot)}
}

// Save keeps snap unless a newer snapshot is already stored.
func (s *SnapshotStore) Save(_ context.Context, snap domain.WalletSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.snaps[snap.WalletID]; ok && cur.Version >= snap.Version {
		return nil
	}
	snap.Denominations = append([]domain.Denomination(nil), snap.Denominations...)
	s.snaps[snap.WalletID] = snap
	return nil
}

// Latest returns the newest snapshot, or nil, nil.
func (s *SnapshotStore) Latest(_ context.Context, walletID uuid.UUID) (*domain.WalletSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[walletID]
	if !ok {
		return nil, nil
	}
	snap.Denominations = append([]domain.Denomination(nil), snap.Denominations...)
	return &snap, nil
}
