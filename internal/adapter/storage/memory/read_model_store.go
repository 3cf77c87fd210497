package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"denomination-wallet/internal/core/domain"

	"github.com/google/uuid"
)

// ReadModelStore implements ports.ReadModelStore in process memory.
type ReadModelStore struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]domain.WalletView
	denoms  map[uuid.UUID][]domain.DenominationView // by wallet, registration order
	txs     map[uuid.UUID][]domain.TransactionView  // by wallet, append order
	txIndex map[uuid.UUID]int                       // transaction item id -> position in txs
}

// NewReadModelStore creates an empty ReadModelStore.
func NewReadModelStore() *ReadModelStore {
	s := &ReadModelStore{}
	s.reset()
	return s
}

func (s *ReadModelStore) reset() {
	s.wallets = make(map[uuid.UUID]domain.WalletView)
	s.denoms = make(map[uuid.UUID][]domain.DenominationView)
	s.txs = make(map[uuid.UUID][]domain.TransactionView)
	s.txIndex = make(map[uuid.UUID]int)
}

// GetWallet returns the wallet view, or nil, nil.
func (s *ReadModelStore) GetWallet(_ context.Context, id uuid.UUID) (*domain.WalletView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

// ListWallets returns the owner's wallets ordered by creation time.
func (s *ReadModelStore) ListWallets(_ context.Context, ownerID string) ([]domain.WalletView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.WalletView, 0)
	for _, w := range s.wallets {
		if w.OwnerID == ownerID {
			out = append(out, w)
		}
	}
	slices.SortFunc(out, func(a, b domain.WalletView) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

// ListDenominations returns every denomination row of the wallet.
func (s *ReadModelStore) ListDenominations(_ context.Context, walletID uuid.UUID) ([]domain.DenominationView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.denoms[walletID]), nil
}

// ListTransactions returns one page of matching rows, newest first.
func (s *ReadModelStore) ListTransactions(_ context.Context, walletID uuid.UUID, filter domain.TransactionFilter, page domain.Page) ([]domain.TransactionView, int64, error) {
	page = page.Normalize()

	s.mu.RLock()
	matched := make([]domain.TransactionView, 0)
	for _, tx := range s.txs[walletID] {
		if filter.Matches(tx) {
			matched = append(matched, tx)
		}
	}
	s.mu.RUnlock()

	// newest event first; rows of one event keep their line item order
	slices.SortStableFunc(matched, func(a, b domain.TransactionView) int {
		return cmp.Compare(b.Version, a.Version)
	})

	total := int64(len(matched))
	start := min(page.Offset(), len(matched))
	end := min(start+page.PageSize, len(matched))
	return slices.Clone(matched[start:end]), total, nil
}

// ApplyProjection writes change if the wallet view is still at change.FromVersion.
func (s *ReadModelStore) ApplyProjection(_ context.Context, change domain.ProjectionChange) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.wallets[change.WalletID]
	switch {
	case change.FromVersion == 0 && exists:
		return false, nil
	case change.FromVersion > 0 && (!exists || cur.Version != change.FromVersion):
		return false, nil
	}

	s.wallets[change.WalletID] = change.Wallet

	rows := s.denoms[change.WalletID]
	for _, d := range change.Denominations {
		if i := slices.IndexFunc(rows, func(r domain.DenominationView) bool { return r.ID == d.ID }); i >= 0 {
			rows[i] = d
		} else {
			rows = append(rows, d)
		}
	}
	s.denoms[change.WalletID] = rows

	for _, tx := range change.Transactions {
		if i, ok := s.txIndex[tx.ID]; ok {
			s.txs[tx.WalletID][i] = tx
			continue
		}
		s.txIndex[tx.ID] = len(s.txs[tx.WalletID])
		s.txs[tx.WalletID] = append(s.txs[tx.WalletID], tx)
	}
	return true, nil
}

// Reset drops every view.
func (s *ReadModelStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}
