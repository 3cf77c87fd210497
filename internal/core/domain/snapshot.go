package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WalletSnapshot is the full aggregate state at a given version. Removed
// denominations are kept so later history still folds.
type WalletSnapshot struct {
	WalletID      uuid.UUID      `json:"wallet_id"`
	Version       int64          `json:"version"`
	OwnerID       string         `json:"owner_id"`
	Name          string         `json:"name"`
	Currency      string         `json:"currency"`
	CreatedAt     time.Time      `json:"created_at"`
	Denominations []Denomination `json:"denominations"`
	TakenAt       time.Time      `json:"taken_at"`
}

// Snapshot captures the current state.
func (w *Wallet) Snapshot() WalletSnapshot {
	denoms := make([]Denomination, 0, len(w.order))
	for _, id := range w.order {
		denoms = append(denoms, *w.denominations[id])
	}
	return WalletSnapshot{
		WalletID:      w.id,
		Version:       w.version,
		OwnerID:       w.ownerID,
		Name:          w.name,
		Currency:      w.currency,
		CreatedAt:     w.createdAt,
		Denominations: denoms,
		TakenAt:       time.Now().UTC(),
	}
}

// RestoreWallet rebuilds an aggregate from a snapshot. Events after
// snap.Version are applied on top with Apply.
func RestoreWallet(snap WalletSnapshot) (*Wallet, error) {
	if snap.Version <= 0 {
		return nil, fmt.Errorf("snapshot of wallet %s has version %d", snap.WalletID, snap.Version)
	}
	w := NewWallet(snap.WalletID)
	w.version = snap.Version
	w.ownerID = snap.OwnerID
	w.name = snap.Name
	w.currency = snap.Currency
	w.createdAt = snap.CreatedAt
	for _, d := range snap.Denominations {
		if d.Count < 0 {
			return nil, fmt.Errorf("snapshot of wallet %s: negative count for %s", snap.WalletID, d.ID)
		}
		if _, dup := w.denominations[d.ID]; dup {
			return nil, fmt.Errorf("snapshot of wallet %s: duplicate denomination %s", snap.WalletID, d.ID)
		}
		d.WalletID = snap.WalletID
		w.denominations[d.ID] = &d
		w.order = append(w.order, d.ID)
	}
	return w, nil
}
