package ports

import (
	"context"
	"iter"

	"denomination-wallet/internal/core/domain"

	"github.com/google/uuid"
)

// EventStore is the append-only log of wallet events, the only source of truth.
type EventStore interface {
	// Append stores events atomically if the stream is still at expectedVersion.
	// Events must carry versions expectedVersion+1, expectedVersion+2, ...
	// Returns the new stream version, or a domain.ErrConcurrencyConflict.
	Append(ctx context.Context, aggregateID uuid.UUID, expectedVersion int64, events []domain.Event) (int64, error)
	// Load yields the stream's events with version > fromVersion in version order.
	// The sequence is lazy and can be ranged over more than once.
	Load(ctx context.Context, aggregateID uuid.UUID, fromVersion int64) iter.Seq2[domain.Event, error]
	// LoadAll yields every stored event in append order.
	LoadAll(ctx context.Context) iter.Seq2[domain.Event, error]
}

// SnapshotStore keeps the latest aggregate snapshot per wallet.
type SnapshotStore interface {
	Save(ctx context.Context, snap domain.WalletSnapshot) error
	// Latest returns nil, nil when no snapshot exists.
	Latest(ctx context.Context, walletID uuid.UUID) (*domain.WalletSnapshot, error)
}

// ReadModelStore holds the projected views. Only the projector writes to it.
type ReadModelStore interface {
	// GetWallet returns nil, nil when the wallet view does not exist.
	GetWallet(ctx context.Context, id uuid.UUID) (*domain.WalletView, error)
	ListWallets(ctx context.Context, ownerID string) ([]domain.WalletView, error)
	// ListDenominations returns every denomination row of the wallet, removed ones included.
	ListDenominations(ctx context.Context, walletID uuid.UUID) ([]domain.DenominationView, error)
	// ListTransactions returns matching rows newest first plus the total match count.
	ListTransactions(ctx context.Context, walletID uuid.UUID, filter domain.TransactionFilter, page domain.Page) ([]domain.TransactionView, int64, error)
	// ApplyProjection writes change atomically if the wallet view is still at
	// change.FromVersion. It reports false, nil when the guard did not match.
	ApplyProjection(ctx context.Context, change domain.ProjectionChange) (bool, error)
	// Reset drops every view.
	Reset(ctx context.Context) error
}
