package service

import (
	"context"
	"fmt"

	"denomination-wallet/internal/core/domain"
	"denomination-wallet/internal/core/ports"
	"denomination-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WalletQueryServiceImpl implements ports.WalletQueryService on the read models.
type WalletQueryServiceImpl struct {
	store       ports.ReadModelStore
	cache       ports.TransactionListCache // optional
	walletCache ports.WalletListCache      // optional
	policy      ports.WalletPolicy
	log         zerolog.Logger
}

// NewWalletQueryService creates a new WalletQueryServiceImpl.
func NewWalletQueryService(store ports.ReadModelStore, cache ports.TransactionListCache, walletCache ports.WalletListCache, policy ports.WalletPolicy, log zerolog.Logger) *WalletQueryServiceImpl {
	return &WalletQueryServiceImpl{store: store, cache: cache, walletCache: walletCache, policy: policy, log: log}
}

// GetWallet returns the projected wallet if the actor may view it.
func (s *WalletQueryServiceImpl) GetWallet(ctx context.Context, actorID string, walletID uuid.UUID) (*domain.WalletView, error) {
	return s.authorizedWallet(ctx, actorID, walletID)
}

// ListWallets returns the wallets owned by the actor.
// The stamp is taken before the store read, so a listing that raced a command is
// stored under a generation that command already retired.
func (s *WalletQueryServiceImpl) ListWallets(ctx context.Context, actorID string) ([]domain.WalletView, error) {
	var stamp string
	cacheable := false
	if s.walletCache != nil {
		cached, st, err := s.walletCache.GetWallets(ctx, actorID)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("actor_id", actorID).Msg("wallet list cache get failed")
		case cached != nil:
			return cached, nil
		default:
			stamp, cacheable = st, true
		}
	}

	wallets, err := s.store.ListWallets(ctx, actorID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list wallets: %w", err))
	}
	if wallets == nil {
		wallets = []domain.WalletView{}
	}

	if cacheable {
		if err := s.walletCache.SetWallets(ctx, actorID, stamp, wallets); err != nil {
			s.log.Warn().Err(err).Str("actor_id", actorID).Msg("wallet list cache set failed")
		}
	}
	return wallets, nil
}

// ListDenominations returns the wallet's inventory rows, removed ones included.
func (s *WalletQueryServiceImpl) ListDenominations(ctx context.Context, actorID string, walletID uuid.UUID) ([]domain.DenominationView, error) {
	if _, err := s.authorizedWallet(ctx, actorID, walletID); err != nil {
		return nil, err
	}
	denoms, err := s.store.ListDenominations(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list denominations: %w", err))
	}
	if denoms == nil {
		denoms = []domain.DenominationView{}
	}
	return denoms, nil
}

// ListTransactions returns one page of the wallet's line items, newest first.
// Pages are cached per wallet, actor and wallet view version, so a page is never
// served once a later event has been projected.
func (s *WalletQueryServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) (*domain.TransactionPage, error) {
	wallet, err := s.authorizedWallet(ctx, params.ActorID, params.WalletID)
	if err != nil {
		return nil, err
	}
	page := params.Page.Normalize()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, params.WalletID, params.ActorID, wallet.Version, params.Filter, page)
		if err != nil {
			s.log.Warn().Err(err).Str("wallet_id", params.WalletID.String()).Msg("transaction cache get failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	items, total, err := s.store.ListTransactions(ctx, params.WalletID, params.Filter, page)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list transactions: %w", err))
	}
	if items == nil {
		items = []domain.TransactionView{}
	}
	result := &domain.TransactionPage{Items: items, Total: total, Page: page.Page, PageSize: page.PageSize}

	if s.cache != nil {
		if err := s.cache.Set(ctx, params.WalletID, params.ActorID, wallet.Version, params.Filter, page, result); err != nil {
			s.log.Warn().Err(err).Str("wallet_id", params.WalletID.String()).Msg("transaction cache set failed")
		}
	}
	return result, nil
}

func (s *WalletQueryServiceImpl) authorizedWallet(ctx context.Context, actorID string, walletID uuid.UUID) (*domain.WalletView, error) {
	wallet, err := s.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	if err := s.policy.Authorize(actorID, wallet.OwnerID, ports.ActionView); err != nil {
		return nil, apperror.ErrForbidden()
	}
	return wallet, nil
}
