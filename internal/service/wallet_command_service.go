package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"denomination-wallet/internal/core/domain"
	"denomination-wallet/internal/core/ports"
	"denomination-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	defaultReserveTTL     = 30 * time.Second
)

// CommandOptions tunes the load-validate-append cycle.
type CommandOptions struct {
	MaxAttempts    int           // appends tried before a conflict is surfaced
	RetryBackoff   time.Duration // multiplied by the attempt number
	Timeout        time.Duration // whole command budget, 0 = none
	SnapshotEvery  int64         // 0 disables snapshots
	IdempotencyTTL time.Duration
}

// WalletCommandServiceImpl implements ports.WalletCommandService.
type WalletCommandServiceImpl struct {
	events      ports.EventStore
	snapshots   ports.SnapshotStore    // optional
	publisher   ports.EventPublisher   // optional
	invalidator ports.CacheInvalidator // optional
	idempCache  ports.IdempotencyCache // optional
	policy      ports.WalletPolicy
	opts        CommandOptions
	log         zerolog.Logger
}

// NewWalletCommandService creates a new WalletCommandServiceImpl.
func NewWalletCommandService(
	events ports.EventStore,
	snapshots ports.SnapshotStore,
	publisher ports.EventPublisher,
	invalidator ports.CacheInvalidator,
	idempCache ports.IdempotencyCache,
	policy ports.WalletPolicy,
	opts CommandOptions,
	log zerolog.Logger,
) *WalletCommandServiceImpl {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = defaultIdempotencyTTL
	}
	return &WalletCommandServiceImpl{
		events:      events,
		snapshots:   snapshots,
		publisher:   publisher,
		invalidator: invalidator,
		idempCache:  idempCache,
		policy:      policy,
		opts:        opts,
		log:         log,
	}
}

// decideFunc runs one command against freshly loaded state and returns the event
// it recorded.
type decideFunc func(w *domain.Wallet, meta domain.CommandMeta) (domain.Event, error)

// CreateWallet registers a new wallet owned by the calling actor.
func (s *WalletCommandServiceImpl) CreateWallet(ctx context.Context, req ports.CreateWalletRequest) (*ports.CommandResult, error) {
	walletID := req.WalletID
	if walletID == uuid.Nil {
		walletID = uuid.New()
	}
	return s.execute(ctx, walletID, req.ActorID, "", func(w *domain.Wallet, meta domain.CommandMeta) (domain.Event, error) {
		return w.Create(meta, req.Name, req.Currency)
	})
}

// UpdateWallet renames a wallet. Currency and owner never change.
func (s *WalletCommandServiceImpl) UpdateWallet(ctx context.Context, req ports.UpdateWalletRequest) (*ports.CommandResult, error) {
	return s.execute(ctx, req.WalletID, req.ActorID, ports.ActionUpdate, func(w *domain.Wallet, meta domain.CommandMeta) (domain.Event, error) {
		return w.Rename(meta, req.Name)
	})
}

// AddDenomination registers a denomination in the wallet catalogue.
func (s *WalletCommandServiceImpl) AddDenomination(ctx context.Context, req ports.AddDenominationRequest) (*ports.CommandResult, error) {
	return s.execute(ctx, req.WalletID, req.ActorID, ports.ActionManageDenominations, func(w *domain.Wallet, meta domain.CommandMeta) (domain.Event, error) {
		return w.AddDenomination(meta, req.Name, req.Type, req.Value)
	})
}

// RemoveDenomination retires a denomination that holds no units.
func (s *WalletCommandServiceImpl) RemoveDenomination(ctx context.Context, req ports.RemoveDenominationRequest) (*ports.CommandResult, error) {
	return s.execute(ctx, req.WalletID, req.ActorID, ports.ActionManageDenominations, func(w *domain.Wallet, meta domain.CommandMeta) (domain.Event, error) {
		return w.RemoveDenomination(meta, req.DenominationID)
	})
}

// Deposit adds a batch of denominations to a wallet.
func (s *WalletCommandServiceImpl) Deposit(ctx context.Context, req ports.MoneyRequest) (*ports.CommandResult, error) {
	return s.idempotent(ctx, ports.ActionDeposit, req, func(ctx context.Context) (*ports.CommandResult, error) {
		return s.execute(ctx, req.WalletID, req.ActorID, ports.ActionDeposit, func(w *domain.Wallet, meta domain.CommandMeta) (domain.Event, error) {
			return w.Deposit(meta, req.Currency, req.Items)
		})
	})
}

// Withdraw removes a batch of denominations from a wallet, all or nothing.
func (s *WalletCommandServiceImpl) Withdraw(ctx context.Context, req ports.MoneyRequest) (*ports.CommandResult, error) {
	return s.idempotent(ctx, ports.ActionWithdraw, req, func(ctx context.Context) (*ports.CommandResult, error) {
		return s.execute(ctx, req.WalletID, req.ActorID, ports.ActionWithdraw, func(w *domain.Wallet, meta domain.CommandMeta) (domain.Event, error) {
			return w.Withdraw(meta, req.Currency, req.Items)
		})
	})
}

// execute runs the load-validate-append cycle, retrying the whole cycle on a
// version conflict so every attempt validates against the latest stream.
// action is empty for commands that need no authorization.
func (s *WalletCommandServiceImpl) execute(ctx context.Context, walletID uuid.UUID, actorID string, action ports.Action, decide decideFunc) (*ports.CommandResult, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	var lastConflict error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		w, err := s.load(ctx, walletID)
		if err != nil {
			return nil, toAppError(err)
		}
		if action != "" && w.Exists() {
			if err := s.policy.Authorize(actorID, w.OwnerID(), action); err != nil {
				return nil, toAppError(err)
			}
		}

		expected := w.Version()
		evt, err := decide(w, domain.CommandMeta{ActorID: actorID, At: time.Now().UTC()})
		if err != nil {
			return nil, toAppError(err)
		}

		if _, err := s.events.Append(ctx, walletID, expected, []domain.Event{evt}); err != nil {
			if !errors.Is(err, domain.ErrConcurrencyConflict) {
				return nil, toAppError(fmt.Errorf("append events: %w", err))
			}
			lastConflict = err
			s.log.Debug().
				Str("wallet_id", walletID.String()).
				Int64("expected_version", expected).
				Int("attempt", attempt).
				Msg("version conflict, reloading wallet")
			if err := s.backoff(ctx, attempt); err != nil {
				return nil, toAppError(err)
			}
			continue
		}

		s.afterAppend(ctx, w, expected, evt)
		return s.result(w, evt), nil
	}

	return nil, toAppError(lastConflict).(*apperror.AppError).WithDetail("attempts", s.opts.MaxAttempts)
}

// load rebuilds the aggregate from the latest snapshot, if any, plus the events after it.
func (s *WalletCommandServiceImpl) load(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	w, from := s.restore(ctx, walletID)
	for evt, err := range s.events.Load(ctx, walletID, from) {
		if err != nil {
			return nil, fmt.Errorf("load wallet %s: %w", walletID, err)
		}
		if err := w.Apply(evt); err != nil {
			return nil, fmt.Errorf("replay wallet %s: %w", walletID, err)
		}
	}
	return w, nil
}

// restore returns the snapshotted aggregate and its version, or an empty one at 0.
// A broken snapshot only costs a full replay.
func (s *WalletCommandServiceImpl) restore(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, int64) {
	if s.snapshots == nil {
		return domain.NewWallet(walletID), 0
	}
	snap, err := s.snapshots.Latest(ctx, walletID)
	if err != nil {
		s.log.Warn().Err(err).Str("wallet_id", walletID.String()).Msg("snapshot lookup failed, replaying full stream")
		return domain.NewWallet(walletID), 0
	}
	if snap == nil {
		return domain.NewWallet(walletID), 0
	}
	w, err := domain.RestoreWallet(*snap)
	if err != nil {
		s.log.Warn().Err(err).Str("wallet_id", walletID.String()).Msg("unusable snapshot, replaying full stream")
		return domain.NewWallet(walletID), 0
	}
	return w, snap.Version
}

func (s *WalletCommandServiceImpl) backoff(ctx context.Context, attempt int) error {
	if s.opts.RetryBackoff <= 0 || attempt == s.opts.MaxAttempts {
		return ctx.Err()
	}
	timer := time.NewTimer(s.opts.RetryBackoff * time.Duration(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// afterAppend runs the side effects of a committed command. None of them can
// fail the command: the events are already stored.
func (s *WalletCommandServiceImpl) afterAppend(ctx context.Context, w *domain.Wallet, expected int64, evt domain.Event) {
	ctx = context.WithoutCancel(ctx)
	events := []domain.Event{evt}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events); err != nil {
			s.log.Warn().Err(err).Str("wallet_id", w.ID().String()).Int64("version", evt.Version).Msg("projection failed, read model lags")
		}
	}

	if s.snapshots != nil && s.opts.SnapshotEvery > 0 && expected/s.opts.SnapshotEvery != w.Version()/s.opts.SnapshotEvery {
		if err := s.snapshots.Save(ctx, w.Snapshot()); err != nil {
			s.log.Warn().Err(err).Str("wallet_id", w.ID().String()).Int64("version", w.Version()).Msg("snapshot save failed")
		}
	}

	if s.invalidator != nil {
		sig := ports.InvalidationSignal{WalletID: w.ID(), ActorID: evt.ActorID}
		if err := s.invalidator.Invalidate(ctx, sig); err != nil {
			s.log.Warn().Err(err).Str("wallet_id", w.ID().String()).Msg("cache invalidation failed")
		}
	}

	logEvt := s.log.Info().
		Str("wallet_id", w.ID().String()).
		Str("event_type", string(evt.Type)).
		Int64("version", evt.Version).
		Str("actor_id", evt.ActorID)
	if evt.TransactionGroupID != uuid.Nil {
		logEvt = logEvt.Str("transaction_group_id", evt.TransactionGroupID.String())
	}
	logEvt.Msg("wallet command applied")
}

// result builds the response from the aggregate, which is never behind the projection.
func (s *WalletCommandServiceImpl) result(w *domain.Wallet, evt domain.Event) *ports.CommandResult {
	res := &ports.CommandResult{
		Wallet: domain.WalletView{
			ID:        w.ID(),
			OwnerID:   w.OwnerID(),
			Name:      w.Name(),
			Currency:  w.Currency(),
			Balance:   w.Balance(),
			Version:   w.Version(),
			CreatedAt: w.CreatedAt(),
			UpdatedAt: evt.RecordedAt,
		},
		Version:            w.Version(),
		TransactionGroupID: evt.TransactionGroupID,
		Events:             []domain.Event{evt},
	}

	var denomID uuid.UUID
	switch p := evt.Payload.(type) {
	case domain.DenominationAdded:
		denomID = p.DenominationID
	case domain.DenominationRemoved:
		denomID = p.DenominationID
	default:
		return res
	}
	for _, d := range w.Snapshot().Denominations {
		if d.ID == denomID {
			res.Denomination = &domain.DenominationView{
				ID:        d.ID,
				WalletID:  w.ID(),
				Name:      d.Name,
				Type:      d.Type,
				Value:     d.Value,
				Count:     d.Count,
				Removed:   d.Removed,
				Version:   evt.Version,
				UpdatedAt: evt.RecordedAt,
			}
		}
	}
	return res
}

// idempotent serves a repeated Idempotency-Key from the cache and stops two
// requests with the same key from running at once.
func (s *WalletCommandServiceImpl) idempotent(ctx context.Context, op ports.Action, req ports.MoneyRequest, run func(context.Context) (*ports.CommandResult, error)) (*ports.CommandResult, error) {
	if req.IdempotencyKey == "" || s.idempCache == nil {
		return run(ctx)
	}
	key := domain.BuildIdempotencyKey(req.ActorID, req.WalletID, string(op), req.IdempotencyKey)

	if cached := s.cachedResult(ctx, key); cached != nil {
		return cached, nil
	}

	reserveTTL := s.opts.Timeout
	if reserveTTL <= 0 {
		reserveTTL = defaultReserveTTL
	}
	reserved, err := s.idempCache.Reserve(ctx, key, reserveTTL)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("key", key).Msg("idempotency reserve failed, running unguarded")
	case !reserved:
		return nil, apperror.ErrRequestInProgress()
	default:
		defer func() {
			if err := s.idempCache.Release(context.WithoutCancel(ctx), key); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("idempotency release failed")
			}
		}()
		// the holder of a previous claim may have finished in between
		if cached := s.cachedResult(ctx, key); cached != nil {
			return cached, nil
		}
	}

	res, err := run(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(res)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("encode idempotent result")
		return res, nil
	}
	if err := s.idempCache.Set(context.WithoutCancel(ctx), key, data, s.opts.IdempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("idempotency cache set failed")
	}
	return res, nil
}

func (s *WalletCommandServiceImpl) cachedResult(ctx context.Context, key string) *ports.CommandResult {
	data, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("idempotency cache get failed")
		return nil
	}
	if data == nil {
		return nil
	}
	res := &ports.CommandResult{}
	if err := json.Unmarshal(data, res); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("discarding unreadable idempotent result")
		return nil
	}
	res.Replayed = true
	return res
}

// toAppError maps domain and infrastructure failures to coded application errors,
// carrying the offending denomination and quantities as details.
func toAppError(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var werr *domain.WalletError
	if !errors.As(err, &werr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperror.ErrTimeout(err)
		}
		return apperror.InternalError(err)
	}

	switch werr.Kind {
	case domain.ErrKindUnknownDenomination:
		appErr = apperror.ErrUnknownDenomination(err)
	case domain.ErrKindCurrencyMismatch:
		appErr = apperror.ErrCurrencyMismatch(err).
			WithDetail("wallet_currency", werr.Expected).
			WithDetail("currency", werr.Actual)
	case domain.ErrKindInvalidQuantity:
		appErr = apperror.ErrInvalidQuantity(err).WithDetail("quantity", werr.Quantity)
	case domain.ErrKindDuplicateDenomination:
		appErr = apperror.ErrDuplicateDenomination(err)
	case domain.ErrKindInsufficientInventory:
		appErr = apperror.ErrInsufficientInventory(err).
			WithDetail("quantity", werr.Quantity).
			WithDetail("available", werr.Available)
	case domain.ErrKindConcurrencyConflict:
		appErr = apperror.ErrConcurrencyConflict(err).WithDetail("expected_version", werr.Expected)
	case domain.ErrKindWalletNotFound:
		appErr = apperror.ErrNotFound("Wallet")
	case domain.ErrKindWalletExists:
		appErr = apperror.ErrWalletExists(err)
	case domain.ErrKindEmptyBatch:
		appErr = apperror.ErrEmptyBatch(err)
	case domain.ErrKindDenominationInUse:
		appErr = apperror.ErrDenominationInUse(err).WithDetail("count", werr.Available)
	case domain.ErrKindInvalidDenomination:
		appErr = apperror.ErrInvalidDenomination(err).WithDetail("reason", werr.Reason)
	case domain.ErrKindInvalidWallet:
		appErr = apperror.ErrInvalidWallet(err).WithDetail("reason", werr.Reason)
	case domain.ErrKindForbidden:
		return apperror.ErrForbidden()
	default:
		return apperror.InternalError(err)
	}

	if werr.DenominationID != uuid.Nil {
		appErr = appErr.WithDetail("denomination_id", werr.DenominationID.String())
	}
	return appErr
}
