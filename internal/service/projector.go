package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"denomination-wallet/internal/core/domain"
	"denomination-wallet/internal/core/ports"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const projectAttempts = 5

var errViewMoved = errors.New("wallet view moved concurrently")

// Projector folds wallet events into the read model store. Folding is keyed by
// the wallet view version, so an event is applied at most once however often it
// is delivered.
type Projector struct {
	events ports.EventStore
	store  ports.ReadModelStore
	log    zerolog.Logger
}

// NewProjector creates a new Projector.
func NewProjector(events ports.EventStore, store ports.ReadModelStore, log zerolog.Logger) *Projector {
	return &Projector{events: events, store: store, log: log}
}

// viewState is a wallet view plus all its denomination rows, as last written.
type viewState struct {
	wallet *domain.WalletView
	denoms []domain.DenominationView
}

func (v *viewState) version() int64 {
	if v.wallet == nil {
		return 0
	}
	return v.wallet.Version
}

func (v *viewState) advance(change domain.ProjectionChange) {
	w := change.Wallet
	v.wallet = &w
	for _, d := range change.Denominations {
		if i := slices.IndexFunc(v.denoms, func(cur domain.DenominationView) bool { return cur.ID == d.ID }); i >= 0 {
			v.denoms[i] = d
		} else {
			v.denoms = append(v.denoms, d)
		}
	}
}

// Project folds evt into the read models. Events at or below the view version
// are skipped; if the view is more than one version behind, the missing events
// are loaded from the event store and folded first. Non-wallet events are ignored.
func (p *Projector) Project(ctx context.Context, evt domain.Event) error {
	if !evt.Type.IsWalletEvent() {
		return nil
	}
	for range projectAttempts {
		state, err := p.current(ctx, evt.AggregateID)
		if err != nil {
			return err
		}
		if evt.Version <= state.version() {
			p.log.Debug().
				Str("wallet_id", evt.AggregateID.String()).
				Int64("version", evt.Version).
				Msg("event already projected")
			return nil
		}

		if evt.Version > state.version()+1 {
			p.log.Info().
				Str("wallet_id", evt.AggregateID.String()).
				Int64("view_version", state.version()).
				Int64("event_version", evt.Version).
				Msg("read model behind, catching up")
			if err := p.catchUp(ctx, evt.AggregateID, state, evt.Version-1); err != nil {
				if errors.Is(err, errViewMoved) {
					continue
				}
				return err
			}
		}

		applied, err := p.apply(ctx, state, evt)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
	}
	return fmt.Errorf("project event %s: %w", evt.ID, errViewMoved)
}

func (p *Projector) current(ctx context.Context, walletID uuid.UUID) (*viewState, error) {
	wallet, err := p.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("get wallet view: %w", err)
	}
	state := &viewState{wallet: wallet}
	if wallet == nil {
		return state, nil
	}
	state.denoms, err = p.store.ListDenominations(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("list denomination views: %w", err)
	}
	return state, nil
}

// catchUp folds stored events after the view version up to and including target.
func (p *Projector) catchUp(ctx context.Context, walletID uuid.UUID, state *viewState, target int64) error {
	for evt, err := range p.events.Load(ctx, walletID, state.version()) {
		if err != nil {
			return fmt.Errorf("load missed events: %w", err)
		}
		if evt.Version > target {
			break
		}
		applied, err := p.apply(ctx, state, evt)
		if err != nil {
			return err
		}
		if !applied {
			return errViewMoved
		}
	}
	return nil
}

// apply folds one event on top of state and writes it. It reports false when the
// stored view no longer matches state.
func (p *Projector) apply(ctx context.Context, state *viewState, evt domain.Event) (bool, error) {
	change, err := domain.FoldEvent(state.wallet, state.denoms, evt)
	if err != nil {
		return false, fmt.Errorf("fold event %s: %w", evt.ID, err)
	}
	applied, err := p.store.ApplyProjection(ctx, change)
	if err != nil {
		return false, fmt.Errorf("apply event %s: %w", evt.ID, err)
	}
	if applied {
		state.advance(change)
	}
	return applied, nil
}

// Rebuild drops every view and folds the whole event log again. Wallets are
// sharded across workers; each wallet's events stay in version order. The API
// must not project concurrently.
func (p *Projector) Rebuild(ctx context.Context, workers int) (int64, error) {
	workers = max(workers, 1)
	if err := p.store.Reset(ctx); err != nil {
		return 0, fmt.Errorf("reset read models: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	shards := make([]chan domain.Event, workers)
	var folded atomic.Int64

	for i := range shards {
		ch := make(chan domain.Event, 64)
		shards[i] = ch
		g.Go(func() error {
			states := make(map[uuid.UUID]*viewState)
			for evt := range ch {
				state, ok := states[evt.AggregateID]
				if !ok {
					state = &viewState{}
					states[evt.AggregateID] = state
				}
				applied, err := p.apply(gctx, state, evt)
				if err != nil {
					return err
				}
				if !applied {
					return fmt.Errorf("rebuild wallet %s: %w", evt.AggregateID, errViewMoved)
				}
				folded.Add(1)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, ch := range shards {
				close(ch)
			}
		}()
		for evt, err := range p.events.LoadAll(gctx) {
			if err != nil {
				return fmt.Errorf("load event log: %w", err)
			}
			if !evt.Type.IsWalletEvent() {
				continue
			}
			select {
			case shards[shardFor(evt.AggregateID, workers)] <- evt:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	err := g.Wait()
	p.log.Info().Int64("events", folded.Load()).Int("workers", workers).Err(err).Msg("read model rebuild finished")
	return folded.Load(), err
}

// shardFor maps a wallet to one of n workers.
func shardFor(walletID uuid.UUID, n int) int {
	return int(xxhash.Sum64(walletID[:]) % uint64(n))
}
