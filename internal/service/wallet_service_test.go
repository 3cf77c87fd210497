package service

import (
	"context"
	"sync"
	"testing"

	"denomination-wallet/internal/adapter/storage/memory"
	redisstore "denomination-wallet/internal/adapter/storage/redis"
	"denomination-wallet/internal/core/domain"
	"denomination-wallet/internal/core/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// walletHarness wires the command and query services to in-memory stores and a
// miniredis backed cache layer.
type walletHarness struct {
	t         *testing.T
	events    *memory.EventStore
	snapshots *memory.SnapshotStore
	views     *memory.ReadModelStore
	projector *Projector
	cmd       *WalletCommandServiceImpl
	query     *WalletQueryServiceImpl
}

func newWalletHarness(t *testing.T, opts CommandOptions) *walletHarness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &walletHarness{
		t:         t,
		events:    memory.NewEventStore(),
		snapshots: memory.NewSnapshotStore(),
		views:     memory.NewReadModelStore(),
	}
	listings := redisstore.NewListingCache(client, 0)
	policy := NewOwnerPolicy()
	h.projector = NewProjector(h.events, h.views, zerolog.Nop())
	h.cmd = NewWalletCommandService(h.events, h.snapshots, NewSyncPublisher(h.projector), listings,
		redisstore.NewIdempotencyCache(client), policy, opts, zerolog.Nop())
	h.query = NewWalletQueryService(h.views, listings, listings, policy, zerolog.Nop())
	return h
}

func (h *walletHarness) createWallet(actor string) uuid.UUID {
	h.t.Helper()
	res, err := h.cmd.CreateWallet(context.Background(), ports.CreateWalletRequest{ActorID: actor, Name: "Main", Currency: "USD"})
	require.NoError(h.t, err)
	return res.Wallet.ID
}

func (h *walletHarness) addDenomination(actor string, walletID uuid.UUID, name string, value int64) uuid.UUID {
	h.t.Helper()
	res, err := h.cmd.AddDenomination(context.Background(), ports.AddDenominationRequest{
		ActorID:  actor,
		WalletID: walletID,
		Name:     name,
		Type:     domain.DenominationTypeBill,
		Value:    decimal.NewFromInt(value),
	})
	require.NoError(h.t, err)
	require.NotNil(h.t, res.Denomination)
	return res.Denomination.ID
}

func (h *walletHarness) eventCount() int {
	h.t.Helper()
	n := 0
	for _, err := range h.events.LoadAll(context.Background()) {
		require.NoError(h.t, err)
		n++
	}
	return n
}

func money(walletID uuid.UUID, items ...domain.LineItemRequest) ports.MoneyRequest {
	return ports.MoneyRequest{ActorID: "user-1", WalletID: walletID, Currency: "USD", Items: items}
}

func TestWalletService_DepositProducesOneTransactionGroup(t *testing.T) {
	h := newWalletHarness(t, CommandOptions{MaxAttempts: 3})
	ctx := context.Background()
	walletID := h.createWallet("user-1")
	hundred := h.addDenomination("user-1", walletID, "Hundred", 100)
	ten := h.addDenomination("user-1", walletID, "Ten", 10)

	res, err := h.cmd.Deposit(ctx, money(walletID,
		domain.LineItemRequest{DenominationID: hundred, Quantity: 1},
		domain.LineItemRequest{DenominationID: ten, Quantity: 3},
	))
	require.NoError(t, err)
	assert.True(t, res.Wallet.Balance.Equal(decimal.NewFromInt(130)))
	assert.Equal(t, int64(4), res.Version)

	view, err := h.query.GetWallet(ctx, "user-1", walletID)
	require.NoError(t, err)
	assert.True(t, view.Balance.Equal(decimal.NewFromInt(130)))
	assert.Equal(t, int64(4), view.Version)

	page, err := h.query.ListTransactions(ctx, ports.TransactionListParams{ActorID: "user-1", WalletID: walletID})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Total)
	for _, tx := range page.Items {
		assert.Equal(t, res.TransactionGroupID, tx.TransactionGroupID)
		assert.Equal(t, domain.TransactionTypeDeposit, tx.Type)
	}

	denoms, err := h.query.ListDenominations(ctx, "user-1", walletID)
	require.NoError(t, err)
	got := map[uuid.UUID]int64{}
	for _, d := range denoms {
		got[d.ID] = d.Count
	}
	assert.Equal(t, map[uuid.UUID]int64{hundred: 1, ten: 3}, got)
}

func TestWalletService_InsufficientInventoryLeavesStateUnchanged(t *testing.T) {
	h := newWalletHarness(t, CommandOptions{MaxAttempts: 3})
	ctx := context.Background()
	walletID := h.createWallet("user-1")
	hundred := h.addDenomination("user-1", walletID, "Hundred", 100)
	ten := h.addDenomination("user-1", walletID, "Ten", 10)
	_, err := h.cmd.Deposit(ctx, money(walletID, domain.LineItemRequest{DenominationID: ten, Quantity: 5}))
	require.NoError(t, err)
	before := h.eventCount()

	_, err = h.cmd.Withdraw(ctx, money(walletID,
		domain.LineItemRequest{DenominationID: ten, Quantity: 2},
		domain.LineItemRequest{DenominationID: hundred, Quantity: 1},
	))
	appErr := requireAppError(t, err, "WAL_001")
	assert.Equal(t, hundred.String(), appErr.Details["denomination_id"])
	assert.Equal(t, before, h.eventCount())

	view, err := h.query.GetWallet(ctx, "user-1", walletID)
	require.NoError(t, err)
	assert.True(t, view.Balance.Equal(decimal.NewFromInt(50)))
}

func TestWalletService_DuplicateDenominationAppendsNothing(t *testing.T) {
	h := newWalletHarness(t, CommandOptions{MaxAttempts: 3})
	walletID := h.createWallet("user-1")
	ten := h.addDenomination("user-1", walletID, "Ten", 10)
	before := h.eventCount()

	_, err := h.cmd.Deposit(context.Background(), money(walletID,
		domain.LineItemRequest{DenominationID: ten, Quantity: 1},
		domain.LineItemRequest{DenominationID: ten, Quantity: 2},
	))
	requireAppError(t, err, "WAL_003")
	assert.Equal(t, before, h.eventCount())
}

func TestWalletService_ConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	h := newWalletHarness(t, CommandOptions{MaxAttempts: 25})
	ctx := context.Background()
	walletID := h.createWallet("user-1")
	ten := h.addDenomination("user-1", walletID, "Ten", 10)
	_, err := h.cmd.Deposit(ctx, money(walletID, domain.LineItemRequest{DenominationID: ten, Quantity: 10}))
	require.NoError(t, err)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.cmd.Withdraw(ctx, money(walletID, domain.LineItemRequest{DenominationID: ten, Quantity: 1}))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else {
				failures = append(failures, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	require.Len(t, failures, workers-10)
	for _, err := range failures {
		requireAppError(t, err, "WAL_001")
	}

	// a projection that lost every race only delays the view; the next event catches it up
	var last domain.Event
	for evt, err := range h.events.Load(ctx, walletID, 0) {
		require.NoError(t, err)
		last = evt
	}
	assert.Equal(t, int64(3+10), last.Version)
	require.NoError(t, h.projector.Project(ctx, last))

	denoms, err := h.query.ListDenominations(ctx, "user-1", walletID)
	require.NoError(t, err)
	require.Len(t, denoms, 1)
	assert.Equal(t, int64(0), denoms[0].Count)

	view, err := h.query.GetWallet(ctx, "user-1", walletID)
	require.NoError(t, err)
	assert.True(t, view.Balance.IsZero())
	assert.Equal(t, int64(3+10), view.Version)
}

func TestWalletService_RebuildMatchesLiveProjection(t *testing.T) {
	h := newWalletHarness(t, CommandOptions{MaxAttempts: 3, SnapshotEvery: 2})
	ctx := context.Background()

	var wallets []uuid.UUID
	for _, actor := range []string{"user-1", "user-2", "user-3"} {
		walletID := h.createWallet(actor)
		wallets = append(wallets, walletID)
		ten := h.addDenomination(actor, walletID, "Ten", 10)
		coin := h.addDenomination(actor, walletID, "Five", 5)
		req := money(walletID, domain.LineItemRequest{DenominationID: ten, Quantity: 4}, domain.LineItemRequest{DenominationID: coin, Quantity: 2})
		req.ActorID = actor
		_, err := h.cmd.Deposit(ctx, req)
		require.NoError(t, err)
		req = money(walletID, domain.LineItemRequest{DenominationID: ten, Quantity: 1})
		req.ActorID = actor
		_, err = h.cmd.Withdraw(ctx, req)
		require.NoError(t, err)
	}

	type snapshot struct {
		wallet *domain.WalletView
		denoms []domain.DenominationView
		txs    []domain.TransactionView
	}
	capture := func() map[uuid.UUID]snapshot {
		out := map[uuid.UUID]snapshot{}
		for _, id := range wallets {
			w, err := h.views.GetWallet(ctx, id)
			require.NoError(t, err)
			d, err := h.views.ListDenominations(ctx, id)
			require.NoError(t, err)
			txs, _, err := h.views.ListTransactions(ctx, id, domain.TransactionFilter{}, domain.Page{Page: 1, PageSize: domain.MaxPageSize})
			require.NoError(t, err)
			out[id] = snapshot{wallet: w, denoms: d, txs: txs}
		}
		return out
	}

	live := capture()
	folded, err := h.projector.Rebuild(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(h.eventCount()), folded)
	assert.Equal(t, live, capture())

	snap, err := h.snapshots.Latest(ctx, wallets[0])
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, int64(4), snap.Version)
}

func TestWalletService_SnapshotPlusSuffixKeepsCommandsCorrect(t *testing.T) {
	h := newWalletHarness(t, CommandOptions{MaxAttempts: 3, SnapshotEvery: 3})
	ctx := context.Background()
	walletID := h.createWallet("user-1")
	ten := h.addDenomination("user-1", walletID, "Ten", 10)
	for range 4 {
		_, err := h.cmd.Deposit(ctx, money(walletID, domain.LineItemRequest{DenominationID: ten, Quantity: 2}))
		require.NoError(t, err)
	}

	snap, err := h.snapshots.Latest(ctx, walletID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, int64(6), snap.Version)

	res, err := h.cmd.Withdraw(ctx, money(walletID, domain.LineItemRequest{DenominationID: ten, Quantity: 8}))
	require.NoError(t, err)
	assert.True(t, res.Wallet.Balance.IsZero())
	assert.Equal(t, int64(7), res.Version)
}

func TestWalletService_ProjectorIsIdempotentAndCatchesUp(t *testing.T) {
	ctx := context.Background()
	events := memory.NewEventStore()
	views := memory.NewReadModelStore()
	projector := NewProjector(events, views, zerolog.Nop())
	cmd := NewWalletCommandService(events, nil, nil, nil, nil, NewOwnerPolicy(), CommandOptions{MaxAttempts: 1}, zerolog.Nop())

	created, err := cmd.CreateWallet(ctx, ports.CreateWalletRequest{ActorID: "user-1", Name: "Main", Currency: "USD"})
	require.NoError(t, err)
	walletID := created.Wallet.ID
	added, err := cmd.AddDenomination(ctx, ports.AddDenominationRequest{
		ActorID: "user-1", WalletID: walletID, Name: "Ten", Type: domain.DenominationTypeBill, Value: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	deposited, err := cmd.Deposit(ctx, money(walletID, domain.LineItemRequest{DenominationID: added.Denomination.ID, Quantity: 2}))
	require.NoError(t, err)

	// only the last event is delivered; the earlier ones come from the store
	require.NoError(t, projector.Project(ctx, deposited.Events[0]))
	view, err := views.GetWallet(ctx, walletID)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, int64(3), view.Version)
	assert.True(t, view.Balance.Equal(decimal.NewFromInt(20)))

	// redelivery changes nothing
	for _, evt := range append(created.Events, deposited.Events...) {
		require.NoError(t, projector.Project(ctx, evt))
	}
	txs, total, err := views.ListTransactions(ctx, walletID, domain.TransactionFilter{}, domain.Page{}.Normalize())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, txs, 1)
	view, err = views.GetWallet(ctx, walletID)
	require.NoError(t, err)
	assert.True(t, view.Balance.Equal(decimal.NewFromInt(20)))
}

func TestWalletService_IdempotencyKeyReplaysResult(t *testing.T) {
	h := newWalletHarness(t, CommandOptions{MaxAttempts: 3})
	ctx := context.Background()
	walletID := h.createWallet("user-1")
	ten := h.addDenomination("user-1", walletID, "Ten", 10)

	req := money(walletID, domain.LineItemRequest{DenominationID: ten, Quantity: 3})
	req.IdempotencyKey = "deposit-001"
	first, err := h.cmd.Deposit(ctx, req)
	require.NoError(t, err)
	before := h.eventCount()

	second, err := h.cmd.Deposit(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Version, second.Version)
	assert.Equal(t, first.TransactionGroupID, second.TransactionGroupID)
	assert.Equal(t, before, h.eventCount())

	view, err := h.query.GetWallet(ctx, "user-1", walletID)
	require.NoError(t, err)
	assert.True(t, view.Balance.Equal(decimal.NewFromInt(30)))
}

func TestWalletService_TransactionCacheInvalidatedByCommands(t *testing.T) {
	h := newWalletHarness(t, CommandOptions{MaxAttempts: 3})
	ctx := context.Background()
	walletID := h.createWallet("user-1")
	ten := h.addDenomination("user-1", walletID, "Ten", 10)
	params := ports.TransactionListParams{ActorID: "user-1", WalletID: walletID}

	_, err := h.cmd.Deposit(ctx, money(walletID, domain.LineItemRequest{DenominationID: ten, Quantity: 1}))
	require.NoError(t, err)
	page, err := h.query.ListTransactions(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, err = h.cmd.Withdraw(ctx, money(walletID, domain.LineItemRequest{DenominationID: ten, Quantity: 1}))
	require.NoError(t, err)
	page, err = h.query.ListTransactions(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, domain.TransactionTypeWithdraw, page.Items[0].Type)
}

func TestWalletService_ForeignActorCannotRead(t *testing.T) {
	h := newWalletHarness(t, CommandOptions{MaxAttempts: 3})
	ctx := context.Background()
	walletID := h.createWallet("user-1")

	_, err := h.query.GetWallet(ctx, "user-2", walletID)
	requireAppError(t, err, "WAL_013")
	_, err = h.query.ListTransactions(ctx, ports.TransactionListParams{ActorID: "user-2", WalletID: walletID})
	requireAppError(t, err, "WAL_013")
	_, err = h.query.GetWallet(ctx, "user-1", uuid.New())
	requireAppError(t, err, "WAL_004")

	wallets, err := h.query.ListWallets(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, wallets)
	wallets, err = h.query.ListWallets(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, wallets, 1)
}

func TestWalletService_RemoveDenomination(t *testing.T) {
	h := newWalletHarness(t, CommandOptions{MaxAttempts: 3})
	ctx := context.Background()
	walletID := h.createWallet("user-1")
	ten := h.addDenomination("user-1", walletID, "Ten", 10)
	_, err := h.cmd.Deposit(ctx, money(walletID, domain.LineItemRequest{DenominationID: ten, Quantity: 1}))
	require.NoError(t, err)

	remove := ports.RemoveDenominationRequest{ActorID: "user-1", WalletID: walletID, DenominationID: ten}
	_, err = h.cmd.RemoveDenomination(ctx, remove)
	appErr := requireAppError(t, err, "WAL_010")
	assert.Equal(t, int64(1), appErr.Details["count"])

	_, err = h.cmd.Withdraw(ctx, money(walletID, domain.LineItemRequest{DenominationID: ten, Quantity: 1}))
	require.NoError(t, err)
	res, err := h.cmd.RemoveDenomination(ctx, remove)
	require.NoError(t, err)
	require.NotNil(t, res.Denomination)
	assert.True(t, res.Denomination.Removed)

	denoms, err := h.query.ListDenominations(ctx, "user-1", walletID)
	require.NoError(t, err)
	require.Len(t, denoms, 1)
	assert.True(t, denoms[0].Removed)

	_, err = h.cmd.Deposit(ctx, money(walletID, domain.LineItemRequest{DenominationID: ten, Quantity: 1}))
	requireAppError(t, err, "WAL_006")
}

func TestWalletService_UpdateWallet(t *testing.T) {
	h := newWalletHarness(t, CommandOptions{MaxAttempts: 3})
	ctx := context.Background()
	walletID := h.createWallet("user-1")

	// fill the listing cache first
	wallets, err := h.query.ListWallets(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, "Main", wallets[0].Name)

	res, err := h.cmd.UpdateWallet(ctx, ports.UpdateWalletRequest{ActorID: "user-1", WalletID: walletID, Name: "Travel"})
	require.NoError(t, err)
	assert.Equal(t, "Travel", res.Wallet.Name)
	assert.Equal(t, int64(2), res.Version)

	wallets, err = h.query.ListWallets(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, "Travel", wallets[0].Name)
	assert.Equal(t, "USD", wallets[0].Currency)

	_, err = h.cmd.UpdateWallet(ctx, ports.UpdateWalletRequest{ActorID: "user-2", WalletID: walletID, Name: "Mine"})
	requireAppError(t, err, "WAL_013")
	_, err = h.cmd.UpdateWallet(ctx, ports.UpdateWalletRequest{ActorID: "user-1", WalletID: walletID, Name: "  "})
	requireAppError(t, err, "WAL_012")
	_, err = h.cmd.UpdateWallet(ctx, ports.UpdateWalletRequest{ActorID: "user-1", WalletID: uuid.New(), Name: "Ghost"})
	requireAppError(t, err, "WAL_004")
}
