package postgres

import (
	"context"
	"testing"
	"time"

	"denomination-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walletViewColumnNames() []string {
	return []string{"id", "owner_id", "name", "currency", "balance", "version", "created_at", "updated_at"}
}

func newWalletView() domain.WalletView {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.WalletView{
		ID:        uuid.New(),
		OwnerID:   "user-1",
		Name:      "Cash",
		Currency:  "USD",
		Balance:   decimal.RequireFromString("130.00"),
		Version:   4,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func walletViewRow(w domain.WalletView) *pgxmock.Rows {
	return pgxmock.NewRows(walletViewColumnNames()).
		AddRow(w.ID, w.OwnerID, w.Name, w.Currency, w.Balance, w.Version, w.CreatedAt, w.UpdatedAt)
}

func TestReadModelStore_GetWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewReadModelStore(mock)
	w := newWalletView()

	mock.ExpectQuery("SELECT .+ FROM wallet_views WHERE id").
		WithArgs(w.ID).
		WillReturnRows(walletViewRow(w))

	result, err := store.GetWallet(context.Background(), w.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.True(t, w.Balance.Equal(result.Balance))
	assert.Equal(t, int64(4), result.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadModelStore_GetWallet_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewReadModelStore(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM wallet_views WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(walletViewColumnNames()))

	result, err := store.GetWallet(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadModelStore_ListWallets(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewReadModelStore(mock)
	a, b := newWalletView(), newWalletView()

	mock.ExpectQuery("SELECT .+ FROM wallet_views WHERE owner_id .+ ORDER BY created_at").
		WithArgs("user-1").
		WillReturnRows(walletViewRow(a).
			AddRow(b.ID, b.OwnerID, b.Name, b.Currency, b.Balance, b.Version, b.CreatedAt, b.UpdatedAt))

	wallets, err := store.ListWallets(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, a.ID, wallets[0].ID)
	assert.Equal(t, b.ID, wallets[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadModelStore_ListDenominations(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewReadModelStore(mock)
	walletID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM denomination_views WHERE wallet_id .+ ORDER BY position").
		WithArgs(walletID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "wallet_id", "name", "type", "value", "count", "removed", "version", "updated_at"}).
			AddRow(uuid.New(), walletID, "Ten", "bill", decimal.NewFromInt(10), int64(8), false, int64(5), now).
			AddRow(uuid.New(), walletID, "Quarter", "coin", decimal.RequireFromString("0.25"), int64(0), true, int64(6), now))

	denoms, err := store.ListDenominations(context.Background(), walletID)
	require.NoError(t, err)
	require.Len(t, denoms, 2)
	assert.Equal(t, domain.DenominationTypeBill, denoms[0].Type)
	assert.Equal(t, int64(8), denoms[0].Count)
	assert.True(t, denoms[1].Removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadModelStore_ListTransactions_WithFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewReadModelStore(mock)
	walletID, denomID, groupID := uuid.New(), uuid.New(), uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	filter := domain.TransactionFilter{
		Type:           domain.TransactionTypeWithdraw,
		DenominationID: &denomID,
		From:           &from,
	}

	mock.ExpectQuery("SELECT COUNT.+ FROM transaction_views WHERE wallet_id = .+ AND type = .+ AND denomination_id = .+ AND created_at >=").
		WithArgs(walletID, "withdraw", denomID, from).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(21)))

	mock.ExpectQuery("SELECT .+ FROM transaction_views WHERE .+ ORDER BY version DESC, line_no LIMIT").
		WithArgs(walletID, "withdraw", denomID, from, 10, 20).
		WillReturnRows(pgxmock.NewRows([]string{"id", "transaction_group_id", "wallet_id", "event_id", "version", "type",
			"denomination_id", "denomination_name", "denomination_type", "denomination_value", "quantity", "amount",
			"currency", "actor_id", "created_at"}).
			AddRow(uuid.New(), groupID, walletID, uuid.New(), int64(9), "withdraw", denomID, "Ten", "bill",
				decimal.NewFromInt(10), int64(2), decimal.NewFromInt(20), "USD", "user-1", from.Add(time.Hour)))

	rows, total, err := store.ListTransactions(context.Background(), walletID, filter, domain.Page{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(21), total)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.TransactionTypeWithdraw, rows[0].Type)
	assert.Equal(t, groupID, rows[0].TransactionGroupID)
	assert.True(t, rows[0].Amount.Equal(decimal.NewFromInt(20)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadModelStore_ApplyProjection_Created(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewReadModelStore(mock)
	w := newWalletView()
	w.Version = 1
	w.Balance = decimal.Zero

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallet_views").
		WithArgs(w.ID, w.OwnerID, w.Name, w.Currency, w.Balance, int64(1), w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	ok, err := store.ApplyProjection(context.Background(), domain.ProjectionChange{WalletID: w.ID, Wallet: w})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadModelStore_ApplyProjection_Money(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewReadModelStore(mock)
	w := newWalletView()
	now := w.UpdatedAt
	denom := domain.DenominationView{ID: uuid.New(), WalletID: w.ID, Name: "Ten", Type: domain.DenominationTypeBill,
		Value: decimal.NewFromInt(10), Count: 13, Version: 4, UpdatedAt: now}
	tx := domain.TransactionView{ID: uuid.New(), TransactionGroupID: uuid.New(), WalletID: w.ID, EventID: uuid.New(),
		Version: 4, Type: domain.TransactionTypeDeposit, DenominationID: denom.ID, DenominationName: "Ten",
		DenominationType: domain.DenominationTypeBill, DenominationValue: denom.Value, Quantity: 13,
		Amount: decimal.NewFromInt(130), Currency: "USD", ActorID: "user-1", CreatedAt: now}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallet_views SET .+ WHERE id = .+ AND version =").
		WithArgs(w.Name, w.Currency, w.Balance, int64(4), w.UpdatedAt, w.ID, int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO denomination_views .+ ON CONFLICT").
		WithArgs(denom.ID, w.ID, "Ten", "bill", denom.Value, int64(13), false, int64(4), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO transaction_views .+ ON CONFLICT").
		WithArgs(tx.ID, tx.TransactionGroupID, w.ID, tx.EventID, int64(4), "deposit", denom.ID, "Ten", "bill",
			denom.Value, int64(13), tx.Amount, "USD", "user-1", now, 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	ok, err := store.ApplyProjection(context.Background(), domain.ProjectionChange{
		WalletID:      w.ID,
		FromVersion:   3,
		Wallet:        w,
		Denominations: []domain.DenominationView{denom},
		Transactions:  []domain.TransactionView{tx},
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadModelStore_ApplyProjection_StaleView(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewReadModelStore(mock)
	w := newWalletView()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallet_views").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectCommit()

	ok, err := store.ApplyProjection(context.Background(), domain.ProjectionChange{
		WalletID:      w.ID,
		FromVersion:   3,
		Wallet:        w,
		Denominations: []domain.DenominationView{{ID: uuid.New()}},
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadModelStore_Reset(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewReadModelStore(mock)
	mock.ExpectExec("TRUNCATE wallet_views, denomination_views, transaction_views").
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))

	require.NoError(t, store.Reset(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
