package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenominationType_IsValid(t *testing.T) {
	tests := []struct {
		name string
		typ  DenominationType
		want bool
	}{
		{"bill", DenominationTypeBill, true},
		{"coin", DenominationTypeCoin, true},
		{"empty", "", false},
		{"other", "token", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.IsValid())
		})
	}
}

func TestWalletError_Is(t *testing.T) {
	id := uuid.New()
	err := fmt.Errorf("withdraw: %w", &WalletError{Kind: ErrKindInsufficientInventory, DenominationID: id, Quantity: 4, Available: 1})

	assert.True(t, errors.Is(err, ErrInsufficientInventory))
	assert.False(t, errors.Is(err, ErrInvalidQuantity))
	assert.Contains(t, err.Error(), "insufficient inventory: denomination "+id.String())
	assert.Contains(t, err.Error(), "requested 4, available 1")
}

func TestNewConcurrencyConflict(t *testing.T) {
	id := uuid.New()

	known := NewConcurrencyConflict(id, 3, 5)
	assert.ErrorIs(t, known, ErrConcurrencyConflict)
	assert.Contains(t, known.Error(), "expected version 3, stored version 5")

	unknown := NewConcurrencyConflict(id, 3, -1)
	assert.Empty(t, unknown.Actual)
	assert.NotContains(t, unknown.Error(), "stored version")
}

func TestBuildIdempotencyKey(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	key := BuildIdempotencyKey("user-7", id, "deposit", "abc")
	assert.Equal(t, "user-7:550e8400-e29b-41d4-a716-446655440000:deposit:abc", key)
	assert.NotEqual(t, key, BuildIdempotencyKey("user-7", id, "withdraw", "abc"))
}

func TestDecodePayload(t *testing.T) {
	denomID := uuid.New()
	evt := Event{ID: uuid.New(), Payload: DenominationAdded{
		DenominationID: denomID,
		Name:           "Five",
		Type:           DenominationTypeBill,
		Value:          decimal.RequireFromString("5.00"),
	}}
	data, err := evt.MarshalPayload()
	require.NoError(t, err)

	p, err := DecodePayload(EventTypeDenominationAdded, data)
	require.NoError(t, err)
	added, ok := p.(DenominationAdded)
	require.True(t, ok)
	assert.Equal(t, denomID, added.DenominationID)
	assert.True(t, decimal.NewFromInt(5).Equal(added.Value))

	_, err = DecodePayload("wallet.closed", data)
	assert.Error(t, err)

	p, err = DecodePayload(EventTypeUserRegistered, []byte(`{"name":"Ada","email":"ada@example.com","password_hash":"h"}`))
	require.NoError(t, err)
	assert.Equal(t, UserRegistered{Name: "Ada", Email: "ada@example.com", PasswordHash: "h"}, p)

	_, err = Event{ID: uuid.New()}.MarshalPayload()
	assert.Error(t, err)
}

func TestCheckBatch(t *testing.T) {
	id, other := uuid.New(), uuid.New()
	at := func(v int64) Event { return Event{ID: uuid.New(), AggregateID: id, Version: v} }

	assert.NoError(t, CheckBatch(id, 0, []Event{at(1)}))
	assert.NoError(t, CheckBatch(id, 4, []Event{at(5), at(6)}))

	assert.ErrorContains(t, CheckBatch(id, 0, nil), "no events")
	assert.ErrorContains(t, CheckBatch(id, 4, []Event{at(5), at(7)}), "event version 7, want 6")
	assert.ErrorContains(t, CheckBatch(id, 0, []Event{{ID: uuid.New(), AggregateID: other, Version: 1}}), "belongs to "+other.String())
}

func TestTransactionFilter_Matches(t *testing.T) {
	denomID, groupID := uuid.New(), uuid.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tx := TransactionView{
		Type:               TransactionTypeDeposit,
		DenominationID:     denomID,
		TransactionGroupID: groupID,
		CreatedAt:          at,
	}
	other := uuid.New()
	before, after := at.Add(-time.Hour), at.Add(time.Hour)

	tests := []struct {
		name   string
		filter TransactionFilter
		want   bool
	}{
		{"empty", TransactionFilter{}, true},
		{"type match", TransactionFilter{Type: TransactionTypeDeposit}, true},
		{"type mismatch", TransactionFilter{Type: TransactionTypeWithdraw}, false},
		{"denomination", TransactionFilter{DenominationID: &denomID}, true},
		{"other denomination", TransactionFilter{DenominationID: &other}, false},
		{"group", TransactionFilter{TransactionGroupID: &groupID}, true},
		{"other group", TransactionFilter{TransactionGroupID: &other}, false},
		{"inside range", TransactionFilter{From: &before, To: &after}, true},
		{"from is inclusive", TransactionFilter{From: &at}, true},
		{"to is exclusive", TransactionFilter{To: &at}, false},
		{"after range", TransactionFilter{To: &before}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tx))
		})
	}
}

func TestPage_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"zero", Page{}, Page{Page: 1, PageSize: DefaultPageSize}},
		{"valid", Page{Page: 3, PageSize: 10}, Page{Page: 3, PageSize: 10}},
		{"too large", Page{Page: 1, PageSize: 1000}, Page{Page: 1, PageSize: MaxPageSize}},
		{"negative", Page{Page: -2, PageSize: -1}, Page{Page: 1, PageSize: DefaultPageSize}},
		{"page beyond limit", Page{Page: math.MaxInt/20 + 2, PageSize: 20}, Page{Page: MaxPage, PageSize: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
	assert.Equal(t, 20, Page{Page: 3, PageSize: 10}.Offset())
	assert.Equal(t, (MaxPage-1)*MaxPageSize, Page{Page: math.MaxInt, PageSize: math.MaxInt}.Offset())
}
