package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdempotencyStore(t *testing.T) (*IdempotencyStore, pgxmock.PgxPoolIface, time.Time) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewIdempotencyStore(mock)
	store.now = func() time.Time { return now }
	return store, mock, now
}

func TestIdempotencyStore_Get(t *testing.T) {
	store, mock, now := newIdempotencyStore(t)

	mock.ExpectQuery("SELECT response_json FROM idempotency_keys WHERE key").
		WithArgs("user-1:w:dep-1", now).
		WillReturnRows(pgxmock.NewRows([]string{"response_json"}).AddRow([]byte(`{"version":4}`)))

	data, err := store.Get(context.Background(), "user-1:w:dep-1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"version":4}`), data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyStore_Get_Miss(t *testing.T) {
	store, mock, now := newIdempotencyStore(t)

	mock.ExpectQuery("SELECT response_json FROM idempotency_keys").
		WithArgs("missing", now).
		WillReturnRows(pgxmock.NewRows([]string{"response_json"}))

	data, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyStore_Set(t *testing.T) {
	store, mock, now := newIdempotencyStore(t)

	mock.ExpectExec("INSERT INTO idempotency_keys .+ ON CONFLICT \\(key\\) DO UPDATE").
		WithArgs("k", []byte(`{}`), now.Add(time.Hour)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Set(context.Background(), "k", []byte(`{}`), time.Hour))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyStore_Reserve(t *testing.T) {
	store, mock, now := newIdempotencyStore(t)

	mock.ExpectExec("INSERT INTO idempotency_keys \\(key, reserved_until\\)").
		WithArgs("k", now.Add(5*time.Second), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// a live claim leaves the conflicting row untouched
	mock.ExpectExec("INSERT INTO idempotency_keys \\(key, reserved_until\\)").
		WithArgs("k", now.Add(5*time.Second), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	ok, err := store.Reserve(context.Background(), "k", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(context.Background(), "k", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyStore_Release(t *testing.T) {
	store, mock, _ := newIdempotencyStore(t)

	mock.ExpectExec("UPDATE idempotency_keys SET reserved_until = NULL").
		WithArgs("k").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.Release(context.Background(), "k"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyStore_Errors(t *testing.T) {
	store, mock, _ := newIdempotencyStore(t)

	mock.ExpectExec("INSERT INTO idempotency_keys").WillReturnError(assert.AnError)
	_, err := store.Reserve(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "reserve idempotency key")
}
