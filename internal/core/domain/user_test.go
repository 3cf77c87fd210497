package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserIDForEmail(t *testing.T) {
	assert.Equal(t, UserIDForEmail("Ada@Example.com "), UserIDForEmail("ada@example.com"))
	assert.NotEqual(t, UserIDForEmail("ada@example.com"), UserIDForEmail("bob@example.com"))
}

func TestUser_Register(t *testing.T) {
	id := UserIDForEmail("ada@example.com")
	u := NewUser(id)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	evt, err := u.Register(CommandMeta{At: at}, " Ada ", "ADA@example.com", "$argon2id$hash")
	require.NoError(t, err)
	assert.Equal(t, EventTypeUserRegistered, evt.Type)
	assert.Equal(t, int64(1), evt.Version)
	assert.Equal(t, id.String(), evt.ActorID)
	assert.Equal(t, UserRegistered{Name: "Ada", Email: "ada@example.com", PasswordHash: "$argon2id$hash"}, evt.Payload)
	assert.False(t, evt.Type.IsWalletEvent())

	assert.True(t, u.Exists())
	assert.Equal(t, "ada@example.com", u.Email())
	assert.Equal(t, at, u.RegisteredAt())

	_, err = u.Register(CommandMeta{}, "Ada", "ada@example.com", "$argon2id$hash")
	assert.ErrorIs(t, err, ErrEmailTaken)

	replayed := NewUser(id)
	require.NoError(t, replayed.Apply(evt))
	assert.Equal(t, u.PasswordHash(), replayed.PasswordHash())
}

func TestUser_Register_Invalid(t *testing.T) {
	id := UserIDForEmail("ada@example.com")
	tests := []struct {
		name, user, email, hash string
	}{
		{"no name", " ", "ada@example.com", "h"},
		{"bad email", "Ada", "ada", "h"},
		{"foreign stream", "Ada", "bob@example.com", "h"},
		{"no hash", "Ada", "ada@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUser(id)
			_, err := u.Register(CommandMeta{}, tt.user, tt.email, tt.hash)
			assert.ErrorIs(t, err, ErrInvalidUser)
			assert.False(t, u.Exists())
		})
	}
}

func TestUser_Apply_RejectsWalletEvents(t *testing.T) {
	id := uuid.New()
	err := NewUser(id).Apply(Event{ID: uuid.New(), AggregateID: id, Version: 1, Payload: WalletCreated{}})
	assert.Error(t, err)
}
