package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmailTaken  = errors.New("email already registered")
	ErrInvalidUser = errors.New("invalid user")
)

// userNamespace derives user ids from emails, so a user stream exists at most
// once per address and the event store's version guard enforces uniqueness.
var userNamespace = uuid.MustParse("5b0b7c7e-3f0e-4c2a-9a57-1f0d4f3c9e21")

// UserRegistered opens a user stream. It is always version 1.
type UserRegistered struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserIDForEmail returns the stream id of the user registered under email.
func UserIDForEmail(email string) uuid.UUID {
	return uuid.NewSHA1(userNamespace, []byte(NormalizeEmail(email)))
}

// User is the event-sourced account aggregate. Wallet owners are user ids.
type User struct {
	id           uuid.UUID
	version      int64
	name         string
	email        string
	passwordHash string
	registeredAt time.Time
}

// NewUser returns an empty aggregate at version 0.
func NewUser(id uuid.UUID) *User {
	return &User{id: id}
}

func (u *User) ID() uuid.UUID           { return u.id }
func (u *User) Version() int64          { return u.version }
func (u *User) Name() string            { return u.name }
func (u *User) Email() string           { return u.email }
func (u *User) PasswordHash() string    { return u.passwordHash }
func (u *User) RegisteredAt() time.Time { return u.registeredAt }

// Exists reports whether the user has registered.
func (u *User) Exists() bool { return u.version > 0 }

// Register records the account. passwordHash must already be hashed.
func (u *User) Register(meta CommandMeta, name, email, passwordHash string) (Event, error) {
	if u.Exists() {
		return Event{}, ErrEmailTaken
	}
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	switch {
	case name == "":
		return Event{}, fmt.Errorf("%w: name is required", ErrInvalidUser)
	case !strings.Contains(email, "@"):
		return Event{}, fmt.Errorf("%w: email %q", ErrInvalidUser, email)
	case UserIDForEmail(email) != u.id:
		return Event{}, fmt.Errorf("%w: email %q does not belong to stream %s", ErrInvalidUser, email, u.id)
	case passwordHash == "":
		return Event{}, fmt.Errorf("%w: password hash is required", ErrInvalidUser)
	}

	at := meta.At
	if at.IsZero() {
		at = time.Now()
	}
	evt := Event{
		ID:          uuid.New(),
		AggregateID: u.id,
		Version:     1,
		Type:        EventTypeUserRegistered,
		ActorID:     u.id.String(),
		RecordedAt:  at.UTC(),
		Payload:     UserRegistered{Name: name, Email: email, PasswordHash: passwordHash},
	}
	if err := u.Apply(evt); err != nil {
		return Event{}, err
	}
	return evt, nil
}

// Apply folds one stored event into the aggregate.
func (u *User) Apply(evt Event) error {
	if evt.AggregateID != u.id {
		return fmt.Errorf("event %s belongs to %s, not user %s", evt.ID, evt.AggregateID, u.id)
	}
	if evt.Version != u.version+1 {
		return fmt.Errorf("user %s: event version %d does not follow %d", u.id, evt.Version, u.version)
	}
	p, ok := evt.Payload.(UserRegistered)
	if !ok {
		return fmt.Errorf("user %s: unsupported payload %T", u.id, evt.Payload)
	}
	if u.version != 0 {
		return fmt.Errorf("user %s: registered twice", u.id)
	}
	u.name = p.Name
	u.email = p.Email
	u.passwordHash = p.PasswordHash
	u.registeredAt = evt.RecordedAt
	u.version = evt.Version
	return nil
}
