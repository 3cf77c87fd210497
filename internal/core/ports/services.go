package ports

import (
	"context"
	"time"

	"denomination-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(actorID string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	ActorID string
}

// IdempotencyCache stores serialized command results under a client supplied key.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Reserve claims key for a command in flight. It reports false while another
	// request holds the claim.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// InvalidationSignal is fired once after every successful wallet command.
type InvalidationSignal struct {
	WalletID uuid.UUID
	ActorID  string
}

// CacheInvalidator is whatever layer owns cached listings.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, sig InvalidationSignal) error
}

// TransactionListCache memoizes transaction listing pages per wallet and actor.
// version is the wallet view version the page was read at.
type TransactionListCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, walletID uuid.UUID, actorID string, version int64, filter domain.TransactionFilter, page domain.Page) (*domain.TransactionPage, error)
	Set(ctx context.Context, walletID uuid.UUID, actorID string, version int64, filter domain.TransactionFilter, page domain.Page, result *domain.TransactionPage) error
}

// WalletListCache memoizes an actor's wallet listing.
type WalletListCache interface {
	// GetWallets returns nil wallets on a miss. stamp must be handed back to
	// SetWallets so a listing read before an invalidation is never served.
	GetWallets(ctx context.Context, actorID string) (wallets []domain.WalletView, stamp string, err error)
	SetWallets(ctx context.Context, actorID, stamp string, wallets []domain.WalletView) error
}

// EventPublisher hands freshly appended events to the projector.
type EventPublisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}

// Action is something an actor wants to do with a wallet.
type Action string

const (
	ActionView                Action = "view"
	ActionDeposit             Action = "deposit"
	ActionWithdraw            Action = "withdraw"
	ActionUpdate              Action = "update"
	ActionManageDenominations Action = "manage_denominations"
)

// WalletPolicy decides whether an actor may perform an action on a wallet.
type WalletPolicy interface {
	// Authorize returns domain.ErrForbidden (wrapped) when the action is not allowed.
	Authorize(actorID, ownerID string, action Action) error
}

// --- Service Ports (Business Logic) ---

// AuthService registers users and exchanges credentials for a token.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds validated input for user registration.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// RegisterResult identifies the new user.
type RegisterResult struct {
	UserID uuid.UUID
}

// WalletCommandService runs every state changing wallet command.
type WalletCommandService interface {
	CreateWallet(ctx context.Context, req CreateWalletRequest) (*CommandResult, error)
	UpdateWallet(ctx context.Context, req UpdateWalletRequest) (*CommandResult, error)
	AddDenomination(ctx context.Context, req AddDenominationRequest) (*CommandResult, error)
	RemoveDenomination(ctx context.Context, req RemoveDenominationRequest) (*CommandResult, error)
	Deposit(ctx context.Context, req MoneyRequest) (*CommandResult, error)
	Withdraw(ctx context.Context, req MoneyRequest) (*CommandResult, error)
}

// CreateWalletRequest holds validated input for wallet registration.
type CreateWalletRequest struct {
	ActorID  string
	WalletID uuid.UUID // uuid.Nil = generate
	Name     string
	Currency string
}

// UpdateWalletRequest holds validated input for renaming a wallet.
type UpdateWalletRequest struct {
	ActorID  string
	WalletID uuid.UUID
	Name     string
}

// AddDenominationRequest holds validated input for registering a denomination.
type AddDenominationRequest struct {
	ActorID  string
	WalletID uuid.UUID
	Name     string
	Type     domain.DenominationType
	Value    decimal.Decimal
}

// RemoveDenominationRequest holds validated input for retiring a denomination.
type RemoveDenominationRequest struct {
	ActorID        string
	WalletID       uuid.UUID
	DenominationID uuid.UUID
}

// MoneyRequest holds validated input for a deposit or withdrawal.
type MoneyRequest struct {
	ActorID        string
	WalletID       uuid.UUID
	Currency       string
	Items          []domain.LineItemRequest
	IdempotencyKey string // optional
}

// CommandResult is the wallet state right after a successful command, built from the
// aggregate so it never lags behind the projection.
type CommandResult struct {
	Wallet             domain.WalletView        `json:"wallet"`
	Denomination       *domain.DenominationView `json:"denomination,omitempty"`
	Version            int64                    `json:"version"`
	TransactionGroupID uuid.UUID                `json:"transaction_group_id,omitempty"`
	Events             []domain.Event           `json:"-"`
	Replayed           bool                     `json:"-"` // served from the idempotency cache
}

// WalletQueryService reads the projected views.
type WalletQueryService interface {
	GetWallet(ctx context.Context, actorID string, walletID uuid.UUID) (*domain.WalletView, error)
	ListWallets(ctx context.Context, actorID string) ([]domain.WalletView, error)
	ListDenominations(ctx context.Context, actorID string, walletID uuid.UUID) ([]domain.DenominationView, error)
	ListTransactions(ctx context.Context, params TransactionListParams) (*domain.TransactionPage, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	ActorID  string
	WalletID uuid.UUID
	Filter   domain.TransactionFilter
	Page     domain.Page
}
