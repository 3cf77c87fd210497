package dto

import (
	"math"

	"denomination-wallet/internal/core/domain"

	"github.com/shopspring/decimal"
)

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128" sanitize:"-"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required" sanitize:"-"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// UpdateWalletRequest is the request body for renaming a wallet.
type UpdateWalletRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// CreateWalletRequest is the request body for wallet registration.
type CreateWalletRequest struct {
	ID       string `json:"id,omitempty" binding:"omitempty,uuid"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Currency string `json:"currency" binding:"required,currency_code"`
}

// AddDenominationRequest is the request body for registering a denomination.
type AddDenominationRequest struct {
	Name  string                  `json:"name" binding:"required,min=1,max=50"`
	Type  domain.DenominationType `json:"type" binding:"required,oneof=bill coin"`
	Value decimal.Decimal         `json:"value" binding:"required,decimal_gt0"`
}

// LineItemRequest is one denomination and quantity of a deposit or withdrawal.
// Quantities are checked by the wallet so that they map to wallet error codes;
// any JSON number binds, whole or not.
type LineItemRequest struct {
	DenominationID string          `json:"denomination_id" binding:"required,uuid"`
	Quantity       decimal.Decimal `json:"quantity"`
}

var maxQuantity = decimal.NewFromInt(math.MaxInt64)

// WholeQuantity returns the quantity as a count, or false when it has a
// fractional part or does not fit.
func (r LineItemRequest) WholeQuantity() (int64, bool) {
	if !r.Quantity.IsInteger() || r.Quantity.Abs().GreaterThan(maxQuantity) {
		return 0, false
	}
	return r.Quantity.IntPart(), true
}

// MoneyRequest is the request body for deposit and withdraw.
type MoneyRequest struct {
	Currency string            `json:"currency" binding:"required"`
	Items    []LineItemRequest `json:"items" binding:"dive"`
}

// MoneyResponse is returned by deposit and withdraw.
type MoneyResponse struct {
	Success            bool              `json:"success"`
	Message            string            `json:"message"`
	Wallet             domain.WalletView `json:"wallet"`
	TransactionGroupID string            `json:"transaction_group_id"`
	Replayed           bool              `json:"replayed,omitempty"`
}

// TransactionListQuery holds the query string of a transaction listing.
type TransactionListQuery struct {
	Type               string `form:"type" binding:"omitempty,oneof=deposit withdraw"`
	DenominationID     string `form:"denomination_id" binding:"omitempty,uuid"`
	TransactionGroupID string `form:"transaction_group_id" binding:"omitempty,uuid"`
	From               string `form:"from" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To                 string `form:"to" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Page               int    `form:"page" binding:"omitempty,min=1,max=1000000"`
	PageSize           int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []domain.TransactionView `json:"items"`
	Total      int64                    `json:"total"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"page_size"`
	TotalPages int                      `json:"total_pages"`
}

// DenominationResponse is returned when a denomination is added or removed.
type DenominationResponse struct {
	Denomination *domain.DenominationView `json:"denomination"`
	Wallet       domain.WalletView        `json:"wallet"`
}
