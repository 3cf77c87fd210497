package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a money movement in the transaction view.
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdraw
}

// WalletView is the projected wallet row. Version is the last event folded into it.
type WalletView struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// DenominationView is the projected inventory row for one denomination.
type DenominationView struct {
	ID        uuid.UUID        `json:"id"`
	WalletID  uuid.UUID        `json:"wallet_id"`
	Name      string           `json:"name"`
	Type      DenominationType `json:"type"`
	Value     decimal.Decimal  `json:"value"`
	Count     int64            `json:"count"`
	Removed   bool             `json:"removed"`
	Version   int64            `json:"version"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TransactionView is one line item of a money event. ID is the transaction item id.
type TransactionView struct {
	ID                 uuid.UUID        `json:"id"`
	TransactionGroupID uuid.UUID        `json:"transaction_group_id"`
	WalletID           uuid.UUID        `json:"wallet_id"`
	EventID            uuid.UUID        `json:"event_id"`
	Version            int64            `json:"version"`
	Type               TransactionType  `json:"type"`
	DenominationID     uuid.UUID        `json:"denomination_id"`
	DenominationName   string           `json:"denomination_name"`
	DenominationType   DenominationType `json:"denomination_type"`
	DenominationValue  decimal.Decimal  `json:"denomination_value"`
	Quantity           int64            `json:"quantity"`
	Amount             decimal.Decimal  `json:"amount"`
	Currency           string           `json:"currency"`
	ActorID            string           `json:"actor_id"`
	CreatedAt          time.Time        `json:"created_at"`
}

// TransactionFilter narrows a transaction listing. Zero fields match everything.
type TransactionFilter struct {
	Type               TransactionType `json:"type,omitempty"`
	DenominationID     *uuid.UUID      `json:"denomination_id,omitempty"`
	TransactionGroupID *uuid.UUID      `json:"transaction_group_id,omitempty"`
	From               *time.Time      `json:"from,omitempty"`
	To                 *time.Time      `json:"to,omitempty"`
}

// Matches reports whether tx passes the filter. From is inclusive, To exclusive.
func (f TransactionFilter) Matches(tx TransactionView) bool {
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.DenominationID != nil && tx.DenominationID != *f.DenominationID {
		return false
	}
	if f.TransactionGroupID != nil && tx.TransactionGroupID != *f.TransactionGroupID {
		return false
	}
	if f.From != nil && tx.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !tx.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 1_000_000
)

// Page selects a window of a listing. Pages are 1-based.
type Page struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Normalize clamps the page into a valid range.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the number of rows to skip for a normalized page.
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PageSize
}

// TransactionPage is one page of a transaction listing, newest first.
type TransactionPage struct {
	Items    []TransactionView `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}
