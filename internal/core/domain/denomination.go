package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DenominationType distinguishes paper money from coins.
type DenominationType string

const (
	DenominationTypeBill DenominationType = "bill"
	DenominationTypeCoin DenominationType = "coin"
)

// IsValid reports whether t is a known denomination type.
func (t DenominationType) IsValid() bool {
	return t == DenominationTypeBill || t == DenominationTypeCoin
}

// Denomination is a unit of currency value owned by exactly one wallet.
// Count is the number of units currently held.
type Denomination struct {
	ID       uuid.UUID        `json:"id"`
	WalletID uuid.UUID        `json:"wallet_id"`
	Name     string           `json:"name"`
	Type     DenominationType `json:"type"`
	Value    decimal.Decimal  `json:"value"`
	Count    int64            `json:"count"`
	Removed  bool             `json:"removed,omitempty"`
}

// Total returns Value x Count.
func (d Denomination) Total() decimal.Decimal {
	return d.Value.Mul(decimal.NewFromInt(d.Count))
}

// LineItemRequest is one (denomination, quantity) pair of a deposit or withdrawal command.
type LineItemRequest struct {
	DenominationID uuid.UUID `json:"denomination_id"`
	Quantity       int64     `json:"quantity"`
}

// LineItem is a validated line item as recorded on a money event. The denomination
// fields are a snapshot taken when the event was produced, so history stays stable
// if the denomination is later removed.
type LineItem struct {
	TransactionItemID uuid.UUID        `json:"transaction_item_id"`
	DenominationID    uuid.UUID        `json:"denomination_id"`
	Name              string           `json:"name"`
	Type              DenominationType `json:"type"`
	Value             decimal.Decimal  `json:"value"`
	Quantity          int64            `json:"quantity"`
}

// Amount returns Value x Quantity.
func (li LineItem) Amount() decimal.Decimal {
	return li.Value.Mul(decimal.NewFromInt(li.Quantity))
}
