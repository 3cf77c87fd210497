package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType names an event variant. The set is closed: every projection and
// aggregate fold switches over exactly these values.
type EventType string

const (
	EventTypeWalletCreated       EventType = "wallet.created"
	EventTypeWalletRenamed       EventType = "wallet.renamed"
	EventTypeDenominationAdded   EventType = "wallet.denomination_added"
	EventTypeDenominationRemoved EventType = "wallet.denomination_removed"
	EventTypeMoneyAdded          EventType = "wallet.money_added"
	EventTypeMoneyWithdrawn      EventType = "wallet.money_withdrawn"

	EventTypeUserRegistered EventType = "user.registered"
)

// IsWalletEvent reports whether t belongs to a wallet stream. User streams share
// the log but never reach the wallet projections.
func (t EventType) IsWalletEvent() bool {
	return strings.HasPrefix(string(t), "wallet.")
}

// Payload is implemented only by the event payload types in this package.
type Payload interface {
	EventType() EventType
	isPayload()
}

// Event is an immutable entry in an aggregate's event stream.
type Event struct {
	ID                 uuid.UUID `json:"id"`
	AggregateID        uuid.UUID `json:"aggregate_id"`
	Version            int64     `json:"version"`
	Type               EventType `json:"type"`
	TransactionGroupID uuid.UUID `json:"transaction_group_id,omitempty"`
	ActorID            string    `json:"actor_id"`
	RecordedAt         time.Time `json:"recorded_at"`
	Payload            Payload   `json:"-"`
}

// WalletCreated opens a wallet stream. It is always version 1.
type WalletCreated struct {
	OwnerID  string `json:"owner_id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// WalletRenamed changes the display name of a wallet.
type WalletRenamed struct {
	Name string `json:"name"`
}

// DenominationAdded registers a denomination in the wallet catalogue.
type DenominationAdded struct {
	DenominationID uuid.UUID        `json:"denomination_id"`
	Name           string           `json:"name"`
	Type           DenominationType `json:"type"`
	Value          decimal.Decimal  `json:"value"`
}

// DenominationRemoved retires a denomination whose count is zero.
type DenominationRemoved struct {
	DenominationID uuid.UUID `json:"denomination_id"`
}

// MoneyAdded records a deposit of one or more denominations.
type MoneyAdded struct {
	Currency string     `json:"currency"`
	Items    []LineItem `json:"items"`
}

// MoneyWithdrawn records a withdrawal of one or more denominations.
type MoneyWithdrawn struct {
	Currency string     `json:"currency"`
	Items    []LineItem `json:"items"`
}

func (WalletCreated) EventType() EventType       { return EventTypeWalletCreated }
func (WalletRenamed) EventType() EventType       { return EventTypeWalletRenamed }
func (DenominationAdded) EventType() EventType   { return EventTypeDenominationAdded }
func (DenominationRemoved) EventType() EventType { return EventTypeDenominationRemoved }
func (MoneyAdded) EventType() EventType          { return EventTypeMoneyAdded }
func (MoneyWithdrawn) EventType() EventType      { return EventTypeMoneyWithdrawn }
func (UserRegistered) EventType() EventType      { return EventTypeUserRegistered }

func (WalletCreated) isPayload()       {}
func (WalletRenamed) isPayload()       {}
func (DenominationAdded) isPayload()   {}
func (DenominationRemoved) isPayload() {}
func (MoneyAdded) isPayload()          {}
func (MoneyWithdrawn) isPayload()      {}
func (UserRegistered) isPayload()      {}

// Items returns the line items of a money event, or nil for other variants.
func (e Event) Items() []LineItem {
	switch p := e.Payload.(type) {
	case MoneyAdded:
		return p.Items
	case MoneyWithdrawn:
		return p.Items
	}
	return nil
}

// MarshalPayload encodes the payload for storage.
func (e Event) MarshalPayload() ([]byte, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("event %s has no payload", e.ID)
	}
	return json.Marshal(e.Payload)
}

// DecodePayload decodes a stored payload of the given type.
func DecodePayload(t EventType, data []byte) (Payload, error) {
	switch t {
	case EventTypeWalletCreated:
		var p WalletCreated
		err := json.Unmarshal(data, &p)
		return p, err
	case EventTypeWalletRenamed:
		var p WalletRenamed
		err := json.Unmarshal(data, &p)
		return p, err
	case EventTypeDenominationAdded:
		var p DenominationAdded
		err := json.Unmarshal(data, &p)
		return p, err
	case EventTypeDenominationRemoved:
		var p DenominationRemoved
		err := json.Unmarshal(data, &p)
		return p, err
	case EventTypeMoneyAdded:
		var p MoneyAdded
		err := json.Unmarshal(data, &p)
		return p, err
	case EventTypeMoneyWithdrawn:
		var p MoneyWithdrawn
		err := json.Unmarshal(data, &p)
		return p, err
	case EventTypeUserRegistered:
		var p UserRegistered
		err := json.Unmarshal(data, &p)
		return p, err
	default:
		return nil, fmt.Errorf("unknown event type %q", t)
	}
}

// CheckBatch verifies that events belong to aggregateID and continue its stream
// contiguously from expectedVersion.
func CheckBatch(aggregateID uuid.UUID, expectedVersion int64, events []Event) error {
	if len(events) == 0 {
		return fmt.Errorf("append to %s: no events", aggregateID)
	}
	for i, evt := range events {
		if evt.AggregateID != aggregateID {
			return fmt.Errorf("append to %s: event %s belongs to %s", aggregateID, evt.ID, evt.AggregateID)
		}
		if want := expectedVersion + int64(i) + 1; evt.Version != want {
			return fmt.Errorf("append to %s: event version %d, want %d", aggregateID, evt.Version, want)
		}
	}
	return nil
}
