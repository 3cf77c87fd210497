package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommandMeta carries who issued a command and when. The aggregate never reads
// identity or time from anywhere else.
type CommandMeta struct {
	ActorID string
	At      time.Time
}

// Wallet is the event-sourced aggregate root. Its state is derived only from its own
// event stream; command methods validate against that state, record exactly one new
// event and fold it in. Nothing is persisted here.
type Wallet struct {
	id            uuid.UUID
	ownerID       string
	name          string
	currency      string
	version       int64
	createdAt     time.Time
	denominations map[uuid.UUID]*Denomination
	order         []uuid.UUID
}

// NewWallet returns an empty aggregate at version 0.
func NewWallet(id uuid.UUID) *Wallet {
	return &Wallet{
		id:            id,
		denominations: make(map[uuid.UUID]*Denomination),
	}
}

func (w *Wallet) ID() uuid.UUID        { return w.id }
func (w *Wallet) Version() int64       { return w.version }
func (w *Wallet) OwnerID() string      { return w.ownerID }
func (w *Wallet) Name() string         { return w.name }
func (w *Wallet) Currency() string     { return w.currency }
func (w *Wallet) CreatedAt() time.Time { return w.createdAt }

// Exists reports whether the wallet has been created.
func (w *Wallet) Exists() bool { return w.version > 0 }

// Denomination returns an active denomination by id.
func (w *Wallet) Denomination(id uuid.UUID) (Denomination, bool) {
	d, ok := w.denominations[id]
	if !ok || d.Removed {
		return Denomination{}, false
	}
	return *d, true
}

// Denominations returns the active denominations in registration order.
func (w *Wallet) Denominations() []Denomination {
	out := make([]Denomination, 0, len(w.order))
	for _, id := range w.order {
		if d := w.denominations[id]; !d.Removed {
			out = append(out, *d)
		}
	}
	return out
}

// Balance is the sum of value x count over the inventory.
func (w *Wallet) Balance() decimal.Decimal {
	total := decimal.Zero
	for _, id := range w.order {
		total = total.Add(w.denominations[id].Total())
	}
	return total
}

// Create opens the wallet stream.
func (w *Wallet) Create(meta CommandMeta, name, currency string) (Event, error) {
	if w.Exists() {
		return Event{}, &WalletError{Kind: ErrKindWalletExists, Reason: "wallet " + w.id.String()}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Event{}, &WalletError{Kind: ErrKindInvalidWallet, Reason: "name is required"}
	}
	currency = NormalizeCurrency(currency)
	if len(currency) != 3 {
		return Event{}, &WalletError{Kind: ErrKindInvalidWallet, Reason: "currency must be a 3-letter code"}
	}
	return w.record(meta, uuid.Nil, WalletCreated{
		OwnerID:  meta.ActorID,
		Name:     name,
		Currency: currency,
	})
}

// Rename changes the wallet's display name.
func (w *Wallet) Rename(meta CommandMeta, name string) (Event, error) {
	if !w.Exists() {
		return Event{}, w.notFound()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Event{}, &WalletError{Kind: ErrKindInvalidWallet, Reason: "name is required"}
	}
	return w.record(meta, uuid.Nil, WalletRenamed{Name: name})
}

// AddDenomination registers a new denomination with a zero count.
func (w *Wallet) AddDenomination(meta CommandMeta, name string, typ DenominationType, value decimal.Decimal) (Event, error) {
	if !w.Exists() {
		return Event{}, w.notFound()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Event{}, &WalletError{Kind: ErrKindInvalidDenomination, Reason: "name is required"}
	}
	if !typ.IsValid() {
		return Event{}, &WalletError{Kind: ErrKindInvalidDenomination, Reason: fmt.Sprintf("unknown type %q", typ)}
	}
	if !value.IsPositive() {
		return Event{}, &WalletError{Kind: ErrKindInvalidDenomination, Reason: "value must be positive"}
	}
	for _, d := range w.Denominations() {
		if strings.EqualFold(d.Name, name) {
			return Event{}, &WalletError{Kind: ErrKindInvalidDenomination, DenominationID: d.ID, Reason: "name already registered"}
		}
	}
	return w.record(meta, uuid.Nil, DenominationAdded{
		DenominationID: uuid.New(),
		Name:           name,
		Type:           typ,
		Value:          value,
	})
}

// RemoveDenomination retires a denomination. Only empty denominations can be removed.
func (w *Wallet) RemoveDenomination(meta CommandMeta, id uuid.UUID) (Event, error) {
	if !w.Exists() {
		return Event{}, w.notFound()
	}
	d, ok := w.Denomination(id)
	if !ok {
		return Event{}, &WalletError{Kind: ErrKindUnknownDenomination, DenominationID: id}
	}
	if d.Count > 0 {
		return Event{}, &WalletError{Kind: ErrKindDenominationInUse, DenominationID: id, Available: d.Count}
	}
	return w.record(meta, uuid.Nil, DenominationRemoved{DenominationID: id})
}

// Deposit validates the batch and records one MoneyAdded event.
func (w *Wallet) Deposit(meta CommandMeta, currency string, items []LineItemRequest) (Event, error) {
	lines, err := w.validateBatch(currency, items, false)
	if err != nil {
		return Event{}, err
	}
	return w.record(meta, uuid.New(), MoneyAdded{Currency: w.currency, Items: lines})
}

// Withdraw validates the batch, including that every line is covered by the current
// inventory, and records one MoneyWithdrawn event. A single uncovered line rejects
// the whole batch.
func (w *Wallet) Withdraw(meta CommandMeta, currency string, items []LineItemRequest) (Event, error) {
	lines, err := w.validateBatch(currency, items, true)
	if err != nil {
		return Event{}, err
	}
	return w.record(meta, uuid.New(), MoneyWithdrawn{Currency: w.currency, Items: lines})
}

func (w *Wallet) validateBatch(currency string, items []LineItemRequest, withdraw bool) ([]LineItem, error) {
	if !w.Exists() {
		return nil, w.notFound()
	}
	if c := NormalizeCurrency(currency); c != w.currency {
		return nil, &WalletError{Kind: ErrKindCurrencyMismatch, Expected: w.currency, Actual: c}
	}
	if len(items) == 0 {
		return nil, &WalletError{Kind: ErrKindEmptyBatch, Reason: "at least one line item is required"}
	}

	seen := make(map[uuid.UUID]struct{}, len(items))
	lines := make([]LineItem, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.DenominationID]; dup {
			return nil, &WalletError{Kind: ErrKindDuplicateDenomination, DenominationID: item.DenominationID, Quantity: item.Quantity}
		}
		seen[item.DenominationID] = struct{}{}

		d, ok := w.Denomination(item.DenominationID)
		if !ok {
			return nil, &WalletError{Kind: ErrKindUnknownDenomination, DenominationID: item.DenominationID}
		}
		if item.Quantity <= 0 {
			return nil, &WalletError{Kind: ErrKindInvalidQuantity, DenominationID: d.ID, Quantity: item.Quantity}
		}
		if withdraw && d.Count < item.Quantity {
			return nil, &WalletError{
				Kind:           ErrKindInsufficientInventory,
				DenominationID: d.ID,
				Quantity:       item.Quantity,
				Available:      d.Count,
			}
		}
		if !withdraw && item.Quantity > math.MaxInt64-d.Count {
			return nil, &WalletError{Kind: ErrKindInvalidQuantity, DenominationID: d.ID, Quantity: item.Quantity, Reason: "count overflow"}
		}

		lines = append(lines, LineItem{
			TransactionItemID: uuid.New(),
			DenominationID:    d.ID,
			Name:              d.Name,
			Type:              d.Type,
			Value:             d.Value,
			Quantity:          item.Quantity,
		})
	}
	return lines, nil
}

func (w *Wallet) record(meta CommandMeta, groupID uuid.UUID, p Payload) (Event, error) {
	at := meta.At
	if at.IsZero() {
		at = time.Now()
	}
	evt := Event{
		ID:                 uuid.New(),
		AggregateID:        w.id,
		Version:            w.version + 1,
		Type:               p.EventType(),
		TransactionGroupID: groupID,
		ActorID:            meta.ActorID,
		RecordedAt:         at.UTC(),
		Payload:            p,
	}
	if err := w.Apply(evt); err != nil {
		return Event{}, err
	}
	return evt, nil
}

func (w *Wallet) notFound() error {
	return &WalletError{Kind: ErrKindWalletNotFound, Reason: "wallet " + w.id.String()}
}

// Apply folds one stored event into the aggregate. Events must arrive in contiguous
// version order; anything else means the stream is corrupt.
func (w *Wallet) Apply(evt Event) error {
	if evt.AggregateID != w.id {
		return fmt.Errorf("event %s belongs to wallet %s, not %s", evt.ID, evt.AggregateID, w.id)
	}
	if evt.Version != w.version+1 {
		return fmt.Errorf("wallet %s: event version %d does not follow %d", w.id, evt.Version, w.version)
	}

	switch p := evt.Payload.(type) {
	case WalletCreated:
		if w.version != 0 {
			return fmt.Errorf("wallet %s: created twice", w.id)
		}
		w.ownerID = p.OwnerID
		w.name = p.Name
		w.currency = p.Currency
		w.createdAt = evt.RecordedAt
	case WalletRenamed:
		w.name = p.Name
	case DenominationAdded:
		if _, exists := w.denominations[p.DenominationID]; exists {
			return fmt.Errorf("wallet %s: denomination %s added twice", w.id, p.DenominationID)
		}
		w.denominations[p.DenominationID] = &Denomination{
			ID:       p.DenominationID,
			WalletID: w.id,
			Name:     p.Name,
			Type:     p.Type,
			Value:    p.Value,
		}
		w.order = append(w.order, p.DenominationID)
	case DenominationRemoved:
		d, ok := w.denominations[p.DenominationID]
		if !ok {
			return fmt.Errorf("wallet %s: removed unknown denomination %s", w.id, p.DenominationID)
		}
		d.Removed = true
	case MoneyAdded:
		for _, li := range p.Items {
			d, ok := w.denominations[li.DenominationID]
			if !ok {
				return fmt.Errorf("wallet %s: deposit to unknown denomination %s", w.id, li.DenominationID)
			}
			d.Count += li.Quantity
		}
	case MoneyWithdrawn:
		for _, li := range p.Items {
			d, ok := w.denominations[li.DenominationID]
			if !ok {
				return fmt.Errorf("wallet %s: withdrawal from unknown denomination %s", w.id, li.DenominationID)
			}
			if d.Count < li.Quantity {
				return fmt.Errorf("wallet %s: withdrawal of %d exceeds count %d for %s", w.id, li.Quantity, d.Count, li.DenominationID)
			}
			d.Count -= li.Quantity
		}
	default:
		return fmt.Errorf("wallet %s: unsupported payload %T", w.id, evt.Payload)
	}

	w.version = evt.Version
	return nil
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}
