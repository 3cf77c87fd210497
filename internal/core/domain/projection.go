package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectionChange is everything one event changes in the read models. Stores apply
// it atomically and only when the stored wallet view is still at FromVersion.
type ProjectionChange struct {
	EventID       uuid.UUID
	WalletID      uuid.UUID
	FromVersion   int64
	Wallet        WalletView
	Denominations []DenominationView
	Transactions  []TransactionView
}

// FoldEvent computes the read model rows produced by evt. wallet is the current view
// (nil before WalletCreated) and denoms every denomination row of that wallet.
// The inputs are not modified.
func FoldEvent(wallet *WalletView, denoms []DenominationView, evt Event) (ProjectionChange, error) {
	change := ProjectionChange{
		EventID:     evt.ID,
		WalletID:    evt.AggregateID,
		FromVersion: evt.Version - 1,
	}

	if created, ok := evt.Payload.(WalletCreated); ok {
		if wallet != nil {
			return change, fmt.Errorf("fold %s: wallet view %s already exists", evt.Type, evt.AggregateID)
		}
		if evt.Version != 1 {
			return change, fmt.Errorf("fold %s: version %d, want 1", evt.Type, evt.Version)
		}
		change.Wallet = WalletView{
			ID:        evt.AggregateID,
			OwnerID:   created.OwnerID,
			Name:      created.Name,
			Currency:  created.Currency,
			Balance:   decimal.Zero,
			Version:   evt.Version,
			CreatedAt: evt.RecordedAt,
			UpdatedAt: evt.RecordedAt,
		}
		return change, nil
	}

	if wallet == nil {
		return change, fmt.Errorf("fold %s: wallet view %s not found", evt.Type, evt.AggregateID)
	}
	if wallet.Version != evt.Version-1 {
		return change, fmt.Errorf("fold %s: wallet view %s at version %d cannot take version %d",
			evt.Type, evt.AggregateID, wallet.Version, evt.Version)
	}

	rows := make(map[uuid.UUID]DenominationView, len(denoms))
	order := make([]uuid.UUID, 0, len(denoms))
	for _, d := range denoms {
		rows[d.ID] = d
		order = append(order, d.ID)
	}
	touched := make([]uuid.UUID, 0, 4)
	touch := func(d DenominationView) {
		d.Version = evt.Version
		d.UpdatedAt = evt.RecordedAt
		if _, exists := rows[d.ID]; !exists {
			order = append(order, d.ID)
		}
		rows[d.ID] = d
		touched = append(touched, d.ID)
	}

	name := wallet.Name
	switch p := evt.Payload.(type) {
	case WalletRenamed:
		name = p.Name
	case DenominationAdded:
		if _, exists := rows[p.DenominationID]; exists {
			return change, fmt.Errorf("fold %s: denomination %s already projected", evt.Type, p.DenominationID)
		}
		touch(DenominationView{
			ID:       p.DenominationID,
			WalletID: evt.AggregateID,
			Name:     p.Name,
			Type:     p.Type,
			Value:    p.Value,
		})
	case DenominationRemoved:
		d, ok := rows[p.DenominationID]
		if !ok {
			return change, fmt.Errorf("fold %s: denomination %s not projected", evt.Type, p.DenominationID)
		}
		d.Removed = true
		touch(d)
	case MoneyAdded, MoneyWithdrawn:
		txType, sign := TransactionTypeDeposit, int64(1)
		if evt.Type == EventTypeMoneyWithdrawn {
			txType, sign = TransactionTypeWithdraw, -1
		}
		for _, li := range evt.Items() {
			d, ok := rows[li.DenominationID]
			if !ok {
				return change, fmt.Errorf("fold %s: denomination %s not projected", evt.Type, li.DenominationID)
			}
			d.Count += sign * li.Quantity
			if d.Count < 0 {
				return change, fmt.Errorf("fold %s: denomination %s count would become %d", evt.Type, d.ID, d.Count)
			}
			touch(d)
			change.Transactions = append(change.Transactions, TransactionView{
				ID:                 li.TransactionItemID,
				TransactionGroupID: evt.TransactionGroupID,
				WalletID:           evt.AggregateID,
				EventID:            evt.ID,
				Version:            evt.Version,
				Type:               txType,
				DenominationID:     li.DenominationID,
				DenominationName:   li.Name,
				DenominationType:   li.Type,
				DenominationValue:  li.Value,
				Quantity:           li.Quantity,
				Amount:             li.Amount(),
				Currency:           wallet.Currency,
				ActorID:            evt.ActorID,
				CreatedAt:          evt.RecordedAt,
			})
		}
	default:
		return change, fmt.Errorf("fold: unsupported payload %T", evt.Payload)
	}

	seen := make(map[uuid.UUID]struct{}, len(touched))
	for _, id := range touched {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		change.Denominations = append(change.Denominations, rows[id])
	}

	balance := decimal.Zero
	for _, id := range order {
		d := rows[id]
		balance = balance.Add(d.Value.Mul(decimal.NewFromInt(d.Count)))
	}
	next := *wallet
	next.Name = name
	next.Balance = balance
	next.Version = evt.Version
	next.UpdatedAt = evt.RecordedAt
	change.Wallet = next
	return change, nil
}
