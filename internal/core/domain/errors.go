package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrorKind classifies a rejected wallet command.
type ErrorKind string

const (
	ErrKindUnknownDenomination   ErrorKind = "UNKNOWN_DENOMINATION"
	ErrKindCurrencyMismatch      ErrorKind = "CURRENCY_MISMATCH"
	ErrKindInvalidQuantity       ErrorKind = "INVALID_QUANTITY"
	ErrKindDuplicateDenomination ErrorKind = "DUPLICATE_DENOMINATION_IN_BATCH"
	ErrKindInsufficientInventory ErrorKind = "INSUFFICIENT_INVENTORY"
	ErrKindConcurrencyConflict   ErrorKind = "CONCURRENCY_CONFLICT"
	ErrKindWalletNotFound        ErrorKind = "WALLET_NOT_FOUND"
	ErrKindWalletExists          ErrorKind = "WALLET_EXISTS"
	ErrKindEmptyBatch            ErrorKind = "EMPTY_BATCH"
	ErrKindDenominationInUse     ErrorKind = "DENOMINATION_IN_USE"
	ErrKindInvalidDenomination   ErrorKind = "INVALID_DENOMINATION"
	ErrKindInvalidWallet         ErrorKind = "INVALID_WALLET"
	ErrKindForbidden             ErrorKind = "FORBIDDEN"
)

// WalletError is returned for every rejected command. Only the fields relevant to
// Kind are set.
type WalletError struct {
	Kind           ErrorKind
	DenominationID uuid.UUID
	Quantity       int64
	Available      int64
	Expected       string
	Actual         string
	Reason         string
}

func (e *WalletError) Error() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " ")))
	if e.DenominationID != uuid.Nil {
		fmt.Fprintf(&b, ": denomination %s", e.DenominationID)
	}
	switch e.Kind {
	case ErrKindInvalidQuantity:
		fmt.Fprintf(&b, " quantity %d", e.Quantity)
	case ErrKindInsufficientInventory:
		fmt.Fprintf(&b, " requested %d, available %d", e.Quantity, e.Available)
	case ErrKindCurrencyMismatch:
		fmt.Fprintf(&b, ": wallet currency %s, command currency %s", e.Expected, e.Actual)
	case ErrKindConcurrencyConflict:
		fmt.Fprintf(&b, ": expected version %s", e.Expected)
		if e.Actual != "" {
			fmt.Fprintf(&b, ", stored version %s", e.Actual)
		}
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Is matches any WalletError of the same kind, so callers can write
// errors.Is(err, domain.ErrInsufficientInventory).
func (e *WalletError) Is(target error) bool {
	t, ok := target.(*WalletError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnknownDenomination   = &WalletError{Kind: ErrKindUnknownDenomination}
	ErrCurrencyMismatch      = &WalletError{Kind: ErrKindCurrencyMismatch}
	ErrInvalidQuantity       = &WalletError{Kind: ErrKindInvalidQuantity}
	ErrDuplicateDenomination = &WalletError{Kind: ErrKindDuplicateDenomination}
	ErrInsufficientInventory = &WalletError{Kind: ErrKindInsufficientInventory}
	ErrConcurrencyConflict   = &WalletError{Kind: ErrKindConcurrencyConflict}
	ErrWalletNotFound        = &WalletError{Kind: ErrKindWalletNotFound}
	ErrWalletExists          = &WalletError{Kind: ErrKindWalletExists}
	ErrEmptyBatch            = &WalletError{Kind: ErrKindEmptyBatch}
	ErrDenominationInUse     = &WalletError{Kind: ErrKindDenominationInUse}
	ErrInvalidDenomination   = &WalletError{Kind: ErrKindInvalidDenomination}
	ErrInvalidWallet         = &WalletError{Kind: ErrKindInvalidWallet}
	ErrForbidden             = &WalletError{Kind: ErrKindForbidden}
)

// NewConcurrencyConflict reports a version mismatch detected on append.
// A negative actual means the stored version is unknown.
func NewConcurrencyConflict(aggregateID uuid.UUID, expected, actual int64) *WalletError {
	e := &WalletError{
		Kind:     ErrKindConcurrencyConflict,
		Expected: fmt.Sprint(expected),
		Reason:   "wallet " + aggregateID.String(),
	}
	if actual >= 0 {
		e.Actual = fmt.Sprint(actual)
	}
	return e
}
