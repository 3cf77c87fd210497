package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string         `json:"error_code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"` // offending denomination, quantity, versions
	Err        error          `json:"-"`                 // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail returns a copy of e carrying an extra detail entry.
func (e *AppError) WithDetail(key string, value any) *AppError {
	out := *e
	out.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = value
	return &out
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Wallet Business Logic (WAL) ----

func ErrInsufficientInventory(err error) *AppError {
	return Wrap("WAL_001", "Insufficient denomination inventory", http.StatusUnprocessableEntity, err)
}

func ErrInvalidQuantity(err error) *AppError {
	return Wrap("WAL_002", "Quantity must be a positive integer", http.StatusBadRequest, err)
}

func ErrDuplicateDenomination(err error) *AppError {
	return Wrap("WAL_003", "Denomination listed more than once", http.StatusBadRequest, err)
}

func ErrNotFound(entity string) *AppError {
	return New("WAL_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrCurrencyMismatch(err error) *AppError {
	return Wrap("WAL_005", "Currency does not match wallet currency", http.StatusUnprocessableEntity, err)
}

func ErrUnknownDenomination(err error) *AppError {
	return Wrap("WAL_006", "Denomination does not belong to this wallet", http.StatusUnprocessableEntity, err)
}

func ErrConcurrencyConflict(err error) *AppError {
	return Wrap("WAL_007", "Wallet was modified concurrently, retry the request", http.StatusConflict, err)
}

func ErrWalletExists(err error) *AppError {
	return Wrap("WAL_008", "Wallet already exists", http.StatusConflict, err)
}

func ErrEmptyBatch(err error) *AppError {
	return Wrap("WAL_009", "At least one denomination is required", http.StatusBadRequest, err)
}

func ErrDenominationInUse(err error) *AppError {
	return Wrap("WAL_010", "Denomination still holds inventory", http.StatusConflict, err)
}

func ErrInvalidDenomination(err error) *AppError {
	return Wrap("WAL_011", "Invalid denomination", http.StatusBadRequest, err)
}

func ErrInvalidWallet(err error) *AppError {
	return Wrap("WAL_012", "Invalid wallet", http.StatusBadRequest, err)
}

func ErrForbidden() *AppError {
	return New("WAL_013", "Not allowed to access this wallet", http.StatusForbidden)
}

func ErrRequestInProgress() *AppError {
	return New("WAL_014", "A request with this idempotency key is still in progress", http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrMissingToken() *AppError {
	return New("AUTH_001", "Missing bearer token", http.StatusUnauthorized)
}

func ErrInvalidCredentials() *AppError {
	return New("AUTH_002", "Invalid email or password", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Users (USR) ----

func ErrEmailTaken(err error) *AppError {
	return Wrap("USR_001", "The email has already been taken.", http.StatusUnprocessableEntity, err)
}

func ErrInvalidUser(err error) *AppError {
	return Wrap("USR_002", "Invalid user", http.StatusBadRequest, err)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrTimeout(err error) *AppError {
	return Wrap("SYS_002", "Request timed out", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a VAL_001 request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
