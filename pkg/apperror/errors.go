package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
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

// CodeOf returns the code of the first AppError in err's chain, or "" if none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// ---- Lookup (NF) ----

func ErrNotFound(entity string) *AppError {
	return New("NF_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Conflicts (CF) ----

func ErrConflict(message string) *AppError {
	return New("CF_001", message, http.StatusConflict)
}

func ErrWalletExists() *AppError {
	return New("CF_001", "Wallet already exists for this user", http.StatusConflict)
}

func ErrDuplicateBid() *AppError {
	return New("CF_002", "Lender already has an active bid on this trip", http.StatusConflict)
}

func ErrDuplicateInterest() *AppError {
	return New("CF_003", "Interest already registered for this trip under this contract", http.StatusConflict)
}

func ErrAlreadyFinanced() *AppError {
	return New("CF_004", "Trip already has an accepted finance proposal", http.StatusConflict)
}

// ---- State machine (ST) ----

// ErrInvalidState reports a transition attempted from the wrong status.
func ErrInvalidState(entity string, current string, required ...string) *AppError {
	msg := fmt.Sprintf("%s is %s", entity, current)
	if len(required) > 0 {
		msg += fmt.Sprintf(", must be %s", strings.Join(required, " or "))
	}
	return New("ST_001", msg, http.StatusUnprocessableEntity)
}

func ErrBidExpired() *AppError {
	return New("ST_002", "Bid has expired", http.StatusUnprocessableEntity)
}

// ---- Authentication & ownership (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden(entity string) *AppError {
	return New("AUTH_002", fmt.Sprintf("Not permitted to act on this %s", entity), http.StatusForbidden)
}

// ---- Wallet & ledger (WL) ----

func ErrWalletUnavailable(status string) *AppError {
	return New("WL_001", fmt.Sprintf("Wallet is %s", strings.ToLower(status)), http.StatusConflict)
}

func ErrCurrencyMismatch(from, to string) *AppError {
	return New("WL_002", fmt.Sprintf("Currency mismatch: %s wallet cannot transfer to %s wallet", from, to), http.StatusUnprocessableEntity)
}

func ErrInvalidTransaction(message string) *AppError {
	return New("WL_003", message, http.StatusBadRequest)
}

// ---- Validation (VAL) ----

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
