package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error. Message is safe to show to the chat user;
// HTTPStatus is used by the ops HTTP surface.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (never shown to users)
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

// Is matches on Code so callers can write errors.Is(err, apperror.ErrInsufficientFunds()).
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
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

// ---- Ledger (LEDGER) ----

func ErrInvalidAmount() *AppError {
	return New("LEDGER_001", "Invalid amount.", http.StatusBadRequest)
}

func ErrUnknownCurrency() *AppError {
	return New("LEDGER_002", "Invalid money type.", http.StatusBadRequest)
}

func ErrInsufficientFunds() *AppError {
	return New("LEDGER_003", "Not enough funds.", http.StatusPaymentRequired)
}

func ErrCurrencyExists() *AppError {
	return New("LEDGER_004", "Money type already exists.", http.StatusConflict)
}

func ErrCurrencyNotFound() *AppError {
	return New("LEDGER_005", "Money type doesn't exist.", http.StatusNotFound)
}

func ErrUserNotFound() *AppError {
	return New("LEDGER_006", "User has no wallet.", http.StatusNotFound)
}

// ---- Permissions (PERM) ----

func ErrAdminsOnly() *AppError {
	return New("PERM_001", "Admins only.", http.StatusForbidden)
}

func ErrOwnerOnly() *AppError {
	return New("PERM_002", "Owner only.", http.StatusForbidden)
}

// ---- Commands (CMD) ----

func ErrUsage(usage string) *AppError {
	return New("CMD_001", "Usage: "+usage, http.StatusBadRequest)
}

func ErrInvalidUserID() *AppError {
	return New("CMD_002", "user_id must be a numeric id", http.StatusBadRequest)
}

// ---- Rate Limiting (RATE) ----

func ErrCooldown() *AppError {
	return New("RATE_001", "Slow down, try again in a moment.", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrStorage(err error) *AppError {
	return Wrap("SYS_001", "Could not save your request, try again later.", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_002 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_002", "Internal error", http.StatusInternalServerError, err)
}

// IsUnauthorized reports whether err is a permission rejection.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrAdminsOnly()) || errors.Is(err, ErrOwnerOnly())
}
