package errors

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// AppError is a custom error type for application errors
type AppError struct {
	Code       string
	Message    string
	StatusCode int // Same rule as HTTP status codes
	Err        error
	Details    map[string]interface{}
}

// Error returns a string representation of the error
func (e AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is implements the errors.Is interface
func (e AppError) Is(target error) bool {
	if target, ok := target.(AppError); ok {
		return target.Code == e.Code
	}
	return false
}

// Unwrap returns the underlying error
func (e AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error
func (e AppError) WithDetails(details map[string]interface{}) AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error
func (e AppError) WithDetail(key string, value interface{}) AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Error codes compared via errors.Is on AppError.Code.
const (
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeNoActiveSession     = "NO_ACTIVE_SESSION"
	CodeNothingToSave       = "NOTHING_TO_SAVE"
	CodeConcurrentUpdate    = "CONCURRENT_UPDATE_CONFLICT"
	CodeStoreUnavailable    = "STORE_UNAVAILABLE"
)

// NewInsufficientBalanceError creates an affordability-check failure.
// The needed and available amounts are surfaced verbatim so the portal can
// show the customer exactly how short they are.
func NewInsufficientBalanceError(needed, available decimal.Decimal) AppError {
	return AppError{
		Code:       CodeInsufficientBalance,
		Message:    "balance is not enough for this package",
		StatusCode: http.StatusPaymentRequired,
		Details: map[string]interface{}{
			"needed":    needed.StringFixed(2),
			"available": available.StringFixed(2),
		},
	}
}

// NewNoActiveSessionError creates the end-session idempotency guard error.
// A replayed end-session request lands here and is benign.
func NewNoActiveSessionError() AppError {
	return AppError{
		Code:       CodeNoActiveSession,
		Message:    "no active session to end",
		StatusCode: http.StatusConflict,
	}
}

// NewNothingToSaveError creates the error for ending a session with no
// remaining time.
func NewNothingToSaveError() AppError {
	return AppError{
		Code:       CodeNothingToSave,
		Message:    "session has no remaining time to save",
		StatusCode: http.StatusConflict,
	}
}

// NewConcurrentUpdateError creates a compare-and-swap conflict error.
// Services retry these internally; it only reaches a caller when the retry
// budget is exhausted.
func NewConcurrentUpdateError() AppError {
	return AppError{
		Code:       CodeConcurrentUpdate,
		Message:    "account was modified concurrently",
		StatusCode: http.StatusConflict,
	}
}

// NewStoreUnavailableError creates a retryable storage failure
func NewStoreUnavailableError(err error) AppError {
	return AppError{
		Code:       CodeStoreUnavailable,
		Message:    "account store is unavailable",
		StatusCode: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) AppError {
	return AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) AppError {
	return AppError{
		Code:       "AUTHENTICATION_ERROR",
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(message string) AppError {
	return AppError{
		Code:       "AUTHORIZATION_ERROR",
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) AppError {
	return AppError{
		Code:       "NOT_FOUND",
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) AppError {
	return AppError{
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) AppError {
	return AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
