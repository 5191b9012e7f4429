// Package errors provides the application error types for the Quarterdeck
// API. All service-layer errors use AppError so handlers produce consistent
// responses and internal store errors never leak to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Undo errors. NameConflict is the only one designed for retry: the caller
// resubmits with an alternate name. All others are terminal for the request.
var (
	ErrNotRestorable   = &AppError{Code: "NOT_RESTORABLE", Message: "Record is not a restorable delete entry", StatusCode: http.StatusBadRequest}
	ErrNotRevertable   = &AppError{Code: "NOT_REVERTABLE", Message: "Record is not a revertable update entry", StatusCode: http.StatusBadRequest}
	ErrAlreadyConsumed = &AppError{Code: "ALREADY_CONSUMED", Message: "Record has already been restored or reverted", StatusCode: http.StatusConflict}
	ErrNameConflict    = &AppError{Code: "NAME_CONFLICT", Message: "A resource with this name already exists", StatusCode: http.StatusConflict}
	ErrResourceGone    = &AppError{Code: "RESOURCE_GONE", Message: "The resource no longer exists; restore it from its delete entry instead", StatusCode: http.StatusNotFound}
	ErrAdapterFailure  = &AppError{Code: "ADAPTER_FAILURE", Message: "The resource store rejected the operation", StatusCode: http.StatusBadGateway}
)

// Record errors.
var (
	ErrRecordNotFound = &AppError{Code: "RECORD_NOT_FOUND", Message: "Audit record not found", StatusCode: http.StatusNotFound}
)

// Resource errors.
var (
	ErrServiceNotFound  = &AppError{Code: "SERVICE_NOT_FOUND", Message: "Service not found", StatusCode: http.StatusNotFound}
	ErrHostNotFound     = &AppError{Code: "HOST_NOT_FOUND", Message: "Host not found", StatusCode: http.StatusNotFound}
	ErrSSHHostNotFound  = &AppError{Code: "SSH_HOST_NOT_FOUND", Message: "SSH host not found", StatusCode: http.StatusNotFound}
	ErrCategoryNotFound = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryInUse    = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing services", StatusCode: http.StatusConflict}
	ErrUserNotFound     = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrMissingMAC       = &AppError{Code: "MISSING_MAC", Message: "Host has no MAC address configured", StatusCode: http.StatusBadRequest}
)
