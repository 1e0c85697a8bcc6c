// Package errors provides custom error types for the smsledger API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
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

// Device identity & authorization errors.
var (
	ErrDeviceIDRequired = &AppError{Code: "DEVICE_ID_REQUIRED", Message: "X-Device-ID header is required", StatusCode: http.StatusBadRequest}
	ErrInvalidDeviceID  = &AppError{Code: "INVALID_DEVICE_ID", Message: "Device ID is malformed", StatusCode: http.StatusBadRequest}
	ErrUnauthorized     = &AppError{Code: "UNAUTHORIZED", Message: "Invalid or expired device token", StatusCode: http.StatusUnauthorized}
	ErrInvalidAPIKey    = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
	ErrForbidden        = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrRateLimited    = &AppError{Code: "RATE_LIMITED", Message: "Too many requests, please try again later.", StatusCode: http.StatusTooManyRequests}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrTransactionConflict = &AppError{Code: "TRANSACTION_CONFLICT", Message: "A transaction with this ID already exists", StatusCode: http.StatusConflict}
	ErrInvalidTransaction  = &AppError{Code: "INVALID_TRANSACTION", Message: "Transaction violates ledger rules", StatusCode: http.StatusBadRequest}
	ErrInvalidMonth        = &AppError{Code: "INVALID_MONTH", Message: "Month must be formatted as YYYY-MM", StatusCode: http.StatusBadRequest}
)

// SMS ingestion errors.
var (
	ErrSMSTextRequired  = &AppError{Code: "SMS_TEXT_REQUIRED", Message: "SMS text is required", StatusCode: http.StatusBadRequest}
	ErrMessagesRequired = &AppError{Code: "MESSAGES_REQUIRED", Message: "Messages array is required", StatusCode: http.StatusBadRequest}
)
