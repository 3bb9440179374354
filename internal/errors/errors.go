// Package errors provides the error taxonomy shared by the assistant's
// services and HTTP layer. Service-layer failures are returned as *AppError
// so that handlers and the conversation orchestrator can translate them into
// consistent responses without exposing internal details to users.
package errors

import (
	"errors"
	"net/http"
)

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

// Is reports whether target is an *AppError carrying the same code, so a
// wrapped error still matches its sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

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

// CodeOf returns the AppError code carried by err, or "" if err is not an AppError.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrUnauthorized   = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Storage errors.
var (
	ErrStorage = &AppError{Code: "STORAGE_ERROR", Message: "User data could not be read or written", StatusCode: http.StatusServiceUnavailable}
)

// Ledger errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Transaction type must be income or expense", StatusCode: http.StatusBadRequest}
	ErrNoTransactions         = &AppError{Code: "NO_TRANSACTIONS", Message: "No recent transactions found", StatusCode: http.StatusNotFound}
	ErrAmbiguous              = &AppError{Code: "AMBIGUOUS", Message: "More information is needed to identify the transaction", StatusCode: http.StatusConflict}
)

// AI collaborator errors.
var (
	ErrAIUnavailable   = &AppError{Code: "AI_UNAVAILABLE", Message: "AI collaborator is not configured", StatusCode: http.StatusServiceUnavailable}
	ErrAIRequestFailed = &AppError{Code: "AI_REQUEST_FAILED", Message: "AI collaborator request failed", StatusCode: http.StatusBadGateway}
	ErrAIMalformed     = &AppError{Code: "AI_MALFORMED_RESPONSE", Message: "AI collaborator returned an unusable response", StatusCode: http.StatusBadGateway}
)
