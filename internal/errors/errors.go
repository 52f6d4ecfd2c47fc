// Package errors provides custom error types for the Famledger API.
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

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Household errors.
var (
	ErrHouseholdNotFound = &AppError{Code: "HOUSEHOLD_NOT_FOUND", Message: "Household not found", StatusCode: http.StatusNotFound}
	ErrMemberNotFound    = &AppError{Code: "MEMBER_NOT_FOUND", Message: "Household member not found", StatusCode: http.StatusNotFound}
	ErrDuplicateMember   = &AppError{Code: "DUPLICATE_MEMBER", Message: "User is already a member of this household", StatusCode: http.StatusConflict}
)

// Child account errors.
var (
	ErrChildAccountNotFound  = &AppError{Code: "CHILD_ACCOUNT_NOT_FOUND", Message: "Child account not found", StatusCode: http.StatusNotFound}
	ErrDuplicateChildAccount = &AppError{Code: "DUPLICATE_CHILD_ACCOUNT", Message: "Child already has an account in this household", StatusCode: http.StatusConflict}
	ErrInsufficientBalance   = &AppError{Code: "INSUFFICIENT_BALANCE", Message: "Insufficient account balance", StatusCode: http.StatusBadRequest}
	ErrSpendLimitExceeded    = &AppError{Code: "SPEND_LIMIT_EXCEEDED", Message: "Spending limit exceeded", StatusCode: http.StatusBadRequest}
)

// Allowance errors.
var (
	ErrAllowanceNotFound = &AppError{Code: "ALLOWANCE_NOT_FOUND", Message: "Allowance not found", StatusCode: http.StatusNotFound}
)

// Money request errors.
var (
	ErrRequestNotFound        = &AppError{Code: "REQUEST_NOT_FOUND", Message: "Money request not found", StatusCode: http.StatusNotFound}
	ErrRequestAlreadyResolved = &AppError{Code: "REQUEST_ALREADY_RESOLVED", Message: "Money request has already been processed", StatusCode: http.StatusConflict}
)

// Chore errors.
var (
	ErrChoreNotFound             = &AppError{Code: "CHORE_NOT_FOUND", Message: "Chore not found", StatusCode: http.StatusNotFound}
	ErrCompletionNotFound        = &AppError{Code: "COMPLETION_NOT_FOUND", Message: "Chore completion not found", StatusCode: http.StatusNotFound}
	ErrCompletionAlreadyReviewed = &AppError{Code: "COMPLETION_ALREADY_REVIEWED", Message: "Chore completion has already been reviewed", StatusCode: http.StatusConflict}
)

// Notification errors.
var (
	ErrNotificationNotFound = &AppError{Code: "NOTIFICATION_NOT_FOUND", Message: "Notification not found", StatusCode: http.StatusNotFound}
)
