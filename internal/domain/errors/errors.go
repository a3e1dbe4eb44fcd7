package errors

import (
	"net/http"

	"scanengine/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Session-related errors
	ErrNotAuthenticated = NewBaseError(
		http.StatusUnauthorized,
		"NOT_AUTHENTICATED",
		"You need to sign in to do that",
		"",
	)

	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"Incorrect email or password",
		"",
	)

	ErrSessionExpired = NewBaseError(
		http.StatusUnauthorized,
		"SESSION_EXPIRED",
		"Your session has expired, please sign in again",
		"",
	)

	ErrIdentityRejected = NewBaseError(
		http.StatusBadRequest,
		"IDENTITY_REJECTED",
		"The request was rejected, check the details and try again",
		"",
	)

	ErrIdentityUnavailable = NewBaseError(
		http.StatusBadGateway,
		"IDENTITY_UNAVAILABLE",
		"Could not reach the sign-in service, please try again",
		"",
	)

	ErrCredentialStorage = NewBaseError(
		http.StatusInternalServerError,
		"CREDENTIAL_STORAGE",
		"Could not save your sign-in on this device",
		"",
	)

	// Entitlement-related errors
	ErrNoScansRemaining = NewBaseError(
		http.StatusPaymentRequired,
		"NO_SCANS_REMAINING",
		"You have no scans left",
		"",
	)

	ErrEntitlementUnavailable = NewBaseError(
		http.StatusBadGateway,
		"ENTITLEMENT_UNAVAILABLE",
		"Could not reach the billing service, please try again",
		"",
	)

	ErrPurchaseFailed = NewBaseError(
		http.StatusBadGateway,
		"PURCHASE_FAILED",
		"The purchase could not be completed",
		"",
	)

	// Input-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"The request is missing or has invalid fields",
		"",
	)
)
