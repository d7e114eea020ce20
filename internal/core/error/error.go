package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error code returned to API callers.
type Code string

const (
	InvalidInput        Code = "invalid_input"
	Unauthenticated     Code = "unauthenticated"
	ForbiddenHousehold  Code = "forbidden_household"
	FetchFailed         Code = "fetch_failed"
	ProviderUnavailable Code = "provider_unavailable"
	BudgetExceeded      Code = "budget_exceeded"
	Disabled            Code = "disabled"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
)

// StatusFor maps an error code to its HTTP status. Unknown codes are 500.
func StatusFor(code Code) int {
	switch code {
	case InvalidInput:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case ForbiddenHousehold:
		return http.StatusForbidden
	case BudgetExceeded:
		return http.StatusTooManyRequests
	case Disabled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AppError wraps an underlying error with a code, an HTTP status and a safe message.
type AppError struct {
	Err     error
	Code    Code
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information. The status is
// derived from the code.
func New(code Code, message string, err error) *AppError {
	return &AppError{
		Err:     err,
		Code:    code,
		Status:  StatusFor(code),
		Message: message,
	}
}

func InvalidInputf(format string, args ...any) *AppError {
	return New(InvalidInput, fmt.Sprintf(format, args...), nil)
}

func WrapFetch(err error, message string) *AppError {
	if message == "" {
		message = "failed to load household data"
	}
	return New(FetchFailed, message, err)
}

func WrapProvider(err error) *AppError {
	return New(ProviderUnavailable, "assistant provider unavailable", err)
}

// CodeOf extracts the code from err, defaulting to FetchFailed for errors that
// are not AppErrors.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return FetchFailed
}

// MessageOf returns the safe, user-facing message for err.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return SystemErrorMessage
}

// Is reports whether the target matches the underlying error or carries the same code.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) && t != nil && t.Code != "" {
		return t.Code == e.Code
	}
	return errors.Is(e.Err, target)
}
