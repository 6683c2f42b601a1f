package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"pcwl/territory/internal/constants"
)

// Error kinds. Every typed engine error unwraps to exactly one of these.
var (
	ErrValidation     = errors.New("validation failed")
	ErrCooldownActive = errors.New("cooldown active")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("resource not found")
)

// AppError carries a kind, a stable code and a human message.
type AppError struct {
	Kind       error
	Code       string
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes both the kind and the wrapped cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// New creates an AppError whose message is looked up from the code.
func New(kind error, code string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: constants.GetErrorMessage(code)}
}

func Validation(code string) *AppError { return New(ErrValidation, code) }

func Conflict(code string) *AppError { return New(ErrConflict, code) }

func NotFound(code string) *AppError { return New(ErrNotFound, code) }

// Cooldown reports an active cooldown of the given kind and how long until it clears.
func Cooldown(kind string, retryAfter time.Duration) *AppError {
	e := New(ErrCooldownActive, constants.ErrCodeCooldownActive)
	e.Message = fmt.Sprintf("%s cooldown is still active", kind)
	e.RetryAfter = retryAfter
	return e
}

// Code returns the stable code of the first AppError in the chain, or "".
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsRetryable reports whether the caller may retry once the condition clears.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrCooldownActive) || errors.Is(err, ErrConflict)
}

// MapErrorToStatus maps error kinds to HTTP status codes
func MapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCooldownActive):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
