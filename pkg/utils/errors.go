package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable, machine-readable code returned to callers
type Kind string

const (
	KindUnauthenticated       Kind = "UNAUTHENTICATED"
	KindProfileNotFound       Kind = "PROFILE_NOT_FOUND"
	KindFreeLimitReached      Kind = "FREE_LIMIT_REACHED"
	KindInvalidFormat         Kind = "INVALID_FORMAT"
	KindInvalidInput          Kind = "INVALID_INPUT"
	KindProviderMisconfigured Kind = "PROVIDER_MISCONFIGURED"
	KindProviderError         Kind = "PROVIDER_ERROR"
	KindProviderTimeout       Kind = "PROVIDER_TIMEOUT"
	KindPersistenceError      Kind = "PERSISTENCE_ERROR"
	KindRateLimited           Kind = "RATE_LIMITED"
	KindNotFound              Kind = "NOT_FOUND"
	KindConflict              Kind = "CONFLICT"
	KindBadRequest            Kind = "BAD_REQUEST"
	KindRenderError           Kind = "RENDER_ERROR"
	KindNotImplemented        Kind = "NOT_IMPLEMENTED"
	KindInternal              Kind = "INTERNAL"
)

var kindStatus = map[Kind]int{
	KindUnauthenticated:       http.StatusUnauthorized,
	KindProfileNotFound:       http.StatusNotFound,
	KindFreeLimitReached:      http.StatusPaymentRequired,
	KindInvalidFormat:         http.StatusBadRequest,
	KindInvalidInput:          http.StatusBadRequest,
	KindProviderMisconfigured: http.StatusInternalServerError,
	KindProviderError:         http.StatusBadGateway,
	KindProviderTimeout:       http.StatusGatewayTimeout,
	KindPersistenceError:      http.StatusInternalServerError,
	KindRateLimited:           http.StatusTooManyRequests,
	KindNotFound:              http.StatusNotFound,
	KindConflict:              http.StatusConflict,
	KindBadRequest:            http.StatusBadRequest,
	KindRenderError:           http.StatusInternalServerError,
	KindNotImplemented:        http.StatusNotImplemented,
	KindInternal:              http.StatusInternalServerError,
}

// CustomError represents a custom application error
type CustomError struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Err     error  `json:"-"`
}

func (e *CustomError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CustomError) Unwrap() error { return e.Err }

// Is matches any CustomError of the same kind, so the sentinels below work
// with errors.Is regardless of message or cause.
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, message, detail string, cause error) *CustomError {
	return &CustomError{
		Code:    kindStatus[kind],
		Kind:    kind,
		Message: message,
		Detail:  detail,
		Err:     cause,
	}
}

// Sentinels for errors.Is checks
var (
	ErrUnauthenticated       = &CustomError{Kind: KindUnauthenticated}
	ErrProfileNotFound       = &CustomError{Kind: KindProfileNotFound}
	ErrFreeLimitReached      = &CustomError{Kind: KindFreeLimitReached}
	ErrInvalidFormat         = &CustomError{Kind: KindInvalidFormat}
	ErrInvalidInput          = &CustomError{Kind: KindInvalidInput}
	ErrProviderMisconfigured = &CustomError{Kind: KindProviderMisconfigured}
	ErrProviderError         = &CustomError{Kind: KindProviderError}
	ErrProviderTimeout       = &CustomError{Kind: KindProviderTimeout}
	ErrPersistence           = &CustomError{Kind: KindPersistenceError}
	ErrNotFound              = &CustomError{Kind: KindNotFound}
	ErrConflict              = &CustomError{Kind: KindConflict}
	ErrRateLimited           = &CustomError{Kind: KindRateLimited}
	ErrRenderError           = &CustomError{Kind: KindRenderError}
)

func NewUnauthenticatedError(cause error) *CustomError {
	return newError(KindUnauthenticated, "Authentication required", "", cause)
}

func NewProfileNotFoundError(cause error) *CustomError {
	return newError(KindProfileNotFound, "Profile not found", "", cause)
}

func NewFreeLimitReachedError() *CustomError {
	return newError(KindFreeLimitReached, "Free generation already used, a subscription is required", "", nil)
}

func NewInvalidFormatError(detail string) *CustomError {
	return newError(KindInvalidFormat, "Unrecognized request format", detail, nil)
}

func NewInvalidInputError(detail string) *CustomError {
	return newError(KindInvalidInput, "Invalid input", detail, nil)
}

func NewProviderMisconfiguredError() *CustomError {
	return newError(KindProviderMisconfigured, "Generation provider is not configured", "", nil)
}

func NewProviderError(cause error) *CustomError {
	return newError(KindProviderError, "Generation provider failed", "", cause)
}

func NewProviderTimeoutError(cause error) *CustomError {
	return newError(KindProviderTimeout, "Generation provider timed out", "", cause)
}

func NewPersistenceError(cause error) *CustomError {
	return newError(KindPersistenceError, "Failed to persist data", "", cause)
}

func NewRateLimitedError() *CustomError {
	return newError(KindRateLimited, "Too many requests", "", nil)
}

func NewNotFoundError(detail string) *CustomError {
	return newError(KindNotFound, "Not found", detail, nil)
}

func NewConflictError(detail string) *CustomError {
	return newError(KindConflict, "Conflicting request", detail, nil)
}

func NewBadRequestError(detail string) *CustomError {
	return newError(KindBadRequest, "Bad request", detail, nil)
}

func NewRenderError(cause error) *CustomError {
	return newError(KindRenderError, "Document rendering failed", "", cause)
}

func NewNotImplementedError(detail string) *CustomError {
	return newError(KindNotImplemented, "Not implemented", detail, nil)
}

func NewInternalServerError(cause error) *CustomError {
	return newError(KindInternal, "Internal server error", "", cause)
}

// AsCustomError unwraps err to a CustomError, classifying anything else as internal
func AsCustomError(err error) *CustomError {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Code != 0 {
		return ce
	}
	return NewInternalServerError(err)
}
