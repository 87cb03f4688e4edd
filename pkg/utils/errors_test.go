package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("record generation: %w", NewFreeLimitReachedError())

	assert.True(t, errors.Is(err, ErrFreeLimitReached))
	assert.False(t, errors.Is(err, ErrProfileNotFound))
}

func TestCustomError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewProviderError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, err.Code)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestStatusCodesAreDistinct(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, NewUnauthenticatedError(nil).Code)
	assert.Equal(t, http.StatusNotFound, NewProfileNotFoundError(nil).Code)
	assert.Equal(t, http.StatusPaymentRequired, NewFreeLimitReachedError().Code)
	assert.Equal(t, http.StatusBadRequest, NewInvalidFormatError("x").Code)
	assert.Equal(t, http.StatusBadRequest, NewInvalidInputError("x").Code)
	assert.Equal(t, http.StatusInternalServerError, NewProviderMisconfiguredError().Code)
	assert.Equal(t, http.StatusGatewayTimeout, NewProviderTimeoutError(nil).Code)
}

func TestAsCustomError(t *testing.T) {
	ce := AsCustomError(fmt.Errorf("wrapped: %w", NewInvalidInputError("offerText too short")))
	assert.Equal(t, KindInvalidInput, ce.Kind)

	ce = AsCustomError(errors.New("boom"))
	assert.Equal(t, KindInternal, ce.Kind)
	assert.Equal(t, http.StatusInternalServerError, ce.Code)
}
