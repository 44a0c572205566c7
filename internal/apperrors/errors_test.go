package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_HTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:        http.StatusBadRequest,
		KindInvalidTransition: http.StatusBadRequest,
		KindEmptyCart:         http.StatusBadRequest,
		KindNotFound:          http.StatusNotFound,
		KindUnauthorized:      http.StatusUnauthorized,
		KindForbidden:         http.StatusForbidden,
		KindConflict:          http.StatusConflict,
		KindInternal:          http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus(), kind.String())
	}
}

func TestInvalidTransition_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("transition order: %w", InvalidTransition("shipped", "pending"))

	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, KindInvalidTransition, KindOf(err))
	assert.Contains(t, err.Error(), "from shipped to pending")
}

func TestFrom_WrapsUnknownErrorsAsInternal(t *testing.T) {
	raw := errors.New("connection refused")

	appErr := From(raw)

	assert.Equal(t, KindInternal, appErr.Kind)
	assert.Equal(t, "internal server error", appErr.Message)
	assert.ErrorIs(t, appErr, raw)
}

func TestEmptyCartSentinel(t *testing.T) {
	wrapped := fmt.Errorf("convert: %w", ErrEmptyCart)

	assert.ErrorIs(t, wrapped, ErrEmptyCart)
	assert.Equal(t, KindEmptyCart, KindOf(wrapped))
	assert.False(t, errors.Is(wrapped, ErrInvalidTransition))
}
