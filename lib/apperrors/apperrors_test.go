package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappedKindsSurviveChain(t *testing.T) {
	err := fmt.Errorf("toggle task: %w", Validationf("taskId is required"))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))

	err = Storef(errors.New("connection refused"), "insert event")
	assert.True(t, errors.Is(err, ErrStore))
	assert.Contains(t, err.Error(), "insert event")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrUnauthenticated))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrReauthRequired))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrValidation))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrInvalidState))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFoundf("inquiry %d", 7)))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(ErrProviderAPI))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrTokenExchangeFailed))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("anything else")))
}
