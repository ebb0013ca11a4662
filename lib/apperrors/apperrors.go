// Package apperrors defines the error kinds surfaced by the CRM operations.
// Handlers classify failures with errors.Is and map them to HTTP statuses;
// repositories and provider clients wrap the underlying cause with %w so the
// kind survives the trip up the stack.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthenticated means no valid caller credential was presented.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrValidation means a required field was missing or malformed. Raised
	// before any network or store call is made.
	ErrValidation = errors.New("validation error")

	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means an OAuth callback state failed CSRF verification.
	ErrInvalidState = errors.New("invalid oauth state")

	// ErrTokenExchangeFailed means the provider rejected the authorization code.
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// ErrTokenRefreshFailed means the provider rejected the refresh token.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// ErrReauthRequired means the stored access token is expired and no
	// refresh token is available. The only recovery is user re-authentication.
	ErrReauthRequired = errors.New("reauthentication required")

	// ErrStore means an underlying database query or write failed.
	ErrStore = errors.New("store error")

	// ErrProviderAPI means a Google/DocuSign API call (not the OAuth token
	// endpoints) returned a non-2xx response.
	ErrProviderAPI = errors.New("provider api error")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Storef wraps a database failure so callers can classify it as ErrStore
// while keeping the original error in the chain.
func Storef(err error, operation string) error {
	return fmt.Errorf("%w: %s: %v", ErrStore, operation, err)
}

// HTTPStatus maps an error to the status code the API surfaces return.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrReauthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrProviderAPI):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
