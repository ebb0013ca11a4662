package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crm/lib/apperrors"
	"crm/lib/models"

	"github.com/sirupsen/logrus"
)

// TokenStore is the persistence half of the broker, implemented by
// lib/data.TokenDao per provider table.
type TokenStore interface {
	GetToken(ctx context.Context, userID string) (*models.TokenRecord, error)
	UpsertToken(ctx context.Context, rec *models.TokenRecord) error
}

// ProviderConfig describes one OAuth provider's endpoints and credentials.
type ProviderConfig struct {
	Name         string
	AuthURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	// BasicAuth sends the client credentials as HTTP Basic auth on token
	// requests (DocuSign); otherwise they go in the form body (Google).
	BasicAuth bool

	// ExtraAuthParams are appended to the authorization URL
	// (e.g. access_type=offline&prompt=consent for Google refresh tokens).
	ExtraAuthParams url.Values
}

// Broker drives the three-legged flow and transparent refresh for one
// provider. Refresh is not mutex-protected: two concurrent calls that both
// see an expired token will both refresh, and the second persisted write
// wins. The provider token endpoints tolerate that.
type Broker struct {
	Provider ProviderConfig
	Store    TokenStore
	States   *StateCodec
	HTTP     *http.Client
	Logger   *logrus.Logger

	// EnrichToken, when set, runs after a successful code exchange and
	// before the record is persisted. DocuSign uses it to resolve the
	// account id and base URI from /oauth/userinfo.
	EnrichToken func(ctx context.Context, httpClient *http.Client, rec *models.TokenRecord) error

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

func (b *Broker) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Broker) httpClient() *http.Client {
	if b.HTTP != nil {
		return b.HTTP
	}
	return http.DefaultClient
}

// AuthorizeURL builds the provider authorization URL carrying a signed state
// token for the given caller.
func (b *Broker) AuthorizeURL(userID, clientOrigin string) (string, error) {
	if clientOrigin == "" {
		return "", apperrors.Validationf("client_origin is required")
	}
	state, err := b.States.Encode(userID, clientOrigin)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", b.Provider.ClientID)
	params.Set("redirect_uri", b.Provider.RedirectURI)
	params.Set("state", state)
	if len(b.Provider.Scopes) > 0 {
		params.Set("scope", strings.Join(b.Provider.Scopes, " "))
	}
	for key, values := range b.Provider.ExtraAuthParams {
		for _, v := range values {
			params.Add(key, v)
		}
	}

	return b.Provider.AuthURL + "?" + params.Encode(), nil
}

// tokenResponse is the provider token endpoint's JSON shape.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// HandleCallback verifies the state, exchanges the code, and persists the
// token row keyed by the embedded user id. The caller redirects the browser
// back to payload.ClientOrigin.
func (b *Broker) HandleCallback(ctx context.Context, code, state string) (*StatePayload, error) {
	if code == "" || state == "" {
		return nil, apperrors.Validationf("code and state are required")
	}
	payload, err := b.States.Decode(state)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", b.Provider.RedirectURI)

	token, err := b.tokenRequest(ctx, form, apperrors.ErrTokenExchangeFailed)
	if err != nil {
		return nil, err
	}

	rec := &models.TokenRecord{
		UserID:       payload.UserID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    b.now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}
	if b.EnrichToken != nil {
		if err := b.EnrichToken(ctx, b.httpClient(), rec); err != nil {
			return nil, err
		}
	}
	if err := b.Store.UpsertToken(ctx, rec); err != nil {
		return nil, err
	}

	b.Logger.WithFields(logrus.Fields{
		"provider": b.Provider.Name,
		"user_id":  payload.UserID,
	}).Info("OAuth tokens stored")
	return payload, nil
}

// WithFreshToken loads the stored token, refreshes it when expired, and
// invokes fn with a valid access token. Expired with no refresh token fails
// with ReauthRequired; the only recovery is re-running the auth flow.
func (b *Broker) WithFreshToken(ctx context.Context, userID string, fn func(accessToken string) error) error {
	rec, err := b.Store.GetToken(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("%w: no %s connection", apperrors.ErrReauthRequired, b.Provider.Name)
	}
	if err != nil {
		return err
	}

	if rec.Expired(b.now()) {
		if rec.RefreshToken == "" {
			return fmt.Errorf("%w: %s token expired with no refresh token", apperrors.ErrReauthRequired, b.Provider.Name)
		}

		form := url.Values{}
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", rec.RefreshToken)

		token, err := b.tokenRequest(ctx, form, apperrors.ErrTokenRefreshFailed)
		if err != nil {
			return err
		}

		rec.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			rec.RefreshToken = token.RefreshToken
		}
		rec.ExpiresAt = b.now().Add(time.Duration(token.ExpiresIn) * time.Second)

		if err := b.Store.UpsertToken(ctx, rec); err != nil {
			return err
		}
		b.Logger.WithFields(logrus.Fields{
			"provider": b.Provider.Name,
			"user_id":  userID,
		}).Debug("Access token refreshed")
	}

	return fn(rec.AccessToken)
}

func (b *Broker) tokenRequest(ctx context.Context, form url.Values, failure error) (*tokenResponse, error) {
	if b.Provider.BasicAuth {
		form.Del("client_id")
		form.Del("client_secret")
	} else {
		form.Set("client_id", b.Provider.ClientID)
		form.Set("client_secret", b.Provider.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Provider.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if b.Provider.BasicAuth {
		req.SetBasicAuth(b.Provider.ClientID, b.Provider.ClientSecret)
	}

	resp, err := b.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", failure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", failure, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b.Logger.WithFields(logrus.Fields{
			"provider": b.Provider.Name,
			"status":   resp.StatusCode,
		}).Error("Provider token endpoint rejected request")
		return nil, fmt.Errorf("%w: %s returned %d", failure, b.Provider.Name, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("%w: undecodable token response: %v", failure, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", failure)
	}
	return &token, nil
}
