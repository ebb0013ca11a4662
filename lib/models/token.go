package models

import "time"

// TokenRecord is a stored OAuth token row. At most one row exists per user
// per provider table. AccountID and BaseURI are only populated for DocuSign,
// where envelope calls need the account-scoped API host.
type TokenRecord struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	AccountID    string    `json:"account_id,omitempty"`
	BaseURI      string    `json:"base_uri,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Expired reports whether the access token is past its expiry at the given
// instant.
func (t *TokenRecord) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// AuthRequest is the body of POST /auth for both providers.
type AuthRequest struct {
	ClientOrigin string `json:"client_origin" binding:"required"`
}

// AuthResponse carries the provider authorization URL back to the client.
type AuthResponse struct {
	AuthorizeURL string `json:"authorize_url"`
}

// SendDocumentRequest is the body of POST /send-document (DocuSign). Every
// field except TemplateFieldValues is required; validation happens before any
// network call.
type SendDocumentRequest struct {
	RecipientName       string            `json:"recipient_name"`
	RecipientEmail      string            `json:"recipient_email"`
	TemplateID          string            `json:"template_id"`
	TemplateFieldValues map[string]string `json:"template_field_values"`
	DocumentName        string            `json:"document_name"`
	Subject             string            `json:"subject"`
	EmailBlurb          string            `json:"email_blurb"`
}
