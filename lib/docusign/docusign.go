// Package docusign builds and sends envelope definitions from account
// templates. Raw document upload is not supported; every send references a
// template by id and fills its tabs.
package docusign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"crm/lib/apperrors"
	"crm/lib/models"

	"github.com/sirupsen/logrus"
)

// Signer role conventions fixed by the account's templates.
const (
	signerRoleName  = "Signer"
	signatureAnchor = "/sn1/"
)

// Client sends envelopes against the account-scoped API host stored on the
// user's token row.
type Client struct {
	HTTP   *http.Client
	Logger *logrus.Logger
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// ValidateSendRequest checks the required fields. It runs before any network
// call; a miss fails the whole send with ErrValidation.
func ValidateSendRequest(req *models.SendDocumentRequest) error {
	missing := []string{}
	if req.RecipientName == "" {
		missing = append(missing, "recipient_name")
	}
	if req.RecipientEmail == "" {
		missing = append(missing, "recipient_email")
	}
	if req.TemplateID == "" {
		missing = append(missing, "template_id")
	}
	if req.DocumentName == "" {
		missing = append(missing, "document_name")
	}
	if req.Subject == "" {
		missing = append(missing, "subject")
	}
	if req.EmailBlurb == "" {
		missing = append(missing, "email_blurb")
	}
	if len(missing) > 0 {
		return apperrors.Validationf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// BuildEnvelope maps a send request onto the envelope definition: one
// template role named "Signer" with an anchored signature tab and one text
// tab per template field value. Field order is made deterministic by sorting
// labels.
func BuildEnvelope(req *models.SendDocumentRequest) (map[string]interface{}, error) {
	if err := ValidateSendRequest(req); err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(req.TemplateFieldValues))
	for label := range req.TemplateFieldValues {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	textTabs := make([]map[string]string, 0, len(labels))
	for _, label := range labels {
		textTabs = append(textTabs, map[string]string{
			"tabLabel": label,
			"value":    req.TemplateFieldValues[label],
		})
	}

	return map[string]interface{}{
		"templateId":   req.TemplateID,
		"emailSubject": req.Subject,
		"emailBlurb":   req.EmailBlurb,
		"name":         req.DocumentName,
		"status":       "sent",
		"templateRoles": []map[string]interface{}{
			{
				"roleName": signerRoleName,
				"name":     req.RecipientName,
				"email":    req.RecipientEmail,
				"tabs": map[string]interface{}{
					"signHereTabs": []map[string]string{
						{"anchorString": signatureAnchor},
					},
					"textTabs": textTabs,
				},
			},
		},
	}, nil
}

// SendEnvelope posts the envelope to the user's account. baseURI and
// accountID come from the stored token row; accessToken from the broker.
func (c *Client) SendEnvelope(ctx context.Context, baseURI, accountID, accessToken string, req *models.SendDocumentRequest) (json.RawMessage, error) {
	envelope, err := BuildEnvelope(req)
	if err != nil {
		return nil, err
	}
	if baseURI == "" || accountID == "" {
		return nil, fmt.Errorf("%w: docusign account not resolved", apperrors.ErrReauthRequired)
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/restapi/v2.1/accounts/%s/envelopes",
		strings.TrimRight(baseURI, "/"), accountID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: send envelope: %v", apperrors.ErrProviderAPI, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: send envelope: reading response: %v", apperrors.ErrProviderAPI, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.Logger.WithFields(logrus.Fields{
			"status":      resp.StatusCode,
			"template_id": req.TemplateID,
		}).Error("DocuSign envelope send failed")
		return nil, fmt.Errorf("%w: send envelope returned %d", apperrors.ErrProviderAPI, resp.StatusCode)
	}

	c.Logger.WithField("template_id", req.TemplateID).Info("Envelope sent")
	return json.RawMessage(respBody), nil
}

// UserInfo resolves the caller's default account id and base URI from the
// OAuth userinfo endpoint. Wired into the broker's EnrichToken hook so every
// stored token row carries its account coordinates.
func UserInfo(ctx context.Context, httpClient *http.Client, authBase string, rec *models.TokenRecord) error {
	endpoint := strings.TrimRight(authBase, "/") + "/oauth/userinfo"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+rec.AccessToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: userinfo: %v", apperrors.ErrProviderAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: userinfo returned %d", apperrors.ErrProviderAPI, resp.StatusCode)
	}

	var info struct {
		Accounts []struct {
			AccountID string `json:"account_id"`
			IsDefault bool   `json:"is_default"`
			BaseURI   string `json:"base_uri"`
		} `json:"accounts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("%w: undecodable userinfo: %v", apperrors.ErrProviderAPI, err)
	}

	for _, account := range info.Accounts {
		if account.IsDefault || rec.AccountID == "" {
			rec.AccountID = account.AccountID
			rec.BaseURI = account.BaseURI
		}
		if account.IsDefault {
			break
		}
	}
	if rec.AccountID == "" {
		return fmt.Errorf("%w: userinfo listed no accounts", apperrors.ErrProviderAPI)
	}
	return nil
}
