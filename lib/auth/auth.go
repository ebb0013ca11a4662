package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"crm/lib/apperrors"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
)

// Claims represents the caller identity extracted either from the API
// Gateway authorizer context or from a bearer access token.
type Claims struct {
	UserID string `json:"sub"`
	Email  string `json:"email"`
}

// ExtractClaimsFromRequest extracts the caller identity from the API Gateway
// authorizer context. The CRUD lambdas sit behind a Cognito authorizer, so a
// valid request always carries a sub claim.
func ExtractClaimsFromRequest(request events.APIGatewayProxyRequest) (*Claims, error) {
	var claimsMap map[string]interface{}
	var ok bool

	// Try different possible claim locations in the authorizer context
	if authClaims, exists := request.RequestContext.Authorizer["claims"]; exists {
		claimsMap, ok = authClaims.(map[string]interface{})
	}

	// If claims not found, try direct access to authorizer (some API Gateway configurations)
	if !ok {
		claimsMap = request.RequestContext.Authorizer
		ok = (claimsMap != nil)
	}

	if !ok || claimsMap == nil {
		return nil, fmt.Errorf("%w: claims not found in authorizer context", apperrors.ErrUnauthenticated)
	}

	sub, ok := claimsMap["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: sub not found in claims", apperrors.ErrUnauthenticated)
	}

	email, _ := claimsMap["email"].(string)

	return &Claims{UserID: sub, Email: email}, nil
}

// CognitoAPI is the slice of the Cognito client used for bearer validation.
type CognitoAPI interface {
	GetUser(ctx context.Context, params *cognitoidentityprovider.GetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error)
}

// BearerToken pulls the bearer credential out of the request headers.
// API Gateway does not normalize header case.
func BearerToken(headers map[string]string) (string, error) {
	value := headers["Authorization"]
	if value == "" {
		value = headers["authorization"]
	}
	if value == "" {
		return "", fmt.Errorf("%w: missing Authorization header", apperrors.ErrUnauthenticated)
	}
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("%w: malformed Authorization header", apperrors.ErrUnauthenticated)
	}
	return parts[1], nil
}

// ValidateBearer resolves a bearer access token to the caller's claims by
// asking Cognito. Used by the OAuth lambdas, which cannot rely on an
// authorizer because their callback endpoints must stay public.
func ValidateBearer(ctx context.Context, cognito CognitoAPI, headers map[string]string) (*Claims, error) {
	token, err := BearerToken(headers)
	if err != nil {
		return nil, err
	}

	out, err := cognito.GetUser(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: aws.String(token),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: token rejected: %v", apperrors.ErrUnauthenticated, err)
	}

	claims := &Claims{}
	for _, attr := range out.UserAttributes {
		if attr.Name == nil || attr.Value == nil {
			continue
		}
		switch *attr.Name {
		case "sub":
			claims.UserID = *attr.Value
		case "email":
			claims.Email = *attr.Value
		}
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: no sub attribute on user", apperrors.ErrUnauthenticated)
	}
	return claims, nil
}

// ToJSON converts claims to JSON string for logging
func (c *Claims) ToJSON() string {
	data, _ := json.Marshal(c)
	return string(data)
}
