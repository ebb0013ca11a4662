package main

import (
	"context"
	"crm/lib/api"
	"crm/lib/apperrors"
	"crm/lib/auth"
	"crm/lib/clients"
	"crm/lib/config"
	"crm/lib/constants"
	"crm/lib/data"
	"crm/lib/docusign"
	"crm/lib/models"
	"crm/lib/oauth"
	"crm/lib/util"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

// Global variables for Lambda cold start optimization
var (
	logger         *logrus.Logger
	env            config.Env
	ssmRepository  data.SSMRepository
	ssmParams      map[string]string
	sqlDB          *sql.DB
	cognitoClient  auth.CognitoAPI
	tokenStore     *data.TokenDao
	broker         *oauth.Broker
	docusignClient *docusign.Client
)

// Handler processes API Gateway requests for the DocuSign connection.
//
//	POST /docusign/auth           - Build authorization URL (bearer auth)
//	GET  /docusign/callback       - OAuth redirect target (public; state-verified)
//	POST /docusign/send-document  - Send a template envelope (bearer auth)
func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "Handler",
		"method":    request.HTTPMethod,
		"resource":  request.Resource,
	}).Info("DocuSign OAuth request received")

	switch {
	case request.Resource == "/docusign/auth" && request.HTTPMethod == http.MethodPost:
		return handleAuth(ctx, request), nil

	case request.Resource == "/docusign/callback" && request.HTTPMethod == http.MethodGet:
		return handleCallback(ctx, request), nil

	case request.Resource == "/docusign/send-document" && request.HTTPMethod == http.MethodPost:
		return handleSendDocument(ctx, request), nil

	default:
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil
	}
}

func handleAuth(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	claims, err := auth.ValidateBearer(ctx, cognitoClient, request.Headers)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Authentication failed", logger)
	}

	var authReq models.AuthRequest
	if err := json.Unmarshal([]byte(request.Body), &authReq); err != nil {
		logger.WithError(err).Error("Failed to parse auth request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", logger)
	}

	authorizeURL, err := broker.AuthorizeURL(claims.UserID, authReq.ClientOrigin)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to build authorization URL", logger)
	}

	return api.SuccessResponse(http.StatusOK, models.AuthResponse{AuthorizeURL: authorizeURL}, logger)
}

func handleCallback(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	payload, err := broker.HandleCallback(ctx,
		request.QueryStringParameters["code"],
		request.QueryStringParameters["state"])
	if err != nil {
		return api.ClassifiedErrorResponse(err, "DocuSign authorization failed", logger)
	}

	return api.RedirectResponse(payload.ClientOrigin + "/contracts?docusign_auth_success=true")
}

// handleSendDocument validates the request before touching the network, then
// sends the envelope with a freshened token against the account coordinates
// stored on the token row.
func handleSendDocument(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	claims, err := auth.ValidateBearer(ctx, cognitoClient, request.Headers)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Authentication failed", logger)
	}

	var sendReq models.SendDocumentRequest
	if err := json.Unmarshal([]byte(request.Body), &sendReq); err != nil {
		logger.WithError(err).Error("Failed to parse send document request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", logger)
	}
	if err := docusign.ValidateSendRequest(&sendReq); err != nil {
		return api.ClassifiedErrorResponse(err, err.Error(), logger)
	}

	var result json.RawMessage
	err = broker.WithFreshToken(ctx, claims.UserID, func(accessToken string) error {
		rec, getErr := tokenStore.GetToken(ctx, claims.UserID)
		if getErr != nil {
			return getErr
		}
		if rec.BaseURI == "" || rec.AccountID == "" {
			return fmt.Errorf("%w: docusign account not resolved", apperrors.ErrReauthRequired)
		}

		var sendErr error
		result, sendErr = docusignClient.SendEnvelope(ctx, rec.BaseURI, rec.AccountID, accessToken, &sendReq)
		return sendErr
	})
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to send document", logger)
	}

	return api.SuccessResponse(http.StatusCreated, result, logger)
}

// main is the Lambda function entry point
func main() {
	lambda.Start(Handler)
}

func init() {
	var err error

	env, err = config.Load()
	if err != nil {
		panic(fmt.Sprintf("error loading environment: %v", err))
	}

	logger = setupLogger(env)

	// Initialize AWS SSM Parameter Store client
	ssmClient := clients.NewSSMClient(env.IsLocal)
	ssmRepository = &data.SSMDao{
		SSM:    ssmClient,
		Logger: logger,
	}

	ssmParams, err = ssmRepository.GetParameters()
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "init",
			"error":     err.Error(),
		}).Fatal("Error while getting SSM params from parameter store")
	}

	sqlDB, err = clients.NewPostgresSQLClient(
		ssmParams[constants.DATABASE_ENDPOINT],
		ssmParams[constants.DATABASE_PORT],
		ssmParams[constants.DATABASE_NAME],
		ssmParams[constants.DATABASE_USERNAME],
		ssmParams[constants.DATABASE_PASSWORD],
		ssmParams[constants.SSL_MODE],
	)
	if err != nil {
		logger.WithError(err).Fatal("Error setting up PostgreSQL client")
	}

	cognitoClient = clients.NewCognitoClient(env.IsLocal)

	err = setupBroker(ssmParams)
	if err != nil {
		logger.WithError(err).Fatal("Error setting up DocuSign broker")
	}

	docusignClient = &docusign.Client{Logger: logger}

	logger.WithField("operation", "init").Info("DocuSign OAuth Lambda initialization completed successfully")
}

func setupLogger(env config.Env) *logrus.Logger {
	logger := logrus.New()
	util.SetLogLevel(logger, env.LogLevel)
	logger.SetFormatter(&logrus.JSONFormatter{PrettyPrint: env.IsLocal})
	return logger
}

func setupBroker(ssmParams map[string]string) error {
	states, err := oauth.NewStateCodec(ssmParams[constants.OAUTH_STATE_SECRET])
	if err != nil {
		return err
	}

	authBase := strings.TrimRight(ssmParams[constants.DOCUSIGN_AUTH_BASE], "/")
	tokenURL := env.DocuSignTokenURL
	if tokenURL == "" {
		tokenURL = authBase + "/oauth/token"
	}

	tokenStore = &data.TokenDao{
		DB:             sqlDB,
		Table:          data.DocuSignTokenTable,
		AccountColumns: true,
		Logger:         logger,
	}

	broker = &oauth.Broker{
		Provider: oauth.ProviderConfig{
			Name:         "docusign",
			AuthURL:      authBase + "/oauth/auth",
			TokenURL:     tokenURL,
			ClientID:     ssmParams[constants.DOCUSIGN_INTEGRATION_KEY],
			ClientSecret: ssmParams[constants.DOCUSIGN_CLIENT_SECRET],
			RedirectURI:  ssmParams[constants.DOCUSIGN_REDIRECT_URI],
			Scopes:       []string{"signature"},
			// DocuSign wants the integration key and secret as Basic auth on
			// token requests, not in the form body.
			BasicAuth: true,
		},
		Store:  tokenStore,
		States: states,
		Logger: logger,
		EnrichToken: func(ctx context.Context, httpClient *http.Client, rec *models.TokenRecord) error {
			return docusign.UserInfo(ctx, httpClient, authBase, rec)
		},
	}
	return nil
}
