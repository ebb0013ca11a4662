package main

import (
	"context"
	"crm/lib/api"
	"crm/lib/auth"
	"crm/lib/clients"
	"crm/lib/config"
	"crm/lib/constants"
	"crm/lib/data"
	"crm/lib/gcal"
	"crm/lib/models"
	"crm/lib/oauth"
	"crm/lib/util"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

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
	broker         *oauth.Broker
	calendarClient *gcal.Client
)

// Handler processes API Gateway requests for the Google Calendar connection.
//
//	POST /google/auth          - Build authorization URL (bearer auth)
//	GET  /google/callback      - OAuth redirect target (public; state-verified)
//	GET  /google/events        - List calendar events (bearer auth)
//	POST /google/create-event  - Push a CRM event to the calendar (bearer auth)
//
// The callback must stay public: Google redirects the user's browser there
// with no Authorization header. Identity comes from the signed state token.
func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "Handler",
		"method":    request.HTTPMethod,
		"resource":  request.Resource,
	}).Info("Google OAuth request received")

	switch {
	case request.Resource == "/google/auth" && request.HTTPMethod == http.MethodPost:
		return handleAuth(ctx, request), nil

	case request.Resource == "/google/callback" && request.HTTPMethod == http.MethodGet:
		return handleCallback(ctx, request), nil

	case request.Resource == "/google/events" && request.HTTPMethod == http.MethodGet:
		return handleListEvents(ctx, request), nil

	case request.Resource == "/google/create-event" && request.HTTPMethod == http.MethodPost:
		return handleCreateEvent(ctx, request), nil

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
		return api.ClassifiedErrorResponse(err, "Google authorization failed", logger)
	}

	return api.RedirectResponse(payload.ClientOrigin + "/dashboard?google_auth_success=true")
}

func handleListEvents(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	claims, err := auth.ValidateBearer(ctx, cognitoClient, request.Headers)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Authentication failed", logger)
	}

	var items json.RawMessage
	err = broker.WithFreshToken(ctx, claims.UserID, func(accessToken string) error {
		var listErr error
		items, listErr = calendarClient.ListEvents(ctx, accessToken,
			request.QueryStringParameters["timeMin"],
			request.QueryStringParameters["timeMax"])
		return listErr
	})
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to list calendar events", logger)
	}

	return api.SuccessResponse(http.StatusOK, items, logger)
}

func handleCreateEvent(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	claims, err := auth.ValidateBearer(ctx, cognitoClient, request.Headers)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Authentication failed", logger)
	}

	var event models.Event
	if err := json.Unmarshal([]byte(request.Body), &event); err != nil {
		logger.WithError(err).Error("Failed to parse event payload")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", logger)
	}

	var created json.RawMessage
	err = broker.WithFreshToken(ctx, claims.UserID, func(accessToken string) error {
		var createErr error
		created, createErr = calendarClient.CreateEvent(ctx, accessToken, &event)
		return createErr
	})
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to create calendar event", logger)
	}

	return api.SuccessResponse(http.StatusCreated, created, logger)
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
		logger.WithError(err).Fatal("Error setting up Google broker")
	}

	calendarClient = &gcal.Client{BaseURL: env.GoogleCalendarURL, Logger: logger}

	logger.WithField("operation", "init").Info("Google OAuth Lambda initialization completed successfully")
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

	tokenURL := env.GoogleTokenURL
	if tokenURL == "" {
		tokenURL = "https://oauth2.googleapis.com/token"
	}

	broker = &oauth.Broker{
		Provider: oauth.ProviderConfig{
			Name:         "google",
			AuthURL:      "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:     tokenURL,
			ClientID:     ssmParams[constants.GOOGLE_CLIENT_ID],
			ClientSecret: ssmParams[constants.GOOGLE_CLIENT_SECRET],
			RedirectURI:  ssmParams[constants.GOOGLE_REDIRECT_URI],
			Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
			// Google only returns a refresh token when offline access is
			// requested and consent is re-prompted.
			ExtraAuthParams: url.Values{
				"access_type": {"offline"},
				"prompt":      {"consent"},
			},
		},
		Store: &data.TokenDao{
			DB:     sqlDB,
			Table:  data.GoogleTokenTable,
			Logger: logger,
		},
		States: states,
		Logger: logger,
	}
	return nil
}
