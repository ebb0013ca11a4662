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
	"crm/lib/notify"
	"crm/lib/oauth"
	"crm/lib/util"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

// Global variables for Lambda cold start optimization
var (
	logger            *logrus.Logger
	env               config.Env
	ssmRepository     data.SSMRepository
	ssmParams         map[string]string
	sqlDB             *sql.DB
	clientRepository  data.ClientRepository
	inquiryRepository data.InquiryRepository
	googleBroker      *oauth.Broker
	calendarClient    *gcal.Client
	notifyClient      *notify.Client
)

func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "Handler",
		"method":    request.HTTPMethod,
		"resource":  request.Resource,
	}).Info("Inquiry management request received")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		logger.WithError(err).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", logger), nil
	}

	switch request.HTTPMethod {
	case http.MethodGet:
		// GET /inquiries/{inquiryId} - Get specific inquiry
		if strings.Contains(request.Resource, "/inquiries/{inquiryId}") {
			inquiryID, err := strconv.ParseInt(request.PathParameters["inquiryId"], 10, 64)
			if err != nil {
				return api.ErrorResponse(http.StatusBadRequest, "Invalid inquiry ID", logger), nil
			}
			return handleGetInquiry(ctx, inquiryID), nil
		}
		// GET /inquiries - List inquiries for user
		return handleGetInquiries(ctx, claims.UserID), nil

	case http.MethodPost:
		// POST /inquiries - Create new inquiry
		if request.Resource == "/inquiries" {
			return handleCreateInquiry(ctx, claims.UserID, request.Body), nil
		}
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil

	case http.MethodPut:
		// PUT /inquiries/{inquiryId} - Update inquiry details
		if strings.Contains(request.Resource, "/inquiries/{inquiryId}") {
			inquiryID, err := strconv.ParseInt(request.PathParameters["inquiryId"], 10, 64)
			if err != nil {
				return api.ErrorResponse(http.StatusBadRequest, "Invalid inquiry ID", logger), nil
			}
			return handleUpdateInquiry(ctx, inquiryID, request.Body), nil
		}
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil

	case http.MethodPatch:
		// PATCH /inquiries/{inquiryId}/tasks/{taskId} - Toggle checklist task
		if strings.Contains(request.Resource, "/inquiries/{inquiryId}/tasks/{taskId}") {
			inquiryID, err := strconv.ParseInt(request.PathParameters["inquiryId"], 10, 64)
			if err != nil {
				return api.ErrorResponse(http.StatusBadRequest, "Invalid inquiry ID", logger), nil
			}
			return handleToggleTask(ctx, claims.UserID, inquiryID, request.PathParameters["taskId"]), nil
		}
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil

	case http.MethodDelete:
		// DELETE /inquiries/{inquiryId} - Delete inquiry
		if strings.Contains(request.Resource, "/inquiries/{inquiryId}") {
			inquiryID, err := strconv.ParseInt(request.PathParameters["inquiryId"], 10, 64)
			if err != nil {
				return api.ErrorResponse(http.StatusBadRequest, "Invalid inquiry ID", logger), nil
			}
			return handleDeleteInquiry(ctx, inquiryID), nil
		}
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil

	default:
		return api.ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed", logger), nil
	}
}

func handleGetInquiries(ctx context.Context, userID string) events.APIGatewayProxyResponse {
	inquiries, err := inquiryRepository.GetInquiries(ctx, userID)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to get inquiries", logger)
	}

	return api.SuccessResponse(http.StatusOK, models.InquiryListResponse{
		Inquiries: inquiries,
		Total:     len(inquiries),
	}, logger)
}

func handleGetInquiry(ctx context.Context, inquiryID int64) events.APIGatewayProxyResponse {
	inquiry, err := inquiryRepository.GetInquiryByID(ctx, inquiryID)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to get inquiry", logger)
	}
	return api.SuccessResponse(http.StatusOK, inquiry, logger)
}

func handleCreateInquiry(ctx context.Context, userID, body string) events.APIGatewayProxyResponse {
	var createReq models.CreateInquiryRequest
	if err := json.Unmarshal([]byte(body), &createReq); err != nil {
		logger.WithError(err).Error("Failed to parse create inquiry request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", logger)
	}

	inquiry, err := inquiryRepository.CreateInquiry(ctx, userID, &createReq)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to create inquiry", logger)
	}
	return api.SuccessResponse(http.StatusCreated, inquiry, logger)
}

func handleUpdateInquiry(ctx context.Context, inquiryID int64, body string) events.APIGatewayProxyResponse {
	var updateReq models.UpdateInquiryRequest
	if err := json.Unmarshal([]byte(body), &updateReq); err != nil {
		logger.WithError(err).Error("Failed to parse update inquiry request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", logger)
	}

	inquiry, err := inquiryRepository.UpdateInquiry(ctx, inquiryID, &updateReq)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to update inquiry", logger)
	}
	return api.SuccessResponse(http.StatusOK, inquiry, logger)
}

// handleToggleTask flips a checklist task. When the toggle completes the last
// task the repository promotes the inquiry to an event; the calendar sync and
// confirmation email that follow are best-effort and never fail the request.
func handleToggleTask(ctx context.Context, userID string, inquiryID int64, taskID string) events.APIGatewayProxyResponse {
	result, err := inquiryRepository.ToggleTask(ctx, inquiryID, taskID)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to toggle task", logger)
	}

	if result.Promoted {
		syncPromotedEvent(ctx, userID, result.Event)
	}

	return api.SuccessResponse(http.StatusOK, result, logger)
}

func syncPromotedEvent(ctx context.Context, userID string, event *models.Event) {
	err := googleBroker.WithFreshToken(ctx, userID, func(accessToken string) error {
		_, createErr := calendarClient.CreateEvent(ctx, accessToken, event)
		return createErr
	})
	if err != nil {
		logger.WithError(err).WithField("event_id", event.ID).
			Warn("Calendar sync for promoted event skipped")
	}

	client, err := clientRepository.GetClientByID(ctx, event.ClientID)
	if err != nil {
		logger.WithError(err).WithField("client_id", event.ClientID).
			Warn("Confirmation email skipped, client lookup failed")
		return
	}
	if err := notifyClient.SendBookingConfirmation(client.ContactEmail, event); err != nil {
		logger.WithError(err).WithField("event_id", event.ID).
			Warn("Confirmation email skipped")
	}
}

func handleDeleteInquiry(ctx context.Context, inquiryID int64) events.APIGatewayProxyResponse {
	if err := inquiryRepository.DeleteInquiry(ctx, inquiryID); err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to delete inquiry", logger)
	}
	return api.SuccessResponse(http.StatusOK, map[string]string{"message": "Inquiry deleted successfully"}, logger)
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

	err = setupPostgresSQLClient(ssmParams)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "init",
			"error":     err.Error(),
		}).Fatal("Error setting up PostgreSQL client")
	}

	err = setupGoogleBroker(ssmParams)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "init",
			"error":     err.Error(),
		}).Fatal("Error setting up Google broker")
	}

	calendarClient = &gcal.Client{BaseURL: env.GoogleCalendarURL, Logger: logger}
	notifyClient = notify.NewClient(
		ssmParams[constants.RESEND_API_KEY],
		ssmParams[constants.RESEND_FROM_EMAIL],
		logger,
	)

	logger.WithField("operation", "init").Info("Inquiry Management Lambda initialization completed successfully")
}

func setupLogger(env config.Env) *logrus.Logger {
	logger := logrus.New()
	util.SetLogLevel(logger, env.LogLevel)
	logger.SetFormatter(&logrus.JSONFormatter{PrettyPrint: env.IsLocal})
	return logger
}

func setupPostgresSQLClient(ssmParams map[string]string) error {
	var err error

	sqlDB, err = clients.NewPostgresSQLClient(
		ssmParams[constants.DATABASE_ENDPOINT],
		ssmParams[constants.DATABASE_PORT],
		ssmParams[constants.DATABASE_NAME],
		ssmParams[constants.DATABASE_USERNAME],
		ssmParams[constants.DATABASE_PASSWORD],
		ssmParams[constants.SSL_MODE],
	)
	if err != nil {
		return fmt.Errorf("error creating PostgreSQL client: %w", err)
	}

	clientRepository = &data.ClientDao{
		DB:     sqlDB,
		Logger: logger,
	}
	inquiryRepository = &data.InquiryDao{
		DB:      sqlDB,
		Clients: clientRepository,
		Logger:  logger,
	}
	return nil
}

func setupGoogleBroker(ssmParams map[string]string) error {
	states, err := oauth.NewStateCodec(ssmParams[constants.OAUTH_STATE_SECRET])
	if err != nil {
		return err
	}

	tokenURL := env.GoogleTokenURL
	if tokenURL == "" {
		tokenURL = "https://oauth2.googleapis.com/token"
	}

	googleBroker = &oauth.Broker{
		Provider: oauth.ProviderConfig{
			Name:         "google",
			AuthURL:      "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:     tokenURL,
			ClientID:     ssmParams[constants.GOOGLE_CLIENT_ID],
			ClientSecret: ssmParams[constants.GOOGLE_CLIENT_SECRET],
			RedirectURI:  ssmParams[constants.GOOGLE_REDIRECT_URI],
			Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
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
