package main

import (
	"context"
	"crm/lib/api"
	"crm/lib/app"
	"crm/lib/auth"
	"crm/lib/clients"
	"crm/lib/config"
	"crm/lib/constants"
	"crm/lib/data"
	"crm/lib/models"
	"crm/lib/util"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
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
	leadRepository    data.LeadRepository
	inquiryRepository data.InquiryRepository
)

func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "Handler",
		"method":    request.HTTPMethod,
		"resource":  request.Resource,
	}).Info("Lead management request received")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		logger.WithError(err).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", logger), nil
	}

	switch request.HTTPMethod {
	case http.MethodGet:
		// GET /leads - List leads for user
		return handleGetLeads(ctx, claims.UserID), nil

	case http.MethodPost:
		// POST /leads/{leadId}/promote - Promote lead to inquiry
		if strings.Contains(request.Resource, "/leads/{leadId}/promote") {
			leadID, err := strconv.ParseInt(request.PathParameters["leadId"], 10, 64)
			if err != nil {
				return api.ErrorResponse(http.StatusBadRequest, "Invalid lead ID", logger), nil
			}
			return handlePromoteLead(ctx, claims.UserID, leadID, request.Body), nil
		}
		// POST /leads - Create new lead
		if request.Resource == "/leads" {
			return handleCreateLead(ctx, claims.UserID, request.Body), nil
		}
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil

	case http.MethodPut:
		// PUT /leads/{leadId} - Update lead
		if strings.Contains(request.Resource, "/leads/{leadId}") {
			leadID, err := strconv.ParseInt(request.PathParameters["leadId"], 10, 64)
			if err != nil {
				return api.ErrorResponse(http.StatusBadRequest, "Invalid lead ID", logger), nil
			}
			return handleUpdateLead(ctx, leadID, request.Body), nil
		}
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil

	case http.MethodDelete:
		// DELETE /leads/{leadId} - Delete lead
		if strings.Contains(request.Resource, "/leads/{leadId}") {
			leadID, err := strconv.ParseInt(request.PathParameters["leadId"], 10, 64)
			if err != nil {
				return api.ErrorResponse(http.StatusBadRequest, "Invalid lead ID", logger), nil
			}
			return handleDeleteLead(ctx, leadID), nil
		}
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil

	default:
		return api.ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed", logger), nil
	}
}

func handleGetLeads(ctx context.Context, userID string) events.APIGatewayProxyResponse {
	leads, err := leadRepository.GetLeads(ctx, userID)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to get leads", logger)
	}

	return api.SuccessResponse(http.StatusOK, models.LeadListResponse{
		Leads: leads,
		Total: len(leads),
	}, logger)
}

func handleCreateLead(ctx context.Context, userID, body string) events.APIGatewayProxyResponse {
	var createReq models.CreateLeadRequest
	if err := json.Unmarshal([]byte(body), &createReq); err != nil {
		logger.WithError(err).Error("Failed to parse create lead request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", logger)
	}

	lead, err := leadRepository.CreateLead(ctx, userID, &createReq)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to create lead", logger)
	}
	return api.SuccessResponse(http.StatusCreated, lead, logger)
}

func handleUpdateLead(ctx context.Context, leadID int64, body string) events.APIGatewayProxyResponse {
	var updateReq models.UpdateLeadRequest
	if err := json.Unmarshal([]byte(body), &updateReq); err != nil {
		logger.WithError(err).Error("Failed to parse update lead request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", logger)
	}

	lead, err := leadRepository.UpdateLead(ctx, leadID, &updateReq)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to update lead", logger)
	}
	return api.SuccessResponse(http.StatusOK, lead, logger)
}

// handlePromoteLead turns a lead into an inquiry through the normal inquiry
// creation flow. The lead is deleted only after the inquiry exists; a failed
// delete is logged and the promotion still succeeds.
func handlePromoteLead(ctx context.Context, userID string, leadID int64, body string) events.APIGatewayProxyResponse {
	var promoteReq models.PromoteLeadRequest
	if err := json.Unmarshal([]byte(body), &promoteReq); err != nil {
		logger.WithError(err).Error("Failed to parse promote lead request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", logger)
	}

	lead, err := leadRepository.GetLeadByID(ctx, leadID)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to get lead", logger)
	}

	inquiry, err := inquiryRepository.CreateInquiry(ctx, userID, app.BuildInquiryFromLead(lead, &promoteReq))
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to promote lead", logger)
	}

	if err := leadRepository.DeleteLead(ctx, leadID); err != nil {
		logger.WithError(err).WithField("lead_id", leadID).
			Warn("Promoted lead could not be deleted")
	}

	return api.SuccessResponse(http.StatusCreated, inquiry, logger)
}

func handleDeleteLead(ctx context.Context, leadID int64) events.APIGatewayProxyResponse {
	if err := leadRepository.DeleteLead(ctx, leadID); err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to delete lead", logger)
	}
	return api.SuccessResponse(http.StatusOK, map[string]string{"message": "Lead deleted successfully"}, logger)
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

	logger.WithField("operation", "init").Info("Lead Management Lambda initialization completed successfully")
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

	clientRepository := &data.ClientDao{
		DB:     sqlDB,
		Logger: logger,
	}
	leadRepository = &data.LeadDao{
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
