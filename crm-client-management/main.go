package main

import (
	"context"
	"crm/lib/api"
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
	logger           *logrus.Logger
	env              config.Env
	ssmRepository    data.SSMRepository
	ssmParams        map[string]string
	sqlDB            *sql.DB
	clientRepository data.ClientRepository
)

func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "Handler",
		"method":    request.HTTPMethod,
		"resource":  request.Resource,
	}).Info("Client management request received")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		logger.WithError(err).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", logger), nil
	}

	switch request.HTTPMethod {
	case http.MethodGet:
		// GET /clients/{clientId} - Get specific client
		if strings.Contains(request.Resource, "/clients/{clientId}") {
			clientID, err := strconv.ParseInt(request.PathParameters["clientId"], 10, 64)
			if err != nil {
				return api.ErrorResponse(http.StatusBadRequest, "Invalid client ID", logger), nil
			}
			return handleGetClient(ctx, clientID), nil
		}
		// GET /clients - List clients for user
		return handleGetClients(ctx, claims.UserID), nil

	case http.MethodPost:
		// POST /clients - Create new client
		if request.Resource == "/clients" {
			return handleCreateClient(ctx, claims.UserID, request.Body), nil
		}
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil

	case http.MethodPut:
		// PUT /clients/{clientId} - Update client
		if strings.Contains(request.Resource, "/clients/{clientId}") {
			clientID, err := strconv.ParseInt(request.PathParameters["clientId"], 10, 64)
			if err != nil {
				return api.ErrorResponse(http.StatusBadRequest, "Invalid client ID", logger), nil
			}
			return handleUpdateClient(ctx, clientID, request.Body), nil
		}
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil

	case http.MethodDelete:
		// DELETE /clients/{clientId} - Delete client
		if strings.Contains(request.Resource, "/clients/{clientId}") {
			clientID, err := strconv.ParseInt(request.PathParameters["clientId"], 10, 64)
			if err != nil {
				return api.ErrorResponse(http.StatusBadRequest, "Invalid client ID", logger), nil
			}
			return handleDeleteClient(ctx, clientID), nil
		}
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil

	default:
		return api.ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed", logger), nil
	}
}

func handleGetClients(ctx context.Context, userID string) events.APIGatewayProxyResponse {
	clientList, err := clientRepository.GetClients(ctx, userID)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to get clients", logger)
	}

	return api.SuccessResponse(http.StatusOK, models.ClientListResponse{
		Clients: clientList,
		Total:   len(clientList),
	}, logger)
}

func handleGetClient(ctx context.Context, clientID int64) events.APIGatewayProxyResponse {
	client, err := clientRepository.GetClientByID(ctx, clientID)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to get client", logger)
	}
	return api.SuccessResponse(http.StatusOK, client, logger)
}

func handleCreateClient(ctx context.Context, userID, body string) events.APIGatewayProxyResponse {
	var createReq models.CreateClientRequest
	if err := json.Unmarshal([]byte(body), &createReq); err != nil {
		logger.WithError(err).Error("Failed to parse create client request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", logger)
	}

	client, err := clientRepository.CreateClient(ctx, userID, &createReq)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to create client", logger)
	}
	return api.SuccessResponse(http.StatusCreated, client, logger)
}

func handleUpdateClient(ctx context.Context, clientID int64, body string) events.APIGatewayProxyResponse {
	var updateReq models.UpdateClientRequest
	if err := json.Unmarshal([]byte(body), &updateReq); err != nil {
		logger.WithError(err).Error("Failed to parse update client request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", logger)
	}

	client, err := clientRepository.UpdateClient(ctx, clientID, &updateReq)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to update client", logger)
	}
	return api.SuccessResponse(http.StatusOK, client, logger)
}

func handleDeleteClient(ctx context.Context, clientID int64) events.APIGatewayProxyResponse {
	if err := clientRepository.DeleteClient(ctx, clientID); err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to delete client", logger)
	}
	return api.SuccessResponse(http.StatusOK, map[string]string{"message": "Client deleted successfully"}, logger)
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

	logger.WithField("operation", "init").Info("Client Management Lambda initialization completed successfully")
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
	return nil
}
