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
	logger          *logrus.Logger
	env             config.Env
	ssmRepository   data.SSMRepository
	ssmParams       map[string]string
	sqlDB           *sql.DB
	eventRepository data.EventRepository
)

func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "Handler",
		"method":    request.HTTPMethod,
		"resource":  request.Resource,
	}).Info("Event management request received")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		logger.WithError(err).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", logger), nil
	}

	switch request.HTTPMethod {
	case http.MethodGet:
		// GET /events/{eventId} - Get specific event
		if strings.Contains(request.Resource, "/events/{eventId}") {
			eventID, err := strconv.ParseInt(request.PathParameters["eventId"], 10, 64)
			if err != nil {
				return api.ErrorResponse(http.StatusBadRequest, "Invalid event ID", logger), nil
			}
			return handleGetEvent(ctx, eventID), nil
		}
		// GET /events - List events for user
		return handleGetEvents(ctx, claims.UserID), nil

	case http.MethodPut:
		// PUT /events/{eventId} - Update event details
		if strings.Contains(request.Resource, "/events/{eventId}") {
			eventID, err := strconv.ParseInt(request.PathParameters["eventId"], 10, 64)
			if err != nil {
				return api.ErrorResponse(http.StatusBadRequest, "Invalid event ID", logger), nil
			}
			return handleUpdateEvent(ctx, eventID, request.Body), nil
		}
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil

	case http.MethodPatch:
		// PATCH /events/{eventId}/status - Update event status
		if strings.Contains(request.Resource, "/events/{eventId}/status") {
			eventID, err := strconv.ParseInt(request.PathParameters["eventId"], 10, 64)
			if err != nil {
				return api.ErrorResponse(http.StatusBadRequest, "Invalid event ID", logger), nil
			}
			return handleUpdateEventStatus(ctx, eventID, request.Body), nil
		}
		// PATCH /events/{eventId}/tasks/{taskId} - Toggle logistics task
		if strings.Contains(request.Resource, "/events/{eventId}/tasks/{taskId}") {
			eventID, err := strconv.ParseInt(request.PathParameters["eventId"], 10, 64)
			if err != nil {
				return api.ErrorResponse(http.StatusBadRequest, "Invalid event ID", logger), nil
			}
			return handleToggleTask(ctx, eventID, request.PathParameters["taskId"]), nil
		}
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil

	case http.MethodDelete:
		// DELETE /events/{eventId} - Delete event
		if strings.Contains(request.Resource, "/events/{eventId}") {
			eventID, err := strconv.ParseInt(request.PathParameters["eventId"], 10, 64)
			if err != nil {
				return api.ErrorResponse(http.StatusBadRequest, "Invalid event ID", logger), nil
			}
			return handleDeleteEvent(ctx, eventID), nil
		}
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil

	default:
		return api.ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed", logger), nil
	}
}

func handleGetEvents(ctx context.Context, userID string) events.APIGatewayProxyResponse {
	eventList, err := eventRepository.GetEvents(ctx, userID)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to get events", logger)
	}

	return api.SuccessResponse(http.StatusOK, models.EventListResponse{
		Events: eventList,
		Total:  len(eventList),
	}, logger)
}

func handleGetEvent(ctx context.Context, eventID int64) events.APIGatewayProxyResponse {
	event, err := eventRepository.GetEventByID(ctx, eventID)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to get event", logger)
	}
	return api.SuccessResponse(http.StatusOK, event, logger)
}

func handleUpdateEvent(ctx context.Context, eventID int64, body string) events.APIGatewayProxyResponse {
	var updateReq models.UpdateEventRequest
	if err := json.Unmarshal([]byte(body), &updateReq); err != nil {
		logger.WithError(err).Error("Failed to parse update event request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", logger)
	}

	event, err := eventRepository.UpdateEvent(ctx, eventID, &updateReq)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to update event", logger)
	}
	return api.SuccessResponse(http.StatusOK, event, logger)
}

func handleUpdateEventStatus(ctx context.Context, eventID int64, body string) events.APIGatewayProxyResponse {
	var statusReq struct {
		Status string `json:"status" binding:"required"`
	}
	if err := json.Unmarshal([]byte(body), &statusReq); err != nil {
		logger.WithError(err).Error("Failed to parse status update request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", logger)
	}

	if err := eventRepository.UpdateEventStatus(ctx, eventID, statusReq.Status); err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to update event status", logger)
	}

	return api.SuccessResponse(http.StatusOK, map[string]string{
		"message": "Event status updated successfully",
		"status":  statusReq.Status,
	}, logger)
}

// Event task toggles only move progress; a fully-checked event stays an event.
func handleToggleTask(ctx context.Context, eventID int64, taskID string) events.APIGatewayProxyResponse {
	event, err := eventRepository.ToggleTask(ctx, eventID, taskID)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to toggle task", logger)
	}
	return api.SuccessResponse(http.StatusOK, event, logger)
}

func handleDeleteEvent(ctx context.Context, eventID int64) events.APIGatewayProxyResponse {
	if err := eventRepository.DeleteEvent(ctx, eventID); err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to delete event", logger)
	}
	return api.SuccessResponse(http.StatusOK, map[string]string{"message": "Event deleted successfully"}, logger)
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

	logger.WithField("operation", "init").Info("Event Management Lambda initialization completed successfully")
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

	eventRepository = &data.EventDao{
		DB:     sqlDB,
		Logger: logger,
	}
	return nil
}
