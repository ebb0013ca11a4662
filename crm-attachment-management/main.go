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
	"path"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Presigned URLs are short-lived; the client is expected to use them
// immediately.
const presignExpiry = 15 * time.Minute

// Global variables for Lambda cold start optimization
var (
	logger               *logrus.Logger
	env                  config.Env
	ssmRepository        data.SSMRepository
	ssmParams            map[string]string
	sqlDB                *sql.DB
	attachmentRepository data.AttachmentRepository
	eventRepository      data.EventRepository
	s3Client             clients.S3ClientInterface
)

// Handler processes API Gateway requests for event attachments.
//
//	POST   /events/{eventId}/attachments                       - Register attachment, return presigned upload URL
//	GET    /events/{eventId}/attachments                       - List attachments for event
//	GET    /attachments/{attachmentId}/download-url            - Generate presigned download URL
//	DELETE /attachments/{attachmentId}                         - Soft delete attachment
func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "Handler",
		"method":    request.HTTPMethod,
		"resource":  request.Resource,
	}).Info("Attachment management request received")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		logger.WithError(err).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", logger), nil
	}

	switch {
	case request.Resource == "/events/{eventId}/attachments" && request.HTTPMethod == http.MethodPost:
		eventID, err := strconv.ParseInt(request.PathParameters["eventId"], 10, 64)
		if err != nil {
			return api.ErrorResponse(http.StatusBadRequest, "Invalid event ID", logger), nil
		}
		return handleCreateAttachment(ctx, claims.UserID, eventID, request.Body), nil

	case request.Resource == "/events/{eventId}/attachments" && request.HTTPMethod == http.MethodGet:
		eventID, err := strconv.ParseInt(request.PathParameters["eventId"], 10, 64)
		if err != nil {
			return api.ErrorResponse(http.StatusBadRequest, "Invalid event ID", logger), nil
		}
		return handleListAttachments(ctx, eventID), nil

	case request.Resource == "/attachments/{attachmentId}/download-url" && request.HTTPMethod == http.MethodGet:
		attachmentID, err := strconv.ParseInt(request.PathParameters["attachmentId"], 10, 64)
		if err != nil {
			return api.ErrorResponse(http.StatusBadRequest, "Invalid attachment ID", logger), nil
		}
		return handleDownloadURL(ctx, attachmentID), nil

	case request.Resource == "/attachments/{attachmentId}" && request.HTTPMethod == http.MethodDelete:
		attachmentID, err := strconv.ParseInt(request.PathParameters["attachmentId"], 10, 64)
		if err != nil {
			return api.ErrorResponse(http.StatusBadRequest, "Invalid attachment ID", logger), nil
		}
		return handleDeleteAttachment(ctx, attachmentID), nil

	default:
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil
	}
}

// handleCreateAttachment registers the attachment row and hands back a
// presigned PUT URL. The object key is minted here so clients never choose
// their own paths.
func handleCreateAttachment(ctx context.Context, userID string, eventID int64, body string) events.APIGatewayProxyResponse {
	var createReq models.CreateAttachmentRequest
	if err := json.Unmarshal([]byte(body), &createReq); err != nil {
		logger.WithError(err).Error("Failed to parse create attachment request")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", logger)
	}
	if createReq.FileName == "" {
		return api.ErrorResponse(http.StatusBadRequest, "file_name is required", logger)
	}

	// Verify the event exists before registering anything against it.
	if _, err := eventRepository.GetEventByID(ctx, eventID); err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to get event", logger)
	}

	key := fmt.Sprintf("events/%d/%s%s", eventID, uuid.New().String(), path.Ext(createReq.FileName))

	attachment, err := attachmentRepository.CreateAttachment(ctx, &models.Attachment{
		EventID:  eventID,
		UserID:   userID,
		FileName: createReq.FileName,
		FilePath: key,
		FileSize: createReq.FileSize,
		FileType: createReq.FileType,
	})
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to create attachment", logger)
	}

	uploadURL, err := s3Client.GenerateUploadURL(key, presignExpiry)
	if err != nil {
		logger.WithError(err).Error("Failed to generate upload URL")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to generate upload URL", logger)
	}

	return api.SuccessResponse(http.StatusCreated, models.AttachmentResponse{
		Attachment: *attachment,
		URL:        uploadURL,
	}, logger)
}

func handleListAttachments(ctx context.Context, eventID int64) events.APIGatewayProxyResponse {
	attachments, err := attachmentRepository.GetAttachmentsByEvent(ctx, eventID)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to list attachments", logger)
	}
	return api.SuccessResponse(http.StatusOK, attachments, logger)
}

func handleDownloadURL(ctx context.Context, attachmentID int64) events.APIGatewayProxyResponse {
	attachment, err := attachmentRepository.GetAttachment(ctx, attachmentID)
	if err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to get attachment", logger)
	}

	downloadURL, err := s3Client.GenerateDownloadURL(attachment.FilePath, presignExpiry)
	if err != nil {
		logger.WithError(err).Error("Failed to generate download URL")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to generate download URL", logger)
	}

	return api.SuccessResponse(http.StatusOK, models.AttachmentResponse{
		Attachment: *attachment,
		URL:        downloadURL,
	}, logger)
}

// Soft delete: the row is flagged, the object stays in S3.
func handleDeleteAttachment(ctx context.Context, attachmentID int64) events.APIGatewayProxyResponse {
	if err := attachmentRepository.SoftDeleteAttachment(ctx, attachmentID); err != nil {
		return api.ClassifiedErrorResponse(err, "Failed to delete attachment", logger)
	}
	return api.SuccessResponse(http.StatusOK, map[string]string{"message": "Attachment deleted successfully"}, logger)
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

	s3Client = clients.NewS3Client(env.IsLocal, ssmParams[constants.ATTACHMENT_BUCKET_NAME])

	logger.WithField("operation", "init").Info("Attachment Management Lambda initialization completed successfully")
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

	attachmentRepository = &data.AttachmentDao{
		DB:     sqlDB,
		Logger: logger,
	}
	eventRepository = &data.EventDao{
		DB:     sqlDB,
		Logger: logger,
	}
	return nil
}
