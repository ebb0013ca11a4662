package main

import (
	"crm/lib/clients"
	"crm/lib/config"
	"crm/lib/constants"
	"crm/lib/data"
	"crm/lib/util"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

var (
	logger        *logrus.Logger
	env           config.Env
	ssmRepository data.SSMRepository
	ssmParams     map[string]string
)

// handler answers CORS preflight requests. The allowed origin list lives in
// SSM so the dashboard domains can change without a redeploy.
func handler(request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestOrigin, ok := request.Headers["origin"]
	if !ok {
		requestOrigin, ok = request.Headers["Origin"]
	}
	if !ok {
		logger.Warn("Origin header missing from preflight request")
		return events.APIGatewayProxyResponse{
			StatusCode: 400,
		}, nil
	}

	allowedOrigins := strings.Split(ssmParams[constants.ALLOWED_ORIGINS], ",")

	for _, allowedOrigin := range allowedOrigins {
		if allowedOrigin == "*" || allowedOrigin == requestOrigin {
			return events.APIGatewayProxyResponse{
				StatusCode: 200,
				Headers: map[string]string{
					"Access-Control-Allow-Origin":      requestOrigin,
					"Access-Control-Allow-Headers":     "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token",
					"Access-Control-Allow-Methods":     "GET, PUT, DELETE, POST, OPTIONS, PATCH",
					"Access-Control-Allow-Credentials": "true",
				},
			}, nil
		}
	}

	logger.WithField("origin", requestOrigin).Warn("Unauthorized origin on preflight request")

	return events.APIGatewayProxyResponse{
		StatusCode: 400,
	}, nil
}

func main() {
	lambda.Start(handler)
}

func init() {
	var err error

	env, err = config.Load()
	if err != nil {
		panic(fmt.Sprintf("error loading environment: %v", err))
	}

	logger = logrus.New()
	util.SetLogLevel(logger, env.LogLevel)
	logger.SetFormatter(&logrus.JSONFormatter{
		PrettyPrint: env.IsLocal,
	})

	// Setup SSM client
	ssmClient := clients.NewSSMClient(env.IsLocal)
	ssmRepository = &data.SSMDao{
		SSM:    ssmClient,
		Logger: logger,
	}

	// Get SSM parameters
	ssmParams, err = ssmRepository.GetParameters()
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Fatal("Error while getting ssm params from param store")
	}
}
