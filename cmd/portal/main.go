package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/pisonet/vendo-backend/internal/api/handlers"
	"github.com/pisonet/vendo-backend/internal/api/middleware"
	"github.com/pisonet/vendo-backend/internal/api/response"
	"github.com/pisonet/vendo-backend/internal/common/clock"
	envconfig "github.com/pisonet/vendo-backend/internal/common/config"
	"github.com/pisonet/vendo-backend/internal/domain/purchase"
	"github.com/pisonet/vendo-backend/internal/domain/session"
	ddbclient "github.com/pisonet/vendo-backend/internal/platform/dynamodb/client"
	"github.com/pisonet/vendo-backend/internal/platform/dynamodb/repository"
)

var (
	chain  middleware.APIGatewayHandler
	logger *slog.Logger
)

func init() {
	// Initialize logger
	logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

	config, err := envconfig.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load Env config: %v", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create zap logger: %v", err)
	}

	// Initialize DynamoDB client
	dbClient, err := ddbclient.NewDynamoDBClient(context.Background(), config.AWSRegion)
	if err != nil {
		log.Fatalf("Failed to create DynamoDB client: %v", err)
	}

	// Initialize repositories
	accountRepo := repository.NewDynamoDBAccountRepository(dbClient, config.DynamoDBTableName)
	ledgerRepo := repository.NewDynamoDBLedgerRepository(dbClient, config.DynamoDBTableName, logger)

	// Initialize engine and services
	clk := clock.NewSystem()
	engine := session.NewEngine(config.GracePeriodSeconds, config.VendorLocation)
	sessionService := session.NewService(accountRepo, ledgerRepo, engine, clk, config.CASMaxRetries, logger)
	purchaseService := purchase.NewService(accountRepo, ledgerRepo, engine, clk, config.RatePerMinute, config.CASMaxRetries, logger)

	// Initialize handler and middleware chain
	portalHandler := handlers.NewPortalHandler(purchaseService, sessionService, clk)

	auth := middleware.NewAuthMiddleware(config.GatewayTokenSecret, "", zapLogger)
	chain = middleware.NewLoggingMiddleware().Handle(
		middleware.NewRecoveryMiddleware().Handle(
			auth.Handle(portalHandler.Handle)))
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	// Handle CORS preflight
	if request.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    response.DefaultHeaders(),
		}, nil
	}

	return chain(ctx, logger, request)
}

func main() {
	lambda.Start(handler)
}
