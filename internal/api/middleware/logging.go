package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// LoggingMiddleware is a middleware for logging requests and responses
type LoggingMiddleware struct{}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware() LoggingMiddleware {
	return LoggingMiddleware{}
}

// Handle handles the logging middleware
func (m LoggingMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		// Start time
		startTime := time.Now()

		logger.Info("REQUEST",
			"method", request.HTTPMethod,
			"path", request.Path,
			"requestId", request.RequestContext.RequestID,
			"queryParameters", request.QueryStringParameters,
			"headers", maskSensitiveHeaders(request.Headers))

		// Call the next handler
		response, err := next(ctx, logger, request)

		if err != nil {
			logger.Error("RESPONSE",
				"requestId", request.RequestContext.RequestID,
				"durationMs", time.Since(startTime).Milliseconds(),
				"error", err)
		} else {
			logger.Info("RESPONSE",
				"requestId", request.RequestContext.RequestID,
				"statusCode", response.StatusCode,
				"durationMs", time.Since(startTime).Milliseconds())
		}

		// Return the response
		return response, err
	}
}

// maskSensitiveHeaders masks credentials before they reach the log stream
func maskSensitiveHeaders(headers map[string]string) map[string]string {
	masked := make(map[string]string, len(headers))
	for key, value := range headers {
		switch key {
		case "Authorization", "authorization", "X-Api-Key", "x-api-key":
			masked[key] = "***"
		default:
			masked[key] = value
		}
	}
	return masked
}
