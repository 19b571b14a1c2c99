package middleware

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/aws/aws-lambda-go/events"

	"github.com/pisonet/vendo-backend/internal/api/response"
	"github.com/pisonet/vendo-backend/internal/domain/errors"
)

// RecoveryMiddleware is a middleware for recovering from panics
type RecoveryMiddleware struct{}

// NewRecoveryMiddleware creates a new recovery middleware
func NewRecoveryMiddleware() RecoveryMiddleware {
	return RecoveryMiddleware{}
}

// Handle handles the recovery middleware
func (m RecoveryMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
		// Defer recovery function
		defer func() {
			if r := recover(); r != nil {
				logger.Error("PANIC", "panic", r, "stack", string(debug.Stack()))
				resp = response.Error(
					errors.NewInternalError("An unexpected error occurred", nil),
					request.RequestContext.RequestID)
				err = nil
			}
		}()

		// Try to handle the request
		resp, err = next(ctx, logger, request)

		// Check if there was an error
		if err != nil {
			// Convert the error to an AppError if it's not already
			var appErr errors.AppError
			if e, ok := err.(errors.AppError); ok {
				appErr = e
			} else {
				appErr = errors.NewInternalError("An unexpected error occurred", err)
			}

			logger.Error("ERROR", "code", appErr.Code, "error", appErr.Error())

			// Return the error response
			return response.Error(appErr, request.RequestContext.RequestID), nil
		}

		// Return the response
		return resp, nil
	}
}
