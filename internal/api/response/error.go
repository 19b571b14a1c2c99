package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/pisonet/vendo-backend/internal/domain/errors"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success          bool             `json:"success"`
	Error            string           `json:"error"`
	ErrorDescription ErrorDescription `json:"error_description"`
	Metadata         ResponseMetadata `json:"metadata"`
}

// ErrorDescription represents the error details
type ErrorDescription struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error creates an error response
func Error(appErr errors.AppError, requestID string) events.APIGatewayProxyResponse {
	// Create the response body
	response := ErrorResponse{
		Success: false,
		Error:   appErr.Code,
		ErrorDescription: ErrorDescription{
			Message: appErr.Message,
			Details: appErr.Details,
		},
		Metadata: ResponseMetadata{
			Version:   "1.0",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			RequestID: requestID,
		},
	}

	// Convert the response to JSON
	body, err := json.Marshal(response)
	if err != nil {
		// Fallback for JSON marshaling errors
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"success":false,"error":"INTERNAL_ERROR","error_description":{"message":"Failed to marshal error response"}}`,
			Headers:    DefaultHeaders(),
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: appErr.StatusCode,
		Body:       string(body),
		Headers:    DefaultHeaders(),
	}
}

// FromError converts any error into an error response
func FromError(err error, requestID string) events.APIGatewayProxyResponse {
	if appErr, ok := err.(errors.AppError); ok {
		return Error(appErr, requestID)
	}
	return Error(errors.NewInternalError("An unexpected error occurred", err), requestID)
}

// ValidationError creates a validation error response
func ValidationError(message string, requestID string) events.APIGatewayProxyResponse {
	return Error(errors.NewValidationError(message), requestID)
}

// NotFound creates a not found error response
func NotFound(message string, requestID string) events.APIGatewayProxyResponse {
	return Error(errors.NewNotFoundError(message), requestID)
}

// AuthenticationError creates an authentication error response
func AuthenticationError(message string, requestID string) events.APIGatewayProxyResponse {
	return Error(errors.NewAuthenticationError(message), requestID)
}

// AuthorizationError creates an authorization error response
func AuthorizationError(message string, requestID string) events.APIGatewayProxyResponse {
	return Error(errors.NewAuthorizationError(message), requestID)
}
