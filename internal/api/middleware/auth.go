package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/pisonet/vendo-backend/internal/api/response"
)

// GatewayClaimsKey is the key for the gateway claims in the request context
type GatewayClaimsKey string

// GatewayClaimsKeyValue is the context key for gateway claims
const GatewayClaimsKeyValue GatewayClaimsKey = "gatewayClaims"

// GatewayClaims are the claims on a gateway bearer token. Tokens are minted
// by the captive-portal infrastructure with the shared gateway secret when a
// physical token scan opens a request; human login identity is out of scope
// here and never reaches this service.
type GatewayClaims struct {
	jwt.RegisteredClaims
	GatewayID string `json:"gatewayId"`
	Scope     string `json:"scope,omitempty"`
}

// AuthMiddleware validates gateway bearer tokens
type AuthMiddleware struct {
	secret        []byte
	requiredScope string
	log           *zap.Logger
}

// NewAuthMiddleware creates a new auth middleware. requiredScope may be
// empty for the customer-facing portal; the admin entry point passes
// "admin".
func NewAuthMiddleware(secret string, requiredScope string, log *zap.Logger) AuthMiddleware {
	return AuthMiddleware{
		secret:        []byte(secret),
		requiredScope: requiredScope,
		log:           log,
	}
}

// Handle handles the auth middleware
func (m AuthMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		// Extract the Authorization header
		authHeader := request.Headers["Authorization"]
		if authHeader == "" {
			authHeader = request.Headers["authorization"]
		}
		if authHeader == "" {
			return response.AuthenticationError("authorization header is required", request.RequestContext.RequestID), nil
		}

		token, err := extractBearerToken(authHeader)
		if err != nil {
			return response.AuthenticationError(err.Error(), request.RequestContext.RequestID), nil
		}

		claims := &GatewayClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.secret, nil
		})
		if err != nil || !parsed.Valid {
			m.log.Warn("Token validation failed", zap.Error(err))
			return response.AuthenticationError("invalid or expired token", request.RequestContext.RequestID), nil
		}

		if m.requiredScope != "" && !hasScope(claims.Scope, m.requiredScope) {
			m.log.Warn("Token missing required scope",
				zap.String("gatewayId", claims.GatewayID),
				zap.String("required", m.requiredScope))
			return response.AuthorizationError("token does not carry the required scope", request.RequestContext.RequestID), nil
		}

		// Add the claims to the context
		ctx = context.WithValue(ctx, GatewayClaimsKeyValue, claims)

		return next(ctx, logger, request)
	}
}

// extractBearerToken extracts the token from an Authorization header
func extractBearerToken(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errInvalidAuthHeader
	}
	return strings.TrimSpace(parts[1]), nil
}

var errInvalidAuthHeader = errors.New("authorization header must be a bearer token")

func hasScope(scopes, required string) bool {
	for _, s := range strings.Fields(scopes) {
		if s == required {
			return true
		}
	}
	return false
}
