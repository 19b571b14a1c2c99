package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "gateway-shared-secret"

func signToken(t *testing.T, secret string, claims GatewayClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func gatewayClaims(scope string) GatewayClaims {
	return GatewayClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		GatewayID: "gw-007",
		Scope:     scope,
	}
}

func authRequest(token string) events.APIGatewayProxyRequest {
	req := events.APIGatewayProxyRequest{Headers: map[string]string{}}
	if token != "" {
		req.Headers["Authorization"] = "Bearer " + token
	}
	return req
}

// okHandler records whether it ran and returns 200 unconditionally.
func okHandler(called *bool, claims **GatewayClaims) APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		*called = true
		if c, ok := ctx.Value(GatewayClaimsKeyValue).(*GatewayClaims); ok {
			*claims = c
		}
		return events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, nil
	}
}

func TestAuthMiddleware_Handle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("valid token passes claims through", func(t *testing.T) {
		var called bool
		var claims *GatewayClaims
		mw := NewAuthMiddleware(testSecret, "", zap.NewNop())
		handler := mw.Handle(okHandler(&called, &claims))

		token := signToken(t, testSecret, gatewayClaims(""))
		resp, err := handler(context.Background(), logger, authRequest(token))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, called)
		require.NotNil(t, claims)
		assert.Equal(t, "gw-007", claims.GatewayID)
	})

	t.Run("missing authorization header", func(t *testing.T) {
		var called bool
		var claims *GatewayClaims
		mw := NewAuthMiddleware(testSecret, "", zap.NewNop())
		handler := mw.Handle(okHandler(&called, &claims))

		resp, err := handler(context.Background(), logger, authRequest(""))

		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.False(t, called)
	})

	t.Run("malformed authorization header", func(t *testing.T) {
		var called bool
		var claims *GatewayClaims
		mw := NewAuthMiddleware(testSecret, "", zap.NewNop())
		handler := mw.Handle(okHandler(&called, &claims))

		req := events.APIGatewayProxyRequest{Headers: map[string]string{"Authorization": "Token abc"}}
		resp, err := handler(context.Background(), logger, req)

		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.False(t, called)
	})

	t.Run("token signed with the wrong secret", func(t *testing.T) {
		var called bool
		var claims *GatewayClaims
		mw := NewAuthMiddleware(testSecret, "", zap.NewNop())
		handler := mw.Handle(okHandler(&called, &claims))

		token := signToken(t, "some-other-secret", gatewayClaims(""))
		resp, err := handler(context.Background(), logger, authRequest(token))

		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.False(t, called)
	})

	t.Run("expired token", func(t *testing.T) {
		var called bool
		var claims *GatewayClaims
		mw := NewAuthMiddleware(testSecret, "", zap.NewNop())
		handler := mw.Handle(okHandler(&called, &claims))

		expired := gatewayClaims("")
		expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		token := signToken(t, testSecret, expired)
		resp, err := handler(context.Background(), logger, authRequest(token))

		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.False(t, called)
	})

	t.Run("required scope enforced", func(t *testing.T) {
		var called bool
		var claims *GatewayClaims
		mw := NewAuthMiddleware(testSecret, "admin", zap.NewNop())
		handler := mw.Handle(okHandler(&called, &claims))

		token := signToken(t, testSecret, gatewayClaims("portal"))
		resp, err := handler(context.Background(), logger, authRequest(token))

		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.False(t, called)
	})

	t.Run("scope satisfied among several", func(t *testing.T) {
		var called bool
		var claims *GatewayClaims
		mw := NewAuthMiddleware(testSecret, "admin", zap.NewNop())
		handler := mw.Handle(okHandler(&called, &claims))

		token := signToken(t, testSecret, gatewayClaims("portal admin"))
		resp, err := handler(context.Background(), logger, authRequest(token))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, called)
	})
}
