package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/pisonet/vendo-backend/internal/api/response"
	"github.com/pisonet/vendo-backend/internal/common/clock"
	"github.com/pisonet/vendo-backend/internal/domain/account"
	"github.com/pisonet/vendo-backend/internal/domain/purchase"
	"github.com/pisonet/vendo-backend/internal/domain/session"
)

// PortalHandler handles the customer-facing portal endpoints
type PortalHandler struct {
	purchases *purchase.Service
	sessions  *session.Service
	clock     clock.Clock
}

// NewPortalHandler creates a new portal handler
func NewPortalHandler(purchases *purchase.Service, sessions *session.Service, clk clock.Clock) *PortalHandler {
	return &PortalHandler{
		purchases: purchases,
		sessions:  sessions,
		clock:     clk,
	}
}

// PurchaseRequest is the body of POST /purchase
type PurchaseRequest struct {
	AccountID      string `json:"accountId"`
	PackageMinutes int64  `json:"packageMinutes"`
}

// EndSessionRequest is the body of POST /session/end
type EndSessionRequest struct {
	AccountID string `json:"accountId"`
}

// AccountSnapshot is what the portal renders after a mutation
type AccountSnapshot struct {
	AccountID string             `json:"accountId"`
	Balance   string             `json:"balance"`
	Status    session.StatusView `json:"status"`
}

// Handle routes portal requests
func (h *PortalHandler) Handle(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestID := request.RequestContext.RequestID

	switch {
	case request.HTTPMethod == http.MethodPost && request.Path == "/purchase":
		return h.handlePurchase(ctx, requestID, request.Body)
	case request.HTTPMethod == http.MethodPost && request.Path == "/session/end":
		return h.handleEndSession(ctx, requestID, request.Body)
	case request.HTTPMethod == http.MethodGet && request.Path == "/status":
		return h.handleStatus(ctx, requestID, request.QueryStringParameters)
	case request.HTTPMethod == http.MethodGet && request.Path == "/ledger":
		return h.handleLedger(ctx, requestID, request.QueryStringParameters)
	default:
		return response.NotFound("unknown endpoint", requestID), nil
	}
}

func (h *PortalHandler) handlePurchase(ctx context.Context, requestID, body string) (events.APIGatewayProxyResponse, error) {
	var req PurchaseRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return response.ValidationError("request body must be valid JSON", requestID), nil
	}
	if req.AccountID == "" {
		return response.ValidationError("accountId is required", requestID), nil
	}
	if req.PackageMinutes <= 0 {
		return response.ValidationError("packageMinutes must be a positive integer", requestID), nil
	}

	acc, err := h.purchases.Purchase(ctx, req.AccountID, req.PackageMinutes)
	if err != nil {
		return response.FromError(err, requestID), nil
	}

	return response.Success(h.snapshot(acc), http.StatusOK, requestID), nil
}

func (h *PortalHandler) handleEndSession(ctx context.Context, requestID, body string) (events.APIGatewayProxyResponse, error) {
	var req EndSessionRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return response.ValidationError("request body must be valid JSON", requestID), nil
	}
	if req.AccountID == "" {
		return response.ValidationError("accountId is required", requestID), nil
	}

	result, err := h.sessions.EndSession(ctx, req.AccountID)
	if err != nil {
		return response.FromError(err, requestID), nil
	}

	return response.Success(map[string]interface{}{
		"savedSeconds":   result.SavedSeconds,
		"sessionSeconds": result.SessionSeconds,
	}, http.StatusOK, requestID), nil
}

func (h *PortalHandler) handleStatus(ctx context.Context, requestID string, query map[string]string) (events.APIGatewayProxyResponse, error) {
	accountID := query["accountId"]
	if accountID == "" {
		return response.ValidationError("accountId query parameter is required", requestID), nil
	}

	view, err := h.sessions.Status(ctx, accountID)
	if err != nil {
		return response.FromError(err, requestID), nil
	}

	return response.Success(view, http.StatusOK, requestID), nil
}

func (h *PortalHandler) handleLedger(ctx context.Context, requestID string, query map[string]string) (events.APIGatewayProxyResponse, error) {
	accountID := query["accountId"]
	if accountID == "" {
		return response.ValidationError("accountId query parameter is required", requestID), nil
	}

	entries, err := h.purchases.History(ctx, accountID)
	if err != nil {
		return response.FromError(err, requestID), nil
	}

	return response.Success(entries, http.StatusOK, requestID), nil
}

func (h *PortalHandler) snapshot(acc account.Account) AccountSnapshot {
	return AccountSnapshot{
		AccountID: acc.AccountID,
		Balance:   acc.Balance.StringFixed(2),
		Status:    session.NewStatusView(acc, h.clock.Now()),
	}
}
