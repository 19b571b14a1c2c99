package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/shopspring/decimal"

	"github.com/pisonet/vendo-backend/internal/api/response"
	"github.com/pisonet/vendo-backend/internal/domain/account"
	"github.com/pisonet/vendo-backend/internal/domain/purchase"
)

// AdminHandler handles the endpoints the staff tooling and the top-up
// approval workflow call. The approval itself (human review of a receipt)
// happens elsewhere; this service only applies the already-approved credit.
type AdminHandler struct {
	accounts  *account.Service
	purchases *purchase.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(accounts *account.Service, purchases *purchase.Service) *AdminHandler {
	return &AdminHandler{
		accounts:  accounts,
		purchases: purchases,
	}
}

// TopUpRequest is the body of POST /topup
type TopUpRequest struct {
	AccountID string `json:"accountId"`
	Amount    string `json:"amount"`
}

// Handle routes admin requests
func (h *AdminHandler) Handle(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestID := request.RequestContext.RequestID

	switch {
	case request.HTTPMethod == http.MethodPost && request.Path == "/accounts":
		return h.handleRegister(ctx, requestID)
	case request.HTTPMethod == http.MethodPost && request.Path == "/topup":
		return h.handleTopUp(ctx, requestID, request.Body)
	default:
		return response.NotFound("unknown endpoint", requestID), nil
	}
}

func (h *AdminHandler) handleRegister(ctx context.Context, requestID string) (events.APIGatewayProxyResponse, error) {
	acc, err := h.accounts.Register(ctx)
	if err != nil {
		return response.FromError(err, requestID), nil
	}

	return response.Success(map[string]interface{}{
		"accountId": acc.AccountID,
		"balance":   acc.Balance.StringFixed(2),
	}, http.StatusCreated, requestID), nil
}

func (h *AdminHandler) handleTopUp(ctx context.Context, requestID, body string) (events.APIGatewayProxyResponse, error) {
	var req TopUpRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return response.ValidationError("request body must be valid JSON", requestID), nil
	}
	if req.AccountID == "" {
		return response.ValidationError("accountId is required", requestID), nil
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		return response.ValidationError("amount must be a positive decimal string", requestID), nil
	}

	acc, err := h.purchases.ApplyTopUp(ctx, req.AccountID, amount)
	if err != nil {
		return response.FromError(err, requestID), nil
	}

	return response.Success(map[string]interface{}{
		"accountId": acc.AccountID,
		"balance":   acc.Balance.StringFixed(2),
	}, http.StatusOK, requestID), nil
}
