package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pisonet/vendo-backend/internal/common/clock"
)

// Service provides account lifecycle operations
type Service struct {
	repo  Repository
	clock clock.Clock
}

// NewService creates a new account service
func NewService(repo Repository, clk clock.Clock) *Service {
	return &Service{
		repo:  repo,
		clock: clk,
	}
}

// Register creates the account record at customer registration: zero
// balance, no session, no saved time. The account persists indefinitely.
func (s *Service) Register(ctx context.Context) (Account, error) {
	now := s.clock.Now()
	acc := Account{
		AccountID: uuid.New().String(),
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, acc); err != nil {
		return Account{}, err
	}
	return acc, nil
}

// Get retrieves an account by ID
func (s *Service) Get(ctx context.Context, accountID string) (Account, error) {
	acc, _, err := s.repo.Get(ctx, accountID)
	return acc, err
}
