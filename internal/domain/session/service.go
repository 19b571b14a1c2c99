package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/pisonet/vendo-backend/internal/common/clock"
	"github.com/pisonet/vendo-backend/internal/domain/account"
	"github.com/pisonet/vendo-backend/internal/domain/errors"
	"github.com/pisonet/vendo-backend/internal/domain/ledger"
)

// ledgerAppendAttempts bounds the at-least-once emission retry after the
// account mutation has committed.
const ledgerAppendAttempts = 3

// Service orchestrates session operations against the stores
type Service struct {
	accounts   account.Repository
	ledger     ledger.Repository
	engine     *Engine
	clock      clock.Clock
	maxRetries int
	logger     *slog.Logger
}

// NewService creates a new session service
func NewService(accounts account.Repository, ledgerRepo ledger.Repository, engine *Engine, clk clock.Clock, maxRetries int, logger *slog.Logger) *Service {
	return &Service{
		accounts:   accounts,
		ledger:     ledgerRepo,
		engine:     engine,
		clock:      clk,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// EndSession explicitly ends the account's active session and saves the
// remaining time. The read-compute-write step is retried on concurrent
// update conflicts; each retry re-reads the account, so a replay that races
// the first request settles as NoActiveSession instead of double-saving.
func (s *Service) EndSession(ctx context.Context, accountID string) (EndResult, error) {
	var lastErr error

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		acc, version, err := s.accounts.Get(ctx, accountID)
		if err != nil {
			return EndResult{}, err
		}

		now := s.clock.Now()
		updated, result, err := s.engine.End(acc, now)
		if err != nil {
			return EndResult{}, err
		}
		updated.UpdatedAt = now

		err = s.accounts.CompareAndSwap(ctx, accountID, version, updated)
		if err == nil {
			s.emitTimeSaved(ctx, accountID, result)
			return result, nil
		}
		if !stderrors.Is(err, errors.NewConcurrentUpdateError()) {
			return EndResult{}, err
		}
		lastErr = err
	}

	return EndResult{}, lastErr
}

// emitTimeSaved records the session-ended-time-saved ledger entry. The
// account mutation is already committed at this point, so a failing append
// is retried in place and logged rather than surfaced as an operation
// failure.
func (s *Service) emitTimeSaved(ctx context.Context, accountID string, result EndResult) {
	entry := ledger.Entry{
		EntryID:   ledger.NewTimeSavedID(),
		AccountID: accountID,
		Kind:      ledger.KindSessionSaved,
		Amount:    decimal.Zero,
		Description: fmt.Sprintf("ended session after %ds, saved %ds",
			result.SessionSeconds, result.SavedSeconds),
		CreatedAt: s.clock.Now(),
	}

	var err error
	for attempt := 0; attempt < ledgerAppendAttempts; attempt++ {
		if err = s.ledger.Append(ctx, entry); err == nil {
			return
		}
	}
	s.logger.Error("ledger append failed after committed session end",
		"accountId", accountID, "entryId", entry.EntryID, "error", err)
}

// Status derives the read-only presentation view for an account
func (s *Service) Status(ctx context.Context, accountID string) (StatusView, error) {
	acc, _, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return StatusView{}, err
	}
	return NewStatusView(acc, s.clock.Now()), nil
}
