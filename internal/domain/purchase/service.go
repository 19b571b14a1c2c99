// Package purchase converts peso balance into session time and applies
// approved top-ups. Both paths share the account store's compare-and-swap
// discipline because they race each other on the same account.
package purchase

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
	"github.com/pisonet/vendo-backend/internal/domain/session"
)

// ledgerAppendAttempts bounds the at-least-once emission retry after the
// account mutation has committed.
const ledgerAppendAttempts = 3

// Service validates and executes time-package purchases and top-ups.
//
// Retried client requests are not deduplicated: a purchase retransmitted
// after a timeout may apply twice. The CAS discipline guarantees each
// application is internally consistent; strict duplicate suppression would
// need a client-supplied request nonce, which the portal does not send.
type Service struct {
	accounts      account.Repository
	ledger        ledger.Repository
	engine        *session.Engine
	clock         clock.Clock
	ratePerMinute decimal.Decimal
	maxRetries    int
	logger        *slog.Logger
}

// NewService creates a new purchase service
func NewService(accounts account.Repository, ledgerRepo ledger.Repository, engine *session.Engine, clk clock.Clock, ratePerMinute decimal.Decimal, maxRetries int, logger *slog.Logger) *Service {
	return &Service{
		accounts:      accounts,
		ledger:        ledgerRepo,
		engine:        engine,
		clock:         clk,
		ratePerMinute: ratePerMinute,
		maxRetries:    maxRetries,
		logger:        logger,
	}
}

// Purchase buys packageMinutes of access time. The menu is {5, 10, 30, 60}
// but any positive minute count is accepted; only the ledger-id class
// mapping knows the menu.
//
// On success the debit, the new session window and the consumed carryover
// fields land in a single conditional write, and the updated snapshot is
// returned for the caller to render total time now available.
func (s *Service) Purchase(ctx context.Context, accountID string, packageMinutes int64) (account.Account, error) {
	if packageMinutes <= 0 {
		return account.Account{}, errors.NewValidationError("package minutes must be a positive integer")
	}

	cost := s.ratePerMinute.Mul(decimal.NewFromInt(packageMinutes))

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		acc, version, err := s.accounts.Get(ctx, accountID)
		if err != nil {
			return account.Account{}, err
		}

		// Affordability is checked against the freshly read balance on
		// every attempt; rejection happens before any mutation.
		if acc.Balance.LessThan(cost) {
			return account.Account{}, errors.NewInsufficientBalanceError(cost, acc.Balance)
		}

		now := s.clock.Now()
		granted, updated := s.engine.GrantSeconds(acc, packageMinutes*60, now)
		window := s.engine.StartOrExtend(acc, granted, now)

		updated.Balance = acc.Balance.Sub(cost)
		updated.Session = &window
		updated.UpdatedAt = now

		err = s.accounts.CompareAndSwap(ctx, accountID, version, updated)
		if err == nil {
			s.emit(ctx, ledger.Entry{
				EntryID:   ledger.NewPurchaseID(packageMinutes),
				AccountID: accountID,
				Kind:      ledger.KindDebitPurchase,
				Amount:    cost,
				Minutes:   packageMinutes,
				Description: fmt.Sprintf("purchased %d minutes at %s/min, granted %ds",
					packageMinutes, s.ratePerMinute.StringFixed(2), granted),
				CreatedAt: now,
			})
			return updated, nil
		}
		if !stderrors.Is(err, errors.NewConcurrentUpdateError()) {
			return account.Account{}, err
		}
		lastErr = err
	}

	return account.Account{}, lastErr
}

// ApplyTopUp credits an already-approved top-up amount to the balance. It is
// invoked by the external approval workflow, not by customers, but still
// goes through CAS because it races concurrent purchases on the same
// account. No session effect.
func (s *Service) ApplyTopUp(ctx context.Context, accountID string, amount decimal.Decimal) (account.Account, error) {
	if amount.Sign() <= 0 {
		return account.Account{}, errors.NewValidationError("top-up amount must be positive")
	}

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		acc, version, err := s.accounts.Get(ctx, accountID)
		if err != nil {
			return account.Account{}, err
		}

		now := s.clock.Now()
		acc.Balance = acc.Balance.Add(amount)
		acc.UpdatedAt = now

		err = s.accounts.CompareAndSwap(ctx, accountID, version, acc)
		if err == nil {
			s.emit(ctx, ledger.Entry{
				EntryID:     ledger.NewTopUpID(),
				AccountID:   accountID,
				Kind:        ledger.KindCreditTopUp,
				Amount:      amount,
				Description: fmt.Sprintf("approved top-up of %s", amount.StringFixed(2)),
				CreatedAt:   now,
			})
			return acc, nil
		}
		if !stderrors.Is(err, errors.NewConcurrentUpdateError()) {
			return account.Account{}, err
		}
		lastErr = err
	}

	return account.Account{}, lastErr
}

// History returns the account's ledger entries, newest first. Read path
// only; presentation renders these as the customer-facing history.
func (s *Service) History(ctx context.Context, accountID string) ([]ledger.Entry, error) {
	return s.ledger.ListByAccount(ctx, accountID)
}

// emit records a committed mutation in the ledger. Emission is at-least-once
// and never skipped: a failing append is retried in place and logged, since
// the account write it records has already committed.
func (s *Service) emit(ctx context.Context, entry ledger.Entry) {
	var err error
	for attempt := 0; attempt < ledgerAppendAttempts; attempt++ {
		if err = s.ledger.Append(ctx, entry); err == nil {
			return
		}
	}
	s.logger.Error("ledger append failed after committed account mutation",
		"accountId", entry.AccountID, "entryId", entry.EntryID, "error", err)
}
