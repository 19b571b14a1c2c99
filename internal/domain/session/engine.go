// Package session owns the session-window state machine: starting and
// extending access windows, saving remaining time on an explicit end, and
// the once-per-day grace bonus applied when saved time is reactivated.
package session

import (
	"time"

	"github.com/pisonet/vendo-backend/internal/common/clock"
	"github.com/pisonet/vendo-backend/internal/domain/account"
	"github.com/pisonet/vendo-backend/internal/domain/errors"
)

// Engine implements the state machine as pure computation over account
// values. It performs no I/O; callers persist the returned account state
// under the repository's compare-and-swap discipline.
type Engine struct {
	graceSeconds int64
	loc          *time.Location
}

// NewEngine creates a session engine with the given grace allowance and the
// vendor-local timezone used for calendar-date bookkeeping.
func NewEngine(graceSeconds int64, loc *time.Location) *Engine {
	return &Engine{
		graceSeconds: graceSeconds,
		loc:          loc,
	}
}

// GrantSeconds computes the total seconds a purchase grants and returns the
// account with its carryover fields consumed.
//
// While a session is active the purchase buys exactly its own seconds; saved
// time and grace stay untouched for a later reactivation. Otherwise the
// purchase folds in any saved time (consumed exactly once) and, when saved
// time is being reactivated on a calendar date that has not yet seen a grace
// grant, adds the grace bonus and marks the date.
func (e *Engine) GrantSeconds(acc account.Account, purchasedSeconds int64, now time.Time) (int64, account.Account) {
	if acc.HasActiveSession(now) {
		return purchasedSeconds, acc
	}

	granted := purchasedSeconds + acc.SavedSeconds

	today := clock.LocalDate(now, e.loc)
	if acc.SavedSeconds > 0 && acc.LastGraceDate != today {
		granted += e.graceSeconds
		acc.LastGraceDate = today
	}

	// Saved time is consumed exactly once
	acc.SavedSeconds = 0
	acc.SavedDate = ""

	return granted, acc
}

// StartOrExtend returns the window after granting the given seconds: an
// active window keeps its start and gets a later end, otherwise a fresh
// window opens at now.
func (e *Engine) StartOrExtend(acc account.Account, grantedSeconds int64, now time.Time) account.Window {
	if acc.HasActiveSession(now) {
		return account.Window{
			StartMillis: acc.Session.StartMillis,
			EndMillis:   acc.Session.EndMillis + grantedSeconds*1000,
		}
	}

	nowMillis := now.UnixMilli()
	return account.Window{
		StartMillis: nowMillis,
		EndMillis:   nowMillis + grantedSeconds*1000,
	}
}

// EndResult reports what an explicit end-session preserved.
type EndResult struct {
	// SavedSeconds is the floored remaining time carried to the account
	SavedSeconds int64
	// SessionSeconds is how long the session ran, for the ledger record
	SessionSeconds int64
}

// End performs the explicit, customer-initiated end of a session: the
// window is cleared and its floored remaining seconds become saved time
// dated today.
//
// A window that expired on its own never reaches this path as anything but
// NoActiveSession: passively expired time is forfeited, not saved. The
// operation is idempotent against replay: a second call observes the cleared
// window and returns NoActiveSession rather than double-saving.
func (e *Engine) End(acc account.Account, now time.Time) (account.Account, EndResult, error) {
	if acc.Session == nil || !acc.Session.ActiveAt(now) {
		return acc, EndResult{}, errors.NewNoActiveSessionError()
	}

	savedSeconds := acc.Session.RemainingAt(now) / 1000
	if savedSeconds == 0 {
		return acc, EndResult{}, errors.NewNothingToSaveError()
	}

	result := EndResult{
		SavedSeconds:   savedSeconds,
		SessionSeconds: (now.UnixMilli() - acc.Session.StartMillis) / 1000,
	}

	acc.Session = nil
	acc.SavedSeconds = savedSeconds
	acc.SavedDate = clock.LocalDate(now, e.loc)

	return acc, result, nil
}
