package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// Window is the [start, end) epoch-millisecond interval during which access
// is granted. It is present on an account iff a session was started and has
// not been explicitly ended; whether it is still *active* is always decided
// lazily against the current time, never by a background timer.
type Window struct {
	StartMillis int64 `json:"startMillis"`
	EndMillis   int64 `json:"endMillis"`
}

// ActiveAt reports whether the window still grants access at the given time
func (w Window) ActiveAt(now time.Time) bool {
	return w.EndMillis > now.UnixMilli()
}

// RemainingAt returns the milliseconds of access left at the given time,
// floored at zero.
func (w Window) RemainingAt(now time.Time) int64 {
	remaining := w.EndMillis - now.UnixMilli()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Account is the per-customer accounting record. It is owned exclusively by
// the session and purchase services; presentation code only ever sees
// derived read-only views of it.
type Account struct {
	AccountID string `json:"accountId"`

	// Balance is the prepaid peso balance. Never negative: a purchase that
	// would overdraw is rejected before any mutation.
	Balance decimal.Decimal `json:"balance"`

	// Session is the current access window, if any. An expired window may
	// linger here until the next mutation; readers must check ActiveAt.
	Session *Window `json:"session,omitempty"`

	// SavedSeconds is time preserved from a session the customer ended
	// before expiry. Saved time never expires, but it is consumed exactly
	// once, on the next purchase that starts a session.
	SavedSeconds int64 `json:"savedSeconds"`

	// SavedDate is the vendor-local calendar date (YYYY-MM-DD) on which
	// SavedSeconds was last set. Set iff SavedSeconds > 0. Used only for
	// grace-period eligibility.
	SavedDate string `json:"savedDate,omitempty"`

	// LastGraceDate is the vendor-local calendar date on which a grace
	// bonus was last granted. At most one grant per date.
	LastGraceDate string `json:"lastGraceDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasActiveSession reports whether the account's window grants access now
func (a Account) HasActiveSession(now time.Time) bool {
	return a.Session != nil && a.Session.ActiveAt(now)
}
