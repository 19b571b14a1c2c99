package session

import (
	"time"

	"github.com/pisonet/vendo-backend/internal/domain/account"
)

// StatusView is the read-only projection the presentation layer renders.
// It is a pure function of the stored account and the current time; there
// is no ticking countdown state anywhere.
type StatusView struct {
	HasActiveSession bool   `json:"hasActiveSession"`
	SecondsRemaining int64  `json:"secondsRemaining"`
	IsSavedTime      bool   `json:"isSavedTime"`
	Balance          string `json:"balance"`
}

// NewStatusView derives the view from an account at the given time. An
// active session takes precedence over held saved time; both stored at once
// never show together.
func NewStatusView(acc account.Account, now time.Time) StatusView {
	view := StatusView{
		Balance: acc.Balance.StringFixed(2),
	}

	if acc.HasActiveSession(now) {
		view.HasActiveSession = true
		view.SecondsRemaining = acc.Session.RemainingAt(now) / 1000
		return view
	}

	if acc.SavedSeconds > 0 {
		view.SecondsRemaining = acc.SavedSeconds
		view.IsSavedTime = true
	}

	return view
}
