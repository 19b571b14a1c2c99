package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pisonet/vendo-backend/internal/domain/account"
	"github.com/pisonet/vendo-backend/internal/domain/errors"
)

var manila = mustLoadLocation("Asia/Manila")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func testEngine() *Engine {
	return NewEngine(300, manila)
}

// noonUTC is an arbitrary fixed instant all engine tests derive from
var noonUTC = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func activeAccount(now time.Time, remainingSeconds int64) account.Account {
	return account.Account{
		AccountID: "acc-1",
		Session: &account.Window{
			StartMillis: now.Add(-1 * time.Minute).UnixMilli(),
			EndMillis:   now.UnixMilli() + remainingSeconds*1000,
		},
	}
}

func TestEngine_GrantSeconds(t *testing.T) {
	engine := testEngine()

	t.Run("active session grants purchased seconds only", func(t *testing.T) {
		acc := activeAccount(noonUTC, 120)
		acc.SavedSeconds = 200
		acc.SavedDate = "2025-06-01"

		granted, updated := engine.GrantSeconds(acc, 300, noonUTC)

		assert.Equal(t, int64(300), granted)
		// saved time stays held for a later reactivation
		assert.Equal(t, int64(200), updated.SavedSeconds)
		assert.Equal(t, "2025-06-01", updated.SavedDate)
		assert.Empty(t, updated.LastGraceDate)
	})

	t.Run("no session and no saved time grants purchased seconds", func(t *testing.T) {
		granted, updated := engine.GrantSeconds(account.Account{AccountID: "acc-1"}, 600, noonUTC)

		assert.Equal(t, int64(600), granted)
		assert.Empty(t, updated.LastGraceDate)
	})

	t.Run("saved time folds in with grace on a new day", func(t *testing.T) {
		acc := account.Account{
			AccountID:    "acc-1",
			SavedSeconds: 200,
			SavedDate:    "2025-06-01",
		}

		granted, updated := engine.GrantSeconds(acc, 300, noonUTC)

		assert.Equal(t, int64(300+200+300), granted)
		assert.Zero(t, updated.SavedSeconds)
		assert.Empty(t, updated.SavedDate)
		assert.Equal(t, "2025-06-02", updated.LastGraceDate)
	})

	t.Run("grace is granted at most once per calendar date", func(t *testing.T) {
		acc := account.Account{
			AccountID:     "acc-1",
			SavedSeconds:  200,
			SavedDate:     "2025-06-02",
			LastGraceDate: "2025-06-02",
		}

		granted, updated := engine.GrantSeconds(acc, 300, noonUTC)

		assert.Equal(t, int64(500), granted)
		assert.Zero(t, updated.SavedSeconds)
		assert.Equal(t, "2025-06-02", updated.LastGraceDate)
	})

	t.Run("expired window counts as no session", func(t *testing.T) {
		acc := account.Account{
			AccountID: "acc-1",
			Session: &account.Window{
				StartMillis: noonUTC.Add(-10 * time.Minute).UnixMilli(),
				EndMillis:   noonUTC.Add(-1 * time.Minute).UnixMilli(),
			},
			SavedSeconds: 100,
			SavedDate:    "2025-06-01",
		}

		granted, updated := engine.GrantSeconds(acc, 300, noonUTC)

		// purchased + saved + grace; the expired window does not block folding
		assert.Equal(t, int64(700), granted)
		assert.Zero(t, updated.SavedSeconds)
	})

	t.Run("calendar date is vendor-local", func(t *testing.T) {
		// 17:00 UTC on June 2 is already June 3 in Manila (UTC+8)
		evening := time.Date(2025, 6, 2, 17, 0, 0, 0, time.UTC)
		acc := account.Account{
			AccountID:     "acc-1",
			SavedSeconds:  100,
			SavedDate:     "2025-06-02",
			LastGraceDate: "2025-06-02",
		}

		granted, updated := engine.GrantSeconds(acc, 300, evening)

		assert.Equal(t, int64(300+100+300), granted)
		assert.Equal(t, "2025-06-03", updated.LastGraceDate)
	})
}

func TestEngine_StartOrExtend(t *testing.T) {
	engine := testEngine()

	t.Run("no session opens a fresh window at now", func(t *testing.T) {
		window := engine.StartOrExtend(account.Account{AccountID: "acc-1"}, 600, noonUTC)

		assert.Equal(t, noonUTC.UnixMilli(), window.StartMillis)
		assert.Equal(t, noonUTC.UnixMilli()+600_000, window.EndMillis)
	})

	t.Run("active session keeps start and extends end", func(t *testing.T) {
		acc := account.Account{
			AccountID: "acc-1",
			Session: &account.Window{
				StartMillis: noonUTC.UnixMilli(),
				EndMillis:   noonUTC.UnixMilli() + 600_000,
			},
		}

		window := engine.StartOrExtend(acc, 300, noonUTC)

		// end = existing end + granted, not now + granted
		assert.Equal(t, noonUTC.UnixMilli(), window.StartMillis)
		assert.Equal(t, noonUTC.UnixMilli()+900_000, window.EndMillis)
	})
}

func TestEngine_End(t *testing.T) {
	engine := testEngine()

	t.Run("no window", func(t *testing.T) {
		_, _, err := engine.End(account.Account{AccountID: "acc-1"}, noonUTC)
		assert.ErrorIs(t, err, errors.NewNoActiveSessionError())
	})

	t.Run("passively expired window forfeits time", func(t *testing.T) {
		acc := account.Account{
			AccountID: "acc-1",
			Session: &account.Window{
				StartMillis: noonUTC.Add(-10 * time.Minute).UnixMilli(),
				EndMillis:   noonUTC.Add(-1 * time.Second).UnixMilli(),
			},
		}

		updated, _, err := engine.End(acc, noonUTC)

		assert.ErrorIs(t, err, errors.NewNoActiveSessionError())
		assert.Zero(t, updated.SavedSeconds)
	})

	t.Run("saves floored remaining seconds dated today", func(t *testing.T) {
		start := noonUTC.Add(-100 * time.Second)
		acc := account.Account{
			AccountID: "acc-1",
			Session: &account.Window{
				StartMillis: start.UnixMilli(),
				EndMillis:   start.UnixMilli() + 300_000,
			},
		}

		updated, result, err := engine.End(acc, noonUTC)
		require.NoError(t, err)

		assert.Equal(t, int64(200), result.SavedSeconds)
		assert.Equal(t, int64(100), result.SessionSeconds)
		assert.Nil(t, updated.Session)
		assert.Equal(t, int64(200), updated.SavedSeconds)
		assert.Equal(t, "2025-06-02", updated.SavedDate)
	})

	t.Run("sub-second remainder has nothing to save", func(t *testing.T) {
		acc := account.Account{
			AccountID: "acc-1",
			Session: &account.Window{
				StartMillis: noonUTC.Add(-5 * time.Minute).UnixMilli(),
				EndMillis:   noonUTC.UnixMilli() + 500,
			},
		}

		_, _, err := engine.End(acc, noonUTC)
		assert.ErrorIs(t, err, errors.NewNothingToSaveError())
	})

	t.Run("second end is NoActiveSession, not a double save", func(t *testing.T) {
		acc := activeAccount(noonUTC, 200)

		updated, first, err := engine.End(acc, noonUTC)
		require.NoError(t, err)

		again, _, err := engine.End(updated, noonUTC)
		assert.ErrorIs(t, err, errors.NewNoActiveSessionError())
		assert.Equal(t, first.SavedSeconds, again.SavedSeconds)
	})
}

func TestNewStatusView(t *testing.T) {
	t.Run("active session takes precedence", func(t *testing.T) {
		acc := activeAccount(noonUTC, 180)
		acc.SavedSeconds = 50

		view := NewStatusView(acc, noonUTC)

		assert.True(t, view.HasActiveSession)
		assert.False(t, view.IsSavedTime)
		assert.Equal(t, int64(180), view.SecondsRemaining)
	})

	t.Run("saved time shown when no session", func(t *testing.T) {
		acc := account.Account{AccountID: "acc-1", SavedSeconds: 200}

		view := NewStatusView(acc, noonUTC)

		assert.False(t, view.HasActiveSession)
		assert.True(t, view.IsSavedTime)
		assert.Equal(t, int64(200), view.SecondsRemaining)
	})

	t.Run("expired window shows saved time", func(t *testing.T) {
		acc := account.Account{
			AccountID: "acc-1",
			Session: &account.Window{
				StartMillis: noonUTC.Add(-2 * time.Hour).UnixMilli(),
				EndMillis:   noonUTC.Add(-1 * time.Hour).UnixMilli(),
			},
			SavedSeconds: 75,
		}

		view := NewStatusView(acc, noonUTC)

		assert.False(t, view.HasActiveSession)
		assert.True(t, view.IsSavedTime)
		assert.Equal(t, int64(75), view.SecondsRemaining)
	})

	t.Run("nothing held", func(t *testing.T) {
		view := NewStatusView(account.Account{AccountID: "acc-1"}, noonUTC)

		assert.False(t, view.HasActiveSession)
		assert.False(t, view.IsSavedTime)
		assert.Zero(t, view.SecondsRemaining)
	})
}
