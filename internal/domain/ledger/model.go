// Package ledger holds the immutable audit trail. Entries are created once
// by the purchase and session services and never updated or deleted.
package ledger

import (
	"time"

	ulid "github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// Kind represents the business reason for a ledger entry.
type Kind string

const (
	KindDebitPurchase Kind = "debit-purchase"
	KindCreditTopUp   Kind = "credit-topup"
	KindSessionSaved  Kind = "session-ended-time-saved"
)

// Entry is a single row in the append-only ledger.
type Entry struct {
	// EntryID is human-traceable: a class prefix plus a ULID suffix. The
	// ULID's monotonic random component keeps ids collision-free without a
	// central counter; the store additionally rejects duplicate ids on
	// insert.
	EntryID   string          `json:"entryId"`
	AccountID string          `json:"accountId"`
	Kind      Kind            `json:"kind"`
	// Amount is the peso amount moved; zero for non-monetary events such as
	// saving session time.
	Amount      decimal.Decimal `json:"amount"`
	Minutes     int64           `json:"minutes,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Package classes map the fixed {5, 10, 30, 60}-minute menu to the id
// prefixes used on purchase entries.
const (
	ClassLite   = "lite"
	ClassBasic  = "basic"
	ClassPlus   = "plus"
	ClassMax    = "max"
	ClassCustom = "custom"

	prefixTopUp     = "topup"
	prefixTimeSaved = "timesave"
)

// PackageClass returns the id prefix for a purchase of the given minutes.
// The engine accepts any positive minute count, so off-menu values fall back
// to the generic class rather than failing the purchase.
func PackageClass(minutes int64) string {
	switch minutes {
	case 5:
		return ClassLite
	case 10:
		return ClassBasic
	case 30:
		return ClassPlus
	case 60:
		return ClassMax
	default:
		return ClassCustom
	}
}

// NewEntryID generates an entry id with the given class prefix
func NewEntryID(prefix string) string {
	return prefix + "-" + ulid.Make().String()
}

// NewPurchaseID generates the id for a debit-purchase entry
func NewPurchaseID(minutes int64) string {
	return NewEntryID(PackageClass(minutes))
}

// NewTopUpID generates the id for a credit-topup entry
func NewTopUpID() string {
	return NewEntryID(prefixTopUp)
}

// NewTimeSavedID generates the id for a session-ended-time-saved entry
func NewTimeSavedID() string {
	return NewEntryID(prefixTimeSaved)
}
