package ledger

import "context"

// Repository defines the storage interface for ledger entries.
//
// Entries are written after the account mutation they record has committed.
// The write is at-least-once: a retried request may attempt the same entry
// id again, and the store rejects the duplicate insert.
type Repository interface {
	// Append inserts an entry. Duplicate entry ids are rejected at the
	// store level.
	Append(ctx context.Context, entry Entry) error

	// ListByAccount returns an account's entries, newest first
	ListByAccount(ctx context.Context, accountID string) ([]Entry, error)
}
