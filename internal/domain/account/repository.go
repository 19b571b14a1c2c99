package account

import "context"

// Repository defines the storage interface for accounts.
//
// Every mutation goes through CompareAndSwap against the version returned by
// the matching Get. Two concurrent writers can both read version N, but only
// one conditional write at N succeeds; the loser re-reads and recomputes.
// This is what keeps a purchase from overdrawing the balance or silently
// dropping a racing top-up.
type Repository interface {
	// Create inserts a new account. Returns a conflict error if an account
	// with the same ID already exists.
	Create(ctx context.Context, acc Account) error

	// Get retrieves an account and the version to pass to CompareAndSwap
	Get(ctx context.Context, accountID string) (Account, int64, error)

	// CompareAndSwap persists acc iff the stored version still equals
	// version. Returns a concurrent-update error when it has moved on.
	CompareAndSwap(ctx context.Context, accountID string, version int64, acc Account) error
}
