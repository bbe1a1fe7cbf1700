// Package lock defines per-key mutual exclusion used to serialize
// read-check-write sequences on a single stock item.
package lock

import (
	"context"
	"fmt"
)

// Release frees a held lock. It is safe to call once.
type Release func()

// Locker hands out exclusive locks keyed by an arbitrary string.
// Locks on different keys never block each other.
type Locker interface {
	// Acquire blocks until the lock for key is held or ctx is done.
	Acquire(ctx context.Context, key string) (Release, error)
}

// StockItemKey is the lock key for one stock item of one kind.
func StockItemKey(stockType string, itemID fmt.Stringer) string {
	return fmt.Sprintf("stock:%s:%s", stockType, itemID.String())
}
