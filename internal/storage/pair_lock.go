package storage

import (
	"context"

	"gorm.io/gorm"
)

// AcquirePairLock serializes relationship writes for an unordered user pair
// within the current transaction. On Postgres it takes a transaction-scoped
// advisory lock on the canonical (low, high) key; the lock is released
// automatically at commit or rollback. Without it, two transactions completing
// the same mutual pair can each miss the other's uncommitted like edge under
// READ COMMITTED and both commit with no match. sqlite holds a single writer
// lock for the whole database, so no extra lock is needed there.
func AcquirePairLock(ctx context.Context, tx *gorm.DB, userID1, userID2 uint) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	low, high := userID1, userID2
	if low > high {
		low, high = high, low
	}
	return tx.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(?, ?)", int32(low), int32(high)).Error
}
