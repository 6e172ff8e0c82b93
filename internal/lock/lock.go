// Package lock provides the short-TTL mutual-exclusion primitive that
// serializes concurrent purchase attempts on the same seat across
// process boundaries. A lock entry is never the source of truth for
// ownership – the ticket row is – it only keeps competing requests out
// of the critical section while the persistent transition happens. The
// TTL bounds how long a crashed holder can block others; release is
// still attempted on every exit path so that locks do not normally
// outlive their request.
package lock

import (
	"context"
	"fmt"
	"time"
)

// Coordinator is the contract the booking engine locks seats with.
//
// Acquire atomically creates the key with the given expiry only if it
// is absent and reports whether this call created it. It must be
// atomic across every service instance, and must fail closed: when the
// underlying store is unreachable, the seat counts as not acquired.
//
// Release deletes the key unconditionally. It is idempotent –
// releasing an expired or already-released key is not an error.
type Coordinator interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// SeatKey builds the lock key for an (event, seat) pair. Both sides of
// a contended purchase must derive the identical key, so the format is
// fixed here and nowhere else.
func SeatKey(eventID, seatID uint64) string {
	return fmt.Sprintf("lock:event:%d:seat:%d", eventID, seatID)
}
