package pool

import "errors"

// Domain-specific errors for pool operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrPoolExhausted is returned when no connection can be granted
	// without violating the pool's capacity or reservation invariants.
	// Recoverable by the caller via backoff and retry; the pool itself
	// never retries.
	ErrPoolExhausted = errors.New("pool: exhausted")

	// ErrReconnectFailed is returned when a stale connection could not be
	// re-established during acquire. Fatal for that acquire attempt only;
	// other connections remain usable.
	ErrReconnectFailed = errors.New("pool: reconnect failed")

	// ErrPoolClosed is returned when acquiring from a pool that has been
	// shut down.
	ErrPoolClosed = errors.New("pool: closed")
)
