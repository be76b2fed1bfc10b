// Package pool provides a bounded, health-checked pool of MQTT broker
// connections shared across many logical subscribers and publishers.
//
// This package manages:
//   - Connection lifecycle (Idle, Active, Reconnecting, Failed)
//   - Lazy health checking with transparent reconnect on acquire
//   - A hard reservation invariant protecting receive-loop capacity
//
// # The reservation invariant
//
// An acquire made on behalf of a subscribe operation must leave at least
// one further connection available, because every successful subscription
// spawns a dedicated receive loop on its own connection. A subscription
// registered at the broker with no local consumer is silent data loss, so
// the pool refuses such an acquire (ErrPoolExhausted) unless two
// connections are available: one for the requesting operation, one
// implicitly reserved for the receive loop. Publish has no follow-up
// resource need and only requires one. This asymmetry is deliberate.
//
// # Concurrency
//
// The availability check and the grant are a single atomic step under the
// pool mutex; the mutex is never held across network I/O. A reserved
// connection is marked Active before the health check runs, so concurrent
// acquirers can never be granted the same connection.
//
// The pool never retries and never queues: acquire fails fast with
// ErrPoolExhausted, and retry or backoff policy belongs to the caller.
//
// # Usage
//
//	p, err := pool.New(pool.Config{Name: "default", MaxSize: 8}, dial, logger)
//	conn, err := p.Acquire(ctx, true) // subscribe path: reserves receive-loop capacity
//	defer p.Release(conn)
package pool
