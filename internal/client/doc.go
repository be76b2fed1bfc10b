// Package client orchestrates MQTT operations over a shared connection
// pool.
//
// The client is the only component that combines topic parsing with pool
// acquisition and the transport-level wire calls. Per operation it:
//
//  1. Validates inputs (QoS, topic configuration) before touching the pool
//  2. Parses each topic to classify it as plain, queue ("$queue/...") or
//     shared ("$share/<group>/...")
//  3. Acquires connections — with the receive-loop reservation for
//     subscribe paths, without it for publish
//  4. Issues the wire call and, for subscriptions, binds a dedicated
//     receive loop to each connection
//  5. Emits exactly one typed lifecycle event, synchronously, before
//     returning
//
// # Failure behaviour
//
// A failed subscribe or multiSub leaves the pool exactly as it was before
// the call: all connections the call needs are acquired up front, and on
// any failure everything already acquired is rolled back. There is no
// internal retry; pool exhaustion surfaces immediately as
// pool.ErrPoolExhausted for the caller to back off on.
//
// Validation errors (ErrInvalidQoS, ErrInvalidTopicConfig,
// ErrUnknownMethod) are returned before any side effect and produce no
// event; operations that reached the pool or the wire always emit their
// result event, carrying the error when they failed.
//
// # Ordering
//
// Message order within a single connection is preserved exactly as
// received. Across the connections of a multiSub fan-out there is no
// ordering guarantee.
package client
