// Package topic converts between raw MQTT topic strings and the structured
// routing data the rest of the runtime works with.
//
// This package understands two broker-side routing conventions that are
// encoded inside the topic path itself:
//
//   - Queue topics ("$queue/orders"): point-to-point, single-consumer
//     delivery. The broker load-balances each message to exactly one
//     subscriber of the queue.
//   - Shared subscriptions ("$share/group-a/orders"): each named group
//     receives a load-balanced subset of messages for the underlying topic.
//
// Parsing precedence is strict: a queue prefix wins unconditionally. If a
// topic begins with "$queue/", the remainder is kept verbatim even when it
// textually contains "$share/" — it is never re-parsed.
//
// Wildcards ("+", "#") are opaque to this package: they pass through
// unchanged and are neither validated nor expanded here.
//
// # Design
//
// All functions are pure: no I/O, no shared state, no synchronization.
// Parse never returns an error — malformed input degrades to an
// empty-string topic, and deciding whether that is acceptable belongs to
// the caller. ParsedTopic values are immutable after construction.
//
// # Usage
//
//	parsed := topic.Parse("$share/workers/jobs/created", 1, topic.Properties{})
//	// parsed.Topic == "jobs/created"
//	// parsed.EnableShareTopic == true
//	// parsed.ShareGroups == []string{"workers"}
package topic
