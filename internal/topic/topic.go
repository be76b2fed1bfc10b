package topic

import "strings"

// Wire-prefix constants. These are part of the external protocol surface
// shared with the broker and must match exactly.
const (
	// QueuePrefix marks a topic as a point-to-point queue topic.
	QueuePrefix = "$queue/"

	// SharePrefix marks a topic as a shared-subscription topic.
	// Full form: $share/<group>/<topic>
	SharePrefix = "$share/"

	// Separator is the MQTT topic level separator.
	Separator = "/"
)

// Properties carries the optional MQTT v5 subscription options for a topic.
//
// The zero value equals the protocol defaults (no_local=false,
// retain_as_published=false, retain_handling=0), so callers may pass
// Properties{} when no options are needed.
type Properties struct {
	NoLocal           bool
	RetainAsPublished bool
	RetainHandling    byte
}

// ParsedTopic is the routing-relevant view of a single raw topic string.
//
// EnableQueueTopic and EnableShareTopic are mutually exclusive; the queue
// prefix takes precedence during parsing. Values are immutable after
// construction and live only for the call that produced them.
type ParsedTopic struct {
	// Topic is the topic with any routing prefix stripped.
	Topic string

	QoS               byte
	NoLocal           bool
	RetainAsPublished bool
	RetainHandling    byte

	// EnableShareTopic reports that the raw topic carried a share prefix.
	// ShareGroups then holds the group names extracted from it.
	EnableShareTopic bool
	ShareGroups      []string

	// EnableQueueTopic reports that the raw topic carried a queue prefix.
	EnableQueueTopic bool
}

// QueueTopic builds the wire form of a queue topic.
//
// Example: QueueTopic("orders") == "$queue/orders"
func QueueTopic(t string) string {
	return QueuePrefix + t
}

// ShareTopic builds the wire form of a shared-subscription topic for the
// given group.
//
// Example: ShareTopic("orders", "group-a") == "$share/group-a/orders"
func ShareTopic(t, group string) string {
	return SharePrefix + group + Separator + t
}

// Parse converts a raw wire-format topic into a ParsedTopic.
//
// Precedence:
//  1. Queue prefix: stripped, EnableQueueTopic set, remainder kept
//     verbatim — a literal "$share/..." inside the remainder is opaque.
//  2. Share prefix: stripped, the next path segment becomes the group
//     name, the rest becomes the topic.
//  3. Anything else (including wildcards and the empty string) passes
//     through unchanged with both flags false.
//
// Parse never fails. A queue or share prefix with nothing after it yields
// an empty-string topic; topic validity is the caller's concern.
func Parse(raw string, qos byte, props Properties) ParsedTopic {
	parsed := ParsedTopic{
		QoS:               qos,
		NoLocal:           props.NoLocal,
		RetainAsPublished: props.RetainAsPublished,
		RetainHandling:    props.RetainHandling,
	}

	switch {
	case strings.HasPrefix(raw, QueuePrefix):
		parsed.EnableQueueTopic = true
		parsed.Topic = strings.TrimPrefix(raw, QueuePrefix)

	case strings.HasPrefix(raw, SharePrefix):
		parsed.EnableShareTopic = true
		rest := strings.TrimPrefix(raw, SharePrefix)
		group, remainder, _ := strings.Cut(rest, Separator)
		parsed.ShareGroups = []string{group}
		parsed.Topic = remainder

	default:
		parsed.Topic = raw
	}

	return parsed
}

// SubscriptionSet builds the single-entry topic-to-properties mapping
// consumed by the wire subscribe call. Purely structural; no parsing.
func SubscriptionSet(t string, props Properties) map[string]Properties {
	return map[string]Properties{t: props}
}
