package pool

import "context"

// Message is one MQTT application message crossing the transport boundary.
type Message struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Dup      bool
	Retained bool
}

// MessageHandler consumes messages delivered by a session. Handlers are
// invoked from transport goroutines and should hand off quickly.
type MessageHandler func(msg Message)

// Session is the transport-level MQTT session behind a Connection.
//
// Implementations own packet encoding, TLS, and keepalive; the pool only
// drives their lifecycle. All blocking methods honour the supplied context.
type Session interface {
	// Connect (re-)establishes the underlying broker session.
	Connect(ctx context.Context) error

	// Connected cheaply reports the transport's last known connection
	// state. It must not perform network I/O.
	Connected() bool

	// Subscribe registers the topic filters (topic -> max QoS) and routes
	// matching messages to h.
	Subscribe(ctx context.Context, filters map[string]byte, h MessageHandler) error

	// Unsubscribe removes the given topic filters.
	Unsubscribe(ctx context.Context, topics ...string) error

	// Publish sends one application message.
	Publish(ctx context.Context, msg Message) error

	// SetConnectionLostHandler registers a callback invoked when the
	// transport loses its connection unexpectedly.
	SetConnectionLostHandler(h func(err error))

	// Close tears the session down for good.
	Close() error
}

// Dialer constructs a Session for a new pooled connection. The id is the
// connection's unique identifier, useful for deriving distinct MQTT client
// IDs. Dialers must not perform network I/O; the session connects lazily
// via Connect.
type Dialer func(id string) (Session, error)
