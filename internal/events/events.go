package events

// Event is a lifecycle event emitted by the runtime.
type Event interface {
	// Name returns a stable identifier for the event type, suitable for
	// logging and metric tagging.
	Name() string
}

// SubscribeResult reports the outcome of a subscribe or multiSub call.
type SubscribeResult struct {
	// Topics are the raw topic strings of the call, prefixes included.
	Topics   []string
	ClientID string
	PoolName string

	// Err is nil on success, or the error the call returned.
	Err error
}

func (SubscribeResult) Name() string { return "subscribe_result" }

// PublishResult reports the outcome of a publish call.
type PublishResult struct {
	Topic    string
	QoS      byte
	PoolName string
	Err      error
}

func (PublishResult) Name() string { return "publish_result" }

// ReceiveNotification reports a single message delivered by a receive loop.
type ReceiveNotification struct {
	Topic    string
	Message  []byte
	QoS      byte
	Dup      bool
	Retain   bool
	PoolName string
}

func (ReceiveNotification) Name() string { return "receive_notification" }

// DisconnectNotification reports a transport-level connection loss.
type DisconnectNotification struct {
	// Type distinguishes how the disconnect was observed,
	// e.g. "connection_lost".
	Type string

	// Code is the broker's disconnect reason code when the transport
	// surfaces one. MQTT 3.1.1 transports have no reason codes, so it
	// stays zero there.
	Code     int
	PoolName string
}

func (DisconnectNotification) Name() string { return "disconnect_notification" }
