package client

import (
	"context"
	"fmt"
)

// Operation names the top-level client operations reachable via Dispatch.
type Operation string

const (
	OpSubscribe   Operation = "subscribe"
	OpMultiSub    Operation = "multiSub"
	OpPublish     Operation = "publish"
	OpConnect     Operation = "connect"
	OpUnsubscribe Operation = "unsubscribe"
)

// knownOperations is the fixed set of dispatchable operation names.
var knownOperations = map[Operation]struct{}{
	OpSubscribe:   {},
	OpMultiSub:    {},
	OpPublish:     {},
	OpConnect:     {},
	OpUnsubscribe: {},
}

// Request carries the arguments of a dispatched operation. Only the fields
// relevant to the operation are read.
type Request struct {
	// Topics feeds subscribe and multiSub.
	Topics map[string]TopicOptions

	// FanOut is the number of additional connections per topic for
	// multiSub.
	FanOut int

	// Topic, Payload, QoS, Dup and Retain feed publish.
	Topic   string
	Payload []byte
	QoS     byte
	Dup     bool
	Retain  bool

	// Remove feeds unsubscribe.
	Remove []string
}

// Dispatch routes an operation by name. Names outside the known set are
// rejected with ErrUnknownMethod before any validation or pool
// interaction.
func (c *Client) Dispatch(ctx context.Context, op Operation, req Request) error {
	if _, ok := knownOperations[op]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, op)
	}

	switch op {
	case OpSubscribe:
		return c.Subscribe(ctx, req.Topics)
	case OpMultiSub:
		return c.MultiSub(ctx, req.Topics, req.FanOut)
	case OpPublish:
		return c.Publish(ctx, req.Topic, req.Payload, req.QoS, req.Dup, req.Retain)
	case OpConnect:
		return c.Connect(ctx)
	case OpUnsubscribe:
		return c.Unsubscribe(ctx, req.Remove)
	default:
		// Unreachable: the known-set check above is exhaustive.
		return fmt.Errorf("%w: %q", ErrUnknownMethod, op)
	}
}
