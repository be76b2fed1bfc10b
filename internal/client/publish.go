package client

import (
	"context"
	"fmt"

	"github.com/emberline/mqttpool/internal/events"
	"github.com/emberline/mqttpool/internal/pool"
)

// Publish sends one message. The acquire skips the receive-loop reserve —
// publish has no follow-up resource need, so a pool with a single
// available connection can still publish while subscribe would be refused.
// The connection is released as soon as the wire call completes.
//
// One PublishResult event is emitted synchronously before returning,
// carrying the error on failure. QoS validation happens before any pool
// interaction and emits no event.
func (c *Client) Publish(ctx context.Context, t string, payload []byte, qos byte, dup, retain bool) error {
	if qos > maxQoS {
		return fmt.Errorf("%w: QoS %d", ErrInvalidQoS, qos)
	}
	if c.isClosed() {
		return ErrClosed
	}

	err := c.publish(ctx, t, payload, qos, dup, retain)
	c.emit(events.PublishResult{
		Topic:    t,
		QoS:      qos,
		PoolName: c.pool.Name(),
		Err:      err,
	})
	return err
}

func (c *Client) publish(ctx context.Context, t string, payload []byte, qos byte, dup, retain bool) error {
	conn, err := c.pool.Acquire(ctx, false)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer c.pool.Release(conn)

	msg := pool.Message{
		Topic:    t,
		Payload:  payload,
		QoS:      qos,
		Dup:      dup,
		Retained: retain,
	}
	if err := conn.Session().Publish(ctx, msg); err != nil {
		return fmt.Errorf("publishing to %q: %w", t, err)
	}
	return nil
}
