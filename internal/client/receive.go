package client

import (
	"context"

	"github.com/emberline/mqttpool/internal/events"
	"github.com/emberline/mqttpool/internal/pool"
)

// receiveBufferSize bounds the handoff channel between the transport
// callback and the receive loop. The callback blocks when it fills, which
// preserves per-connection delivery order instead of dropping.
const receiveBufferSize = 64

// receiver is one receive loop: a long-lived task bound to exactly one
// connection for the life of a subscription.
type receiver struct {
	topic  string
	conn   *pool.Connection
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	msgs   chan pool.Message
}

func newReceiver(conn *pool.Connection, rawTopic string) *receiver {
	ctx, cancel := context.WithCancel(context.Background())
	return &receiver{
		topic:  rawTopic,
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		msgs:   make(chan pool.Message, receiveBufferSize),
	}
}

// enqueue is the transport-side message handler. It never drops: when the
// buffer is full it blocks the transport goroutine until the loop catches
// up or the receiver is cancelled.
func (r *receiver) enqueue(msg pool.Message) {
	select {
	case r.msgs <- msg:
	case <-r.ctx.Done():
	}
}

// stop cancels the loop and waits for it to exit. Only call on receivers
// whose loop has been started.
func (r *receiver) stop() {
	r.cancel()
	<-r.done
}

// runReceiver drains the receiver's channel until cancelled, emitting one
// ReceiveNotification per message. Runs as a dedicated goroutine.
func (c *Client) runReceiver(r *receiver) {
	defer close(r.done)
	for {
		select {
		case <-r.ctx.Done():
			return
		case msg := <-r.msgs:
			c.emit(events.ReceiveNotification{
				Topic:    msg.Topic,
				Message:  msg.Payload,
				QoS:      msg.QoS,
				Dup:      msg.Dup,
				Retain:   msg.Retained,
				PoolName: c.pool.Name(),
			})
		}
	}
}

// connectionLost emits a DisconnectNotification for an unexpected
// transport-level connection loss.
func (c *Client) connectionLost(err error) {
	c.log.Warn("connection lost", "error", err)
	c.emit(events.DisconnectNotification{
		Type:     "connection_lost",
		PoolName: c.pool.Name(),
	})
}
