package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/emberline/mqttpool/internal/events"
	"github.com/emberline/mqttpool/internal/infrastructure/logging"
	"github.com/emberline/mqttpool/internal/pool"
)

// maxQoS is the highest QoS level the protocol defines.
const maxQoS = 2

// Client orchestrates subscribe, multiSub, publish and unsubscribe calls
// over a shared connection pool.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	clientID string
	pool     *pool.Pool
	listener events.Listener
	log      *logging.Logger

	// receivers tracks the live receive loops per raw topic string.
	mu        sync.Mutex
	receivers map[string][]*receiver
	closed    bool
}

// New creates a Client over an existing pool. The pool's lifecycle stays
// with its creator; closing the client does not shut the pool down.
//
// Parameters:
//   - clientID: identifier carried in emitted events; generated if empty
//   - p: the connection pool, required
//   - listener: consumer for lifecycle events; nil discards them
//   - log: optional logger
func New(clientID string, p *pool.Pool, listener events.Listener, log *logging.Logger) (*Client, error) {
	if p == nil {
		return nil, errors.New("client: pool is required")
	}
	if clientID == "" {
		clientID = "mqttpool-" + uuid.NewString()[:8]
	}
	if listener == nil {
		listener = events.ListenerFunc(func(events.Event) {})
	}
	if log == nil {
		log = logging.Default()
	}

	return &Client{
		clientID:  clientID,
		pool:      p,
		listener:  listener,
		log:       log.With("component", "client", "client_id", clientID),
		receivers: make(map[string][]*receiver),
	}, nil
}

// ClientID returns the identifier carried in emitted events.
func (c *Client) ClientID() string { return c.clientID }

// Connect verifies broker reachability by cycling one connection through
// the pool: acquire without the receive-loop reserve, then release.
func (c *Client) Connect(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}

	conn, err := c.pool.Acquire(ctx, false)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	c.pool.Release(conn)
	return nil
}

// Unsubscribe cancels the receive loops bound to the given topics, issues
// the wire unsubscribe and returns the connections to the pool.
//
// Topics without an active subscription are skipped. Wire errors are
// collected; the loops are torn down and connections released regardless,
// so no Active connection is left ownerless.
func (c *Client) Unsubscribe(ctx context.Context, topics []string) error {
	if len(topics) == 0 {
		return fmt.Errorf("%w: no topics given", ErrInvalidTopicConfig)
	}
	if c.isClosed() {
		return ErrClosed
	}

	var errs []error
	for _, raw := range topics {
		c.mu.Lock()
		rs := c.receivers[raw]
		delete(c.receivers, raw)
		c.mu.Unlock()

		if len(rs) == 0 {
			c.log.Debug("unsubscribe for topic with no active subscription", "topic", raw)
			continue
		}

		for _, r := range rs {
			r.stop()
			if err := r.conn.Session().Unsubscribe(ctx, raw); err != nil {
				errs = append(errs, fmt.Errorf("unsubscribing %q: %w", raw, err))
			}
			c.pool.Release(r.conn)
		}
		c.log.Debug("unsubscribed", "topic", raw, "receive_loops", len(rs))
	}

	return errors.Join(errs...)
}

// Close stops every receive loop, wire-unsubscribes their topics and
// returns all connections to the pool. The pool itself stays open.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	all := c.receivers
	c.receivers = nil
	c.mu.Unlock()

	var errs []error
	for raw, rs := range all {
		for _, r := range rs {
			r.stop()
			if err := r.conn.Session().Unsubscribe(ctx, raw); err != nil {
				errs = append(errs, fmt.Errorf("unsubscribing %q: %w", raw, err))
			}
			c.pool.Release(r.conn)
		}
	}

	c.log.Debug("client closed")
	return errors.Join(errs...)
}

// emit delivers one lifecycle event, synchronously.
func (c *Client) emit(e events.Event) {
	c.listener.HandleEvent(e)
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
