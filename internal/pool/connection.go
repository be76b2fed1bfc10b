package pool

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// State is the lifecycle state of a pooled connection.
type State int

const (
	// StateIdle: in the pool, available for acquire.
	StateIdle State = iota

	// StateActive: owned by exactly one caller until released.
	StateActive

	// StateReconnecting: failed its health check, re-establishing the
	// transport session.
	StateReconnecting

	// StateFailed: reconnect failed; the pool discards the connection.
	StateFailed
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Connection is one live broker session managed by the pool.
//
// State transitions are serialized by the connection's own mutex; the pool
// performs the acquire-time transition to Active under its mutex so the
// grant is atomic relative to concurrent acquirers.
type Connection struct {
	id      string
	host    string
	port    int
	session Session
	maxIdle time.Duration

	mu      sync.Mutex
	state   State
	lastUse time.Time
}

func newConnection(id, host string, port int, session Session, maxIdle time.Duration) *Connection {
	return &Connection{
		id:      id,
		host:    host,
		port:    port,
		session: session,
		maxIdle: maxIdle,
	}
}

// ID returns the connection's unique identifier.
func (c *Connection) ID() string { return c.id }

// Session returns the transport session bound to this connection. Callers
// may use it only while they own the connection (between acquire and
// release).
func (c *Connection) Session() Session { return c.session }

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastUse returns the time of the most recent use.
func (c *Connection) LastUse() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUse
}

// Check is the cheap liveness predicate: the connection was used recently
// enough and the transport still reports itself connected. No network I/O.
func (c *Connection) Check() bool {
	c.mu.Lock()
	last := c.lastUse
	c.mu.Unlock()

	return time.Since(last) < c.maxIdle && c.session.Connected()
}

// Reconnect re-establishes the transport session. On success the
// connection's last-use time is refreshed and it becomes Active; on
// failure it becomes Failed and the error wraps ErrReconnectFailed.
func (c *Connection) Reconnect(ctx context.Context) error {
	c.setState(StateReconnecting)

	if err := c.session.Connect(ctx); err != nil {
		c.setState(StateFailed)
		return fmt.Errorf("%w: connection %s: %w", ErrReconnectFailed, c.id, err)
	}

	c.mu.Lock()
	c.state = StateActive
	c.lastUse = time.Now()
	c.mu.Unlock()

	return nil
}

// activate is the get-active-connection step, invoked exactly once per
// acquire. The hot path returns immediately when Check passes; otherwise
// exactly one reconnect attempt is made. The pool has already marked the
// connection Active, so no other caller can reach it here.
func (c *Connection) activate(ctx context.Context) error {
	if c.Check() {
		c.touch()
		return nil
	}
	return c.Reconnect(ctx)
}

// touch refreshes the last-use timestamp.
func (c *Connection) touch() {
	c.mu.Lock()
	c.lastUse = time.Now()
	c.mu.Unlock()
}

// markActive reserves the connection for a single caller.
func (c *Connection) markActive() {
	c.setState(StateActive)
}

// release returns the connection to Idle and refreshes its last-use time.
func (c *Connection) release() {
	c.mu.Lock()
	c.state = StateIdle
	c.lastUse = time.Now()
	c.mu.Unlock()
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
