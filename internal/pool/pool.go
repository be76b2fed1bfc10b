package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emberline/mqttpool/internal/infrastructure/logging"
)

// Config contains pool sizing and liveness settings.
type Config struct {
	// Name identifies the pool in logs, events and metrics.
	Name string

	// MaxSize is the hard upper bound on pooled connections.
	MaxSize int

	// MinIdle is the number of connections created up front at pool start.
	MinIdle int

	// MaxIdleTime is how long an unused connection is still considered
	// healthy without reconnecting. Zero means no time-based staleness.
	MaxIdleTime time.Duration

	// Host and Port record the broker endpoint for bookkeeping and logs.
	Host string
	Port int
}

// Stats is a point-in-time snapshot of pool occupancy.
type Stats struct {
	Total        int
	Idle         int
	Active       int
	Reconnecting int
	Available    int
}

// Pool is a bounded collection of broker connections.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - The mutex is never held across network I/O.
type Pool struct {
	cfg  Config
	dial Dialer
	log  *logging.Logger

	mu     sync.Mutex
	conns  []*Connection
	closed bool
}

// New creates a pool and warms it with cfg.MinIdle connections. Warming
// constructs sessions but performs no network I/O; connections dial lazily
// on first acquire.
func New(cfg Config, dial Dialer, log *logging.Logger) (*Pool, error) {
	if cfg.MaxSize < 1 {
		return nil, fmt.Errorf("pool %q: max size must be at least 1, got %d", cfg.Name, cfg.MaxSize)
	}
	if cfg.MinIdle < 0 || cfg.MinIdle > cfg.MaxSize {
		return nil, fmt.Errorf("pool %q: min idle %d out of range [0, %d]", cfg.Name, cfg.MinIdle, cfg.MaxSize)
	}
	if dial == nil {
		return nil, fmt.Errorf("pool %q: dialer is required", cfg.Name)
	}
	if cfg.MaxIdleTime <= 0 {
		cfg.MaxIdleTime = 60 * time.Second
	}
	if log == nil {
		log = logging.Default()
	}

	p := &Pool{
		cfg:  cfg,
		dial: dial,
		log:  log.With("component", "pool", "pool", cfg.Name),
	}

	for i := 0; i < cfg.MinIdle; i++ {
		conn, err := p.create()
		if err != nil {
			return nil, fmt.Errorf("pool %q: warming connection %d: %w", cfg.Name, i, err)
		}
		p.conns = append(p.conns, conn)
	}

	p.log.Debug("pool created", "max_size", cfg.MaxSize, "min_idle", cfg.MinIdle)
	return p, nil
}

// Name returns the pool's configured name.
func (p *Pool) Name() string { return p.cfg.Name }

// Acquire grants exclusive use of one connection.
//
// When reserveReceiveLoop is true (subscribe and multiSub paths) the grant
// requires two available connections: one for the requesting operation and
// one implicitly reserved so the subscription's receive loop can be spun up
// without deadlocking the pool. Publish-style acquires require one.
//
// The availability check and the grant are one atomic step; the returned
// connection has passed its health check (reconnecting once if needed).
// Callers must Release the connection when done with it.
func (p *Pool) Acquire(ctx context.Context, reserveReceiveLoop bool) (*Connection, error) {
	need := 1
	if reserveReceiveLoop {
		need = 2
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	if avail := p.availableLocked(); avail < need {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: need %d available, have %d", ErrPoolExhausted, need, avail)
	}

	conn := p.idleLocked()
	if conn == nil {
		created, err := p.create()
		if err != nil {
			p.mu.Unlock()
			return nil, fmt.Errorf("creating connection: %w", err)
		}
		p.conns = append(p.conns, created)
		conn = created
	}
	conn.markActive()
	p.mu.Unlock()

	// Health check and possible reconnect happen outside the lock; the
	// connection is already reserved so no one else can be granted it.
	if err := p.activate(ctx, conn); err != nil {
		return nil, err
	}

	return conn, nil
}

// activate runs the connection's health-check/reconnect step and discards
// the connection on failure.
func (p *Pool) activate(ctx context.Context, conn *Connection) error {
	if err := conn.activate(ctx); err != nil {
		p.log.Warn("discarding connection after failed activation",
			"connection_id", conn.ID(),
			"error", err,
		)
		p.discard(conn)
		return err
	}
	return nil
}

// Release returns a connection to the pool, making it Idle and refreshing
// its last-use time.
func (p *Pool) Release(conn *Connection) {
	if conn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	conn.release()
}

// Available returns a snapshot of how many acquires could currently
// succeed: idle connections plus remaining creation headroom. Advisory
// only; the authoritative check happens inside Acquire.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0
	}
	return p.availableLocked()
}

// Stats returns a point-in-time occupancy snapshot.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{Total: len(p.conns)}
	for _, c := range p.conns {
		switch c.State() {
		case StateIdle:
			s.Idle++
		case StateActive:
			s.Active++
		case StateReconnecting:
			s.Reconnecting++
		}
	}
	if !p.closed {
		s.Available = p.availableLocked()
	}
	return s
}

// Shutdown closes every pooled connection and rejects further acquires
// with ErrPoolClosed. It returns the combined close errors, if any.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	conns := p.conns
	p.conns = nil
	p.mu.Unlock()

	var errs []error
	for _, conn := range conns {
		select {
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
			return errors.Join(errs...)
		default:
		}
		if err := conn.Session().Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing connection %s: %w", conn.ID(), err))
		}
	}

	p.log.Debug("pool shut down", "closed", len(conns))
	return errors.Join(errs...)
}

// availableLocked recomputes availability from connection state; the value
// is never stored. Caller holds p.mu.
func (p *Pool) availableLocked() int {
	idle := 0
	for _, c := range p.conns {
		if c.State() == StateIdle {
			idle++
		}
	}
	return idle + (p.cfg.MaxSize - len(p.conns))
}

// idleLocked returns the first idle connection, or nil. Caller holds p.mu.
func (p *Pool) idleLocked() *Connection {
	for _, c := range p.conns {
		if c.State() == StateIdle {
			return c
		}
	}
	return nil
}

// create constructs a new connection via the dialer. No network I/O.
func (p *Pool) create() (*Connection, error) {
	id := uuid.NewString()
	session, err := p.dial(id)
	if err != nil {
		return nil, err
	}
	return newConnection(id, p.cfg.Host, p.cfg.Port, session, p.cfg.MaxIdleTime), nil
}

// discard removes a connection from the pool and closes its session.
func (p *Pool) discard(conn *Connection) {
	p.mu.Lock()
	for i, c := range p.conns {
		if c == conn {
			p.conns = append(p.conns[:i], p.conns[i+1:]...)
			break
		}
	}
	p.mu.Unlock()

	if err := conn.Session().Close(); err != nil {
		p.log.Warn("closing discarded connection", "connection_id", conn.ID(), "error", err)
	}
}
