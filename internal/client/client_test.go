package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/emberline/mqttpool/internal/events"
	"github.com/emberline/mqttpool/internal/pool"
)

func TestMain(m *testing.M) {
	// Receive loops must never outlive their subscription.
	goleak.VerifyTestMain(m)
}

// =============================================================================
// Fakes
// =============================================================================

// fakeSession is an in-memory pool.Session. Subscriptions record their
// handler so tests can inject messages as if the broker delivered them.
type fakeSession struct {
	mu           sync.Mutex
	connected    bool
	subscribeErr error
	publishErr   error
	subs         map[string]pool.MessageHandler
	unsubs       []string
	published    []pool.Message
	lost         func(err error)
	closed       bool

	// subscribeGate, when set, blocks the next Subscribe until closed;
	// subscribeEntered is closed once that Subscribe reaches the gate.
	subscribeGate    chan struct{}
	subscribeEntered chan struct{}
}

func (f *fakeSession) Connect(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *fakeSession) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeSession) Subscribe(_ context.Context, filters map[string]byte, h pool.MessageHandler) error {
	f.mu.Lock()
	gate, entered := f.subscribeGate, f.subscribeEntered
	f.subscribeGate, f.subscribeEntered = nil, nil
	f.mu.Unlock()
	if gate != nil {
		if entered != nil {
			close(entered)
		}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	if f.subs == nil {
		f.subs = make(map[string]pool.MessageHandler)
	}
	for t := range filters {
		f.subs[t] = h
	}
	return nil
}

func (f *fakeSession) Unsubscribe(_ context.Context, topics ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubs = append(f.unsubs, topics...)
	for _, t := range topics {
		delete(f.subs, t)
	}
	return nil
}

func (f *fakeSession) Publish(_ context.Context, msg pool.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeSession) SetConnectionLostHandler(h func(err error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lost = h
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.connected = false
	return nil
}

// gateSubscribe makes the session's next Subscribe block on gate,
// closing entered once it is parked there.
func (f *fakeSession) gateSubscribe(entered, gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribeEntered = entered
	f.subscribeGate = gate
}

// inject delivers a message through the handler registered for topic,
// as the broker would.
func (f *fakeSession) inject(t *testing.T, msg pool.Message) {
	t.Helper()
	f.mu.Lock()
	h := f.subs[msg.Topic]
	f.mu.Unlock()
	if h == nil {
		t.Fatalf("no subscription handler for topic %q", msg.Topic)
	}
	h(msg)
}

func (f *fakeSession) handles(topicName string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.subs[topicName]
	return ok
}

// registry tracks every session the test dialer created.
type registry struct {
	mu           sync.Mutex
	sessions     []*fakeSession
	subscribeErr error
}

func (g *registry) dial(string) (pool.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := &fakeSession{subscribeErr: g.subscribeErr}
	g.sessions = append(g.sessions, s)
	return s, nil
}

// sessionFor finds the session holding a live subscription for topic.
func (g *registry) sessionFor(t *testing.T, topicName string) *fakeSession {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range g.sessions {
		if s.handles(topicName) {
			return s
		}
	}
	t.Fatalf("no session subscribed to %q", topicName)
	return nil
}

// recorder is a Listener capturing every emitted event.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) HandleEvent(e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}

// waitFor polls until pred matches some recorded event or times out.
func (r *recorder) waitFor(t *testing.T, pred func(events.Event) bool) events.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, e := range r.snapshot() {
			if pred(e) {
				return e
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for event")
	return nil
}

// newTestClient wires a client over a fake-session pool.
func newTestClient(t *testing.T, maxSize, minIdle int) (*Client, *pool.Pool, *registry, *recorder) {
	t.Helper()

	reg := &registry{}
	p, err := pool.New(pool.Config{
		Name:        "test",
		MaxSize:     maxSize,
		MinIdle:     minIdle,
		MaxIdleTime: time.Minute,
	}, reg.dial, nil)
	if err != nil {
		t.Fatalf("pool.New() error = %v", err)
	}

	rec := &recorder{}
	c, err := New("client-test", p, rec, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		if err := c.Close(ctx); err != nil {
			t.Errorf("Close() error = %v", err)
		}
		if err := p.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	})

	return c, p, reg, rec
}

// =============================================================================
// Construction / Connect Tests
// =============================================================================

func TestNew_RequiresPool(t *testing.T) {
	if _, err := New("x", nil, nil, nil); err == nil {
		t.Error("New() expected error for nil pool")
	}
}

func TestNew_GeneratesClientID(t *testing.T) {
	_, p, _, _ := newTestClient(t, 2, 0)

	c, err := New("", p, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.ClientID() == "" {
		t.Error("ClientID() empty, want generated identifier")
	}
}

func TestConnect(t *testing.T) {
	c, p, _, _ := newTestClient(t, 2, 0)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if got := p.Available(); got != 2 {
		t.Errorf("Available() after Connect = %d, want 2 (connection released)", got)
	}
}

// =============================================================================
// Dispatch Tests
// =============================================================================

func TestDispatch_UnknownMethod(t *testing.T) {
	c, p, _, rec := newTestClient(t, 2, 0)

	err := c.Dispatch(context.Background(), Operation("destroy"), Request{})
	if !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("Dispatch() error = %v, want ErrUnknownMethod", err)
	}

	// Rejected before any side effect: pool untouched, nothing emitted.
	if got := p.Available(); got != 2 {
		t.Errorf("Available() = %d, want 2", got)
	}
	if got := len(rec.snapshot()); got != 0 {
		t.Errorf("events emitted = %d, want 0", got)
	}
}

func TestDispatch_RoutesOperations(t *testing.T) {
	c, _, _, _ := newTestClient(t, 3, 0)
	ctx := context.Background()

	err := c.Dispatch(ctx, OpSubscribe, Request{
		Topics: map[string]TopicOptions{"jobs": {QoS: 1}},
	})
	if err != nil {
		t.Fatalf("Dispatch(subscribe) error = %v", err)
	}

	if err := c.Dispatch(ctx, OpPublish, Request{Topic: "jobs", Payload: []byte("hi"), QoS: 1}); err != nil {
		t.Fatalf("Dispatch(publish) error = %v", err)
	}

	if err := c.Dispatch(ctx, OpUnsubscribe, Request{Remove: []string{"jobs"}}); err != nil {
		t.Fatalf("Dispatch(unsubscribe) error = %v", err)
	}

	if err := c.Dispatch(ctx, OpConnect, Request{}); err != nil {
		t.Fatalf("Dispatch(connect) error = %v", err)
	}
}

// =============================================================================
// Close Tests
// =============================================================================

func TestClose_ReleasesEverything(t *testing.T) {
	reg := &registry{}
	p, err := pool.New(pool.Config{
		Name:        "test",
		MaxSize:     4,
		MaxIdleTime: time.Minute,
	}, reg.dial, nil)
	if err != nil {
		t.Fatalf("pool.New() error = %v", err)
	}
	defer func() {
		if err := p.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	}()

	c, err := New("closer", p, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	err = c.Subscribe(ctx, map[string]TopicOptions{
		"a": {QoS: 1},
		"b": {QoS: 1},
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if got := p.Stats().Active; got != 2 {
		t.Fatalf("Stats().Active = %d, want 2", got)
	}

	if err := c.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := p.Available(); got != 4 {
		t.Errorf("Available() after Close = %d, want 4", got)
	}

	// Idempotent.
	if err := c.Close(ctx); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	// Operations on a closed client are refused.
	if err := c.Connect(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Connect() after Close error = %v, want ErrClosed", err)
	}
}

// TestClose_DuringSubscribeRollsBack closes the client while a subscribe
// is parked on its wire call. The late subscribe must not panic; it rolls
// its connections back so none is left Active with no owner.
func TestClose_DuringSubscribeRollsBack(t *testing.T) {
	c, p, reg, rec := newTestClient(t, 4, 1)
	ctx := context.Background()

	entered := make(chan struct{})
	gate := make(chan struct{})
	reg.sessions[0].gateSubscribe(entered, gate)

	subErr := make(chan error, 1)
	go func() {
		subErr <- c.Subscribe(ctx, map[string]TopicOptions{"jobs": {QoS: 1}})
	}()

	// Close once the subscribe is mid-flight on the wire, then let the
	// wire call finish.
	<-entered
	if err := c.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	close(gate)

	if err := <-subErr; !errors.Is(err, ErrClosed) {
		t.Fatalf("Subscribe() error = %v, want ErrClosed", err)
	}

	// Everything the subscribe acquired went back to the pool.
	if got := p.Stats().Active; got != 0 {
		t.Errorf("Stats().Active = %d, want 0", got)
	}
	if got := p.Available(); got != 4 {
		t.Errorf("Available() = %d, want 4", got)
	}

	// The operation reached the pool, so its result event still fires.
	rec.waitFor(t, func(e events.Event) bool {
		sr, ok := e.(events.SubscribeResult)
		return ok && errors.Is(sr.Err, ErrClosed)
	})
}
