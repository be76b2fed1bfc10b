package influxdb

import (
	"context"
	"errors"
	"testing"

	"github.com/emberline/mqttpool/internal/events"
	"github.com/emberline/mqttpool/internal/infrastructure/config"
)

// =============================================================================
// Client Tests
// =============================================================================

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect with disabled config: err = %v, want ErrDisabled", err)
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	c := &Client{}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck on zero client: err = %v, want ErrNotConnected", err)
	}
}

func TestClose_ZeroClient(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close on zero client: err = %v, want nil", err)
	}
	c.Flush() // must not panic either
}

// =============================================================================
// Sink Tests
// =============================================================================

// TestSink_DisconnectedClientDropsEvents checks that a sink backed by a
// disconnected client swallows every event type without panicking. The
// write path is exercised end to end in integration environments; here
// we only pin the guard.
func TestSink_DisconnectedClientDropsEvents(t *testing.T) {
	sink := NewSink(&Client{})

	evs := []events.Event{
		events.SubscribeResult{Topics: []string{"a/b"}, PoolName: "p"},
		events.SubscribeResult{Topics: []string{"a/b"}, PoolName: "p", Err: errors.New("boom")},
		events.PublishResult{Topic: "a/b", QoS: 1, PoolName: "p"},
		events.ReceiveNotification{Topic: "a/b", Message: []byte("x"), PoolName: "p"},
		events.DisconnectNotification{Type: "connection_lost", PoolName: "p"},
	}
	for _, ev := range evs {
		sink.HandleEvent(ev)
	}
}

func TestOutcome(t *testing.T) {
	if got := outcome(nil); got != "ok" {
		t.Errorf("outcome(nil) = %q, want ok", got)
	}
	if got := outcome(errors.New("x")); got != "error" {
		t.Errorf("outcome(err) = %q, want error", got)
	}
}
