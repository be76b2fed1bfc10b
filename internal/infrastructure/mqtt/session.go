package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/emberline/mqttpool/internal/infrastructure/config"
	"github.com/emberline/mqttpool/internal/pool"
)

// Session adapts a paho client to the pool.Session interface.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Session struct {
	client pahomqtt.Client

	mu   sync.RWMutex
	lost func(err error)
}

// Dialer returns a pool.Dialer producing one Session per pooled
// connection. Constructing a session performs no network I/O; the broker
// handshake happens in Connect.
func Dialer(cfg *config.Config) pool.Dialer {
	return func(id string) (pool.Session, error) {
		s := &Session{}

		opts := buildClientOptions(cfg, id)
		opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			s.handleConnectionLost(err)
		})

		s.client = pahomqtt.NewClient(opts)
		return s, nil
	}
}

// Connect performs the broker handshake.
func (s *Session) Connect(ctx context.Context) error {
	return s.wait(ctx, s.client.Connect(), defaultConnectTimeout, ErrConnectFailed)
}

// Connected reports paho's last known connection state. No network I/O.
func (s *Session) Connected() bool {
	return s.client.IsConnected()
}

// Subscribe registers the topic filters and routes matching messages to h.
func (s *Session) Subscribe(ctx context.Context, filters map[string]byte, h pool.MessageHandler) error {
	token := s.client.SubscribeMultiple(filters, func(_ pahomqtt.Client, m pahomqtt.Message) {
		h(pool.Message{
			Topic:    m.Topic(),
			Payload:  m.Payload(),
			QoS:      m.Qos(),
			Dup:      m.Duplicate(),
			Retained: m.Retained(),
		})
	})
	return s.wait(ctx, token, defaultOpTimeout, ErrSubscribeFailed)
}

// Unsubscribe removes the given topic filters.
func (s *Session) Unsubscribe(ctx context.Context, topics ...string) error {
	return s.wait(ctx, s.client.Unsubscribe(topics...), defaultOpTimeout, ErrUnsubscribeFailed)
}

// Publish sends one application message. The Dup flag is transport-owned
// in paho and ignored here.
func (s *Session) Publish(ctx context.Context, msg pool.Message) error {
	token := s.client.Publish(msg.Topic, msg.QoS, msg.Retained, msg.Payload)
	return s.wait(ctx, token, defaultOpTimeout, ErrPublishFailed)
}

// SetConnectionLostHandler registers the callback for unexpected
// connection loss.
func (s *Session) SetConnectionLostHandler(h func(err error)) {
	s.mu.Lock()
	s.lost = h
	s.mu.Unlock()
}

// Close disconnects from the broker, allowing a quiesce period for
// pending operations.
func (s *Session) Close() error {
	s.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}

func (s *Session) handleConnectionLost(err error) {
	s.mu.RLock()
	h := s.lost
	s.mu.RUnlock()
	if h != nil {
		h(err)
	}
}

// wait blocks on a paho token, honouring the context and a hard timeout.
func (s *Session) wait(ctx context.Context, token pahomqtt.Token, timeout time.Duration, sentinel error) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", sentinel, ctx.Err())
	case <-timer.C:
		return fmt.Errorf("%w: timeout after %v", sentinel, timeout)
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("%w: %w", sentinel, err)
		}
		return nil
	}
}
