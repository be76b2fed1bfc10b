package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/emberline/mqttpool/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for the broker
	// handshake.
	defaultConnectTimeout = 10 * time.Second

	// defaultOpTimeout is the maximum time to wait for a subscribe,
	// unsubscribe or publish acknowledgment.
	defaultOpTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations
	// on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// clientIDSuffixLen is how much of the connection ID is appended to
	// the base client ID.
	clientIDSuffixLen = 8

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions creates paho options for one pooled connection.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on TLS setting)
//   - A client ID unique to this connection
//   - Authentication credentials (if provided)
//   - Clean session, no resumed subscriptions
//   - TLS configuration (if enabled)
//
// Auto-reconnect and connect-retry are explicitly disabled: the pool's
// health-check/reconnect step is the only place a session is re-dialed,
// and the client re-establishes subscriptions itself.
func buildClientOptions(cfg *config.Config, connID string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	// Broker URL
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	brokerURL := fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)
	opts.AddBroker(brokerURL)

	// One client ID per connection; brokers kick the older of two
	// clients sharing an ID.
	opts.SetClientID(connectionClientID(cfg.Broker.ClientID, connID))

	// Authentication (if credentials provided)
	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Session state is owned by the runtime, not the broker.
	opts.SetCleanSession(true)
	opts.SetResumeSubs(false)

	// Reconnect policy belongs to the pool.
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(cfg.GetKeepAlive())

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}

// connectionClientID derives the per-connection MQTT client ID.
func connectionClientID(base, connID string) string {
	suffix := connID
	if len(suffix) > clientIDSuffixLen {
		suffix = suffix[:clientIDSuffixLen]
	}
	return base + "-" + suffix
}
