// Package mqtt provides the transport-level MQTT session behind the
// connection pool, backed by paho.mqtt.golang.
//
// This package owns everything wire-shaped: packet encode/decode (via
// paho), TLS, keepalive and the connect handshake. It deliberately does
// NOT own reconnect or resubscribe policy — paho's auto-reconnect and
// subscription resumption are disabled, because the pool decides when a
// stale connection reconnects and the client decides which subscriptions
// exist. A session that drops simply reports it through the
// connection-lost handler and waits to be told to connect again.
//
// Each pooled connection gets its own session with a unique MQTT client
// ID derived from the configured base ID and the connection's identifier,
// since brokers disconnect the older of two clients sharing an ID.
//
// # Usage
//
//	dial := mqtt.Dialer(cfg)
//	p, err := pool.New(poolCfg, dial, logger)
package mqtt
