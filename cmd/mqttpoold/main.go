// mqttpoold runs the pooled MQTT client runtime as a daemon.
//
// It loads configuration, builds the connection pool and client, and
// establishes the subscription records from config.yaml. Lifecycle
// events (operation results, received messages, disconnects) go through
// the event bus to structured logs and, when enabled, to InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emberline/mqttpool/internal/client"
	"github.com/emberline/mqttpool/internal/events"
	"github.com/emberline/mqttpool/internal/infrastructure/config"
	"github.com/emberline/mqttpool/internal/infrastructure/influxdb"
	"github.com/emberline/mqttpool/internal/infrastructure/logging"
	"github.com/emberline/mqttpool/internal/infrastructure/mqtt"
	"github.com/emberline/mqttpool/internal/pool"
	"github.com/emberline/mqttpool/internal/topic"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// shutdownTimeout bounds the orderly teardown after the signal arrives.
const shutdownTimeout = 10 * time.Second

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting mqttpoold",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Event bus: every lifecycle event is at least logged
	bus := events.NewBus()
	bus.Subscribe(events.ListenerFunc(func(e events.Event) {
		logEvent(log, e)
	}))

	// Connect to InfluxDB (optional) and attach the metrics sink
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		bus.Subscribe(influxdb.NewSink(influxClient))
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the connection pool; warming performs no network I/O
	p, err := pool.New(pool.Config{
		Name:        cfg.Pool.Name,
		MaxSize:     cfg.Pool.MaxSize,
		MinIdle:     cfg.Pool.MinIdle,
		MaxIdleTime: cfg.GetMaxIdleTime(),
		Host:        cfg.Broker.Host,
		Port:        cfg.Broker.Port,
	}, mqtt.Dialer(cfg), log)
	if err != nil {
		return fmt.Errorf("creating pool: %w", err)
	}
	defer func() {
		log.Info("shutting down pool")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := p.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error("error shutting down pool", "error", shutdownErr)
		}
	}()
	log.Info("pool created",
		"name", cfg.Pool.Name,
		"max_size", cfg.Pool.MaxSize,
		"min_idle", cfg.Pool.MinIdle,
	)

	// Build the client on top of the pool
	cl, err := client.New(cfg.Broker.ClientID, p, bus, log)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	defer func() {
		log.Info("closing client")
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if closeErr := cl.Close(closeCtx); closeErr != nil {
			log.Error("error closing client", "error", closeErr)
		}
	}()

	// Verify the broker is reachable before establishing subscriptions
	if err := cl.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}
	log.Info("broker reachable",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cl.ClientID(),
	)

	// Establish the configured subscription records
	for _, sub := range cfg.Subscriptions {
		if subErr := establishSubscription(ctx, cl, sub); subErr != nil {
			return fmt.Errorf("subscribing %q: %w", sub.Topic, subErr)
		}
		log.Info("subscription established",
			"topic", sub.Topic,
			"qos", sub.QoS,
			"multisub_count", sub.MultisubCount,
		)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. Client (stops receive loops, releases connections)
	// 2. Pool (disconnects sessions)
	// 3. InfluxDB (if enabled)

	log.Info("mqttpoold stopped")
	return nil
}

// establishSubscription subscribes one configured record, fanning out
// over extra connections when multisub_count is set.
func establishSubscription(ctx context.Context, cl *client.Client, sub config.SubscriptionConfig) error {
	topics := map[string]client.TopicOptions{
		sub.Topic: {
			QoS: byte(sub.QoS), // #nosec G115 -- range-checked by config validation
			Properties: topic.Properties{
				NoLocal:           sub.NoLocal,
				RetainAsPublished: sub.RetainAsPublished,
				RetainHandling:    byte(sub.RetainHandling), // #nosec G115 -- range-checked by config validation
			},
		},
	}

	if sub.MultisubCount > 0 {
		return cl.MultiSub(ctx, topics, sub.MultisubCount)
	}
	return cl.Subscribe(ctx, topics)
}

// logEvent maps a lifecycle event onto a structured log line.
func logEvent(log *logging.Logger, e events.Event) {
	switch ev := e.(type) {
	case events.SubscribeResult:
		if ev.Err != nil {
			log.Error("subscribe failed", "topics", ev.Topics, "pool", ev.PoolName, "error", ev.Err)
			return
		}
		log.Info("subscribe succeeded", "topics", ev.Topics, "pool", ev.PoolName)

	case events.PublishResult:
		if ev.Err != nil {
			log.Error("publish failed", "topic", ev.Topic, "pool", ev.PoolName, "error", ev.Err)
			return
		}
		log.Debug("publish succeeded", "topic", ev.Topic, "qos", ev.QoS, "pool", ev.PoolName)

	case events.ReceiveNotification:
		log.Debug("message received",
			"topic", ev.Topic,
			"bytes", len(ev.Message),
			"qos", ev.QoS,
			"pool", ev.PoolName,
		)

	case events.DisconnectNotification:
		log.Warn("connection lost", "type", ev.Type, "code", ev.Code, "pool", ev.PoolName)
	}
}

// getConfigPath returns the configuration file path.
// Uses MQTTPOOL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MQTTPOOL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
