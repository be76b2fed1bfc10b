package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the mqttpool runtime.
// All configuration is loaded from YAML and can be overridden by environment
// variables.
type Config struct {
	Pool          PoolConfig           `yaml:"pool"`
	Broker        BrokerConfig         `yaml:"broker"`
	Auth          AuthConfig           `yaml:"auth"`
	Subscriptions []SubscriptionConfig `yaml:"subscriptions"`
	Logging       LoggingConfig        `yaml:"logging"`
	InfluxDB      InfluxDBConfig       `yaml:"influxdb"`
}

// PoolConfig contains connection-pool sizing and liveness settings.
type PoolConfig struct {
	// Name identifies the pool in emitted events and metrics.
	Name string `yaml:"name"`

	// MaxSize is the hard upper bound on pooled connections.
	MaxSize int `yaml:"max_size"`

	// MinIdle is the number of connections created at pool start.
	MinIdle int `yaml:"min_idle"`

	// MaxIdleTime is how long (seconds) an unused connection is still
	// considered healthy without a liveness re-check.
	MaxIdleTime int `yaml:"max_idle_time"`
}

// BrokerConfig contains MQTT broker connection details.
type BrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`

	// KeepAlive is the MQTT keepalive interval in seconds.
	KeepAlive int `yaml:"keep_alive"`
}

// AuthConfig contains MQTT authentication credentials.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SubscriptionConfig describes one subscription record to establish at
// startup. Topic may carry a "$queue/" or "$share/<group>/" routing prefix.
type SubscriptionConfig struct {
	Topic             string `yaml:"topic"`
	QoS               int    `yaml:"qos"`
	NoLocal           bool   `yaml:"no_local"`
	RetainAsPublished bool   `yaml:"retain_as_published"`
	RetainHandling    int    `yaml:"retain_handling"`

	// MultisubCount is the number of additional dedicated connections to
	// subscribe with, beyond the primary. Zero means a plain subscribe.
	MultisubCount int `yaml:"multisub_count"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// InfluxDBConfig contains InfluxDB connection settings for the optional
// metrics event sink.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// Load reads configuration from a YAML file and applies environment variable
// overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: MQTTPOOL_SECTION_KEY
// For example: MQTTPOOL_BROKER_HOST, MQTTPOOL_POOL_MAX_SIZE
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Pool: PoolConfig{
			Name:        "default",
			MaxSize:     8,
			MinIdle:     2,
			MaxIdleTime: 60,
		},
		Broker: BrokerConfig{
			Host:      "localhost",
			Port:      1883,
			ClientID:  "mqttpool",
			KeepAlive: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables follow the pattern:
// MQTTPOOL_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Broker
	if v := os.Getenv("MQTTPOOL_BROKER_HOST"); v != "" {
		cfg.Broker.Host = v
	}
	if v := os.Getenv("MQTTPOOL_BROKER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Broker.Port = port
		}
	}
	if v := os.Getenv("MQTTPOOL_BROKER_CLIENT_ID"); v != "" {
		cfg.Broker.ClientID = v
	}

	// Auth
	if v := os.Getenv("MQTTPOOL_AUTH_USERNAME"); v != "" {
		cfg.Auth.Username = v
	}
	if v := os.Getenv("MQTTPOOL_AUTH_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}

	// Pool
	if v := os.Getenv("MQTTPOOL_POOL_MAX_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.Pool.MaxSize = size
		}
	}

	// InfluxDB
	if v := os.Getenv("MQTTPOOL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Pool validation
	if c.Pool.Name == "" {
		errs = append(errs, "pool.name is required")
	}
	if c.Pool.MaxSize < 1 {
		errs = append(errs, "pool.max_size must be at least 1")
	}
	if c.Pool.MinIdle < 0 {
		errs = append(errs, "pool.min_idle must not be negative")
	}
	if c.Pool.MinIdle > c.Pool.MaxSize {
		errs = append(errs, "pool.min_idle must not exceed pool.max_size")
	}
	if c.Pool.MaxIdleTime < 1 {
		errs = append(errs, "pool.max_idle_time must be at least 1 second")
	}

	// Broker validation
	if c.Broker.Host == "" {
		errs = append(errs, "broker.host is required")
	}
	if c.Broker.Port < 1 || c.Broker.Port > 65535 {
		errs = append(errs, "broker.port must be between 1 and 65535")
	}
	if c.Broker.ClientID == "" {
		errs = append(errs, "broker.client_id is required")
	}

	// Subscription validation
	for i, sub := range c.Subscriptions {
		if sub.Topic == "" {
			errs = append(errs, fmt.Sprintf("subscriptions[%d].topic is required", i))
		}
		if sub.QoS < 0 || sub.QoS > 2 {
			errs = append(errs, fmt.Sprintf("subscriptions[%d].qos must be 0, 1, or 2", i))
		}
		if sub.RetainHandling < 0 || sub.RetainHandling > 2 {
			errs = append(errs, fmt.Sprintf("subscriptions[%d].retain_handling must be 0, 1, or 2", i))
		}
		if sub.MultisubCount < 0 {
			errs = append(errs, fmt.Sprintf("subscriptions[%d].multisub_count must not be negative", i))
		}
	}

	// InfluxDB validation (only when enabled)
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" {
			errs = append(errs, "influxdb.org is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetMaxIdleTime returns the pool max idle time as a Duration.
func (c *Config) GetMaxIdleTime() time.Duration {
	return time.Duration(c.Pool.MaxIdleTime) * time.Second
}

// GetKeepAlive returns the broker keepalive interval as a Duration.
func (c *Config) GetKeepAlive() time.Duration {
	return time.Duration(c.Broker.KeepAlive) * time.Second
}
