package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes a temporary config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
pool:
  name: "orders-pool"
  max_size: 5
  min_idle: 2
  max_idle_time: 30
broker:
  host: "broker.local"
  port: 1883
  client_id: "test-client"
subscriptions:
  - topic: "$queue/orders"
    qos: 1
    multisub_count: 2
  - topic: "sensors/+/temperature"
    qos: 0
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pool.Name != "orders-pool" {
		t.Errorf("Pool.Name = %q, want %q", cfg.Pool.Name, "orders-pool")
	}
	if cfg.Pool.MaxSize != 5 {
		t.Errorf("Pool.MaxSize = %d, want 5", cfg.Pool.MaxSize)
	}
	if cfg.Broker.Host != "broker.local" {
		t.Errorf("Broker.Host = %q, want %q", cfg.Broker.Host, "broker.local")
	}
	if len(cfg.Subscriptions) != 2 {
		t.Fatalf("len(Subscriptions) = %d, want 2", len(cfg.Subscriptions))
	}
	if cfg.Subscriptions[0].MultisubCount != 2 {
		t.Errorf("Subscriptions[0].MultisubCount = %d, want 2", cfg.Subscriptions[0].MultisubCount)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// A minimal file picks up the hardcoded defaults everywhere else.
	cfg, err := Load(writeConfig(t, `broker: {host: "localhost"}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pool.Name != "default" {
		t.Errorf("Pool.Name = %q, want %q", cfg.Pool.Name, "default")
	}
	if cfg.Pool.MaxSize != 8 {
		t.Errorf("Pool.MaxSize = %d, want 8", cfg.Pool.MaxSize)
	}
	if cfg.Broker.Port != 1883 {
		t.Errorf("Broker.Port = %d, want 1883", cfg.Broker.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MQTTPOOL_BROKER_HOST", "env-broker")
	t.Setenv("MQTTPOOL_POOL_MAX_SIZE", "17")
	t.Setenv("MQTTPOOL_AUTH_PASSWORD", "hunter2")

	cfg, err := Load(writeConfig(t, `broker: {host: "file-broker"}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Broker.Host != "env-broker" {
		t.Errorf("Broker.Host = %q, want env override %q", cfg.Broker.Host, "env-broker")
	}
	if cfg.Pool.MaxSize != 17 {
		t.Errorf("Pool.MaxSize = %d, want env override 17", cfg.Pool.MaxSize)
	}
	if cfg.Auth.Password != "hunter2" {
		t.Errorf("Auth.Password = %q, want env override", cfg.Auth.Password)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Pool.MaxSize = 0
	cfg.Broker.Port = 0
	cfg.Subscriptions = []SubscriptionConfig{
		{Topic: "", QoS: 3},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}

	for _, want := range []string{
		"pool.max_size",
		"broker.port",
		"subscriptions[0].topic",
		"subscriptions[0].qos",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q missing %q", err, want)
		}
	}
}

func TestValidate_MinIdleBounds(t *testing.T) {
	cfg := defaultConfig()
	cfg.Pool.MinIdle = cfg.Pool.MaxSize + 1

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for min_idle > max_size, got nil")
	}
}

func TestValidate_InfluxDBOnlyWhenEnabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.InfluxDB.Enabled = false
	cfg.InfluxDB.URL = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil when influxdb disabled", err)
	}

	cfg.InfluxDB.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for enabled influxdb without url")
	}
}
