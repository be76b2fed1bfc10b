// Package influxdb is the optional metrics sink for runtime events.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched writes and health monitoring, and exposes a Sink
// that plugs into the event bus as a listener. Every operation result,
// received message and connection loss becomes a point tagged by pool
// name.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    // ErrDisabled when switched off in config
//	}
//	defer client.Close()
//
//	bus.Subscribe(influxdb.NewSink(client))
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes; event
// handling never stalls the operation that emitted the event.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered
// via the SetOnError callback. Connection and health check errors are
// returned directly.
package influxdb
