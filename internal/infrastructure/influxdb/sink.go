package influxdb

import (
	"github.com/emberline/mqttpool/internal/events"
)

// Measurement names used by the sink.
const (
	measurementOperation  = "mqtt_operation"
	measurementReceive    = "mqtt_receive"
	measurementDisconnect = "mqtt_disconnect"
)

// Sink translates runtime lifecycle events into InfluxDB points.
//
// Subscribe and publish results land in the mqtt_operation measurement
// tagged by pool, event name and outcome. Received messages land in
// mqtt_receive with their payload size, connection losses in
// mqtt_disconnect. All writes go through the client's batched,
// non-blocking write API, so handling an event never stalls the
// emitting operation.
type Sink struct {
	client *Client
}

// NewSink wraps a connected client as an event listener.
func NewSink(client *Client) *Sink {
	return &Sink{client: client}
}

// HandleEvent implements events.Listener.
func (s *Sink) HandleEvent(ev events.Event) {
	switch e := ev.(type) {
	case events.SubscribeResult:
		s.client.WritePoint(measurementOperation,
			map[string]string{
				"pool":    e.PoolName,
				"event":   e.Name(),
				"outcome": outcome(e.Err),
			},
			map[string]interface{}{
				"count":  1,
				"topics": len(e.Topics),
			})

	case events.PublishResult:
		s.client.WritePoint(measurementOperation,
			map[string]string{
				"pool":    e.PoolName,
				"event":   e.Name(),
				"outcome": outcome(e.Err),
			},
			map[string]interface{}{
				"count": 1,
				"qos":   int(e.QoS),
			})

	case events.ReceiveNotification:
		s.client.WritePoint(measurementReceive,
			map[string]string{
				"pool":  e.PoolName,
				"topic": e.Topic,
			},
			map[string]interface{}{
				"count": 1,
				"bytes": len(e.Message),
				"qos":   int(e.QoS),
			})

	case events.DisconnectNotification:
		s.client.WritePoint(measurementDisconnect,
			map[string]string{
				"pool": e.PoolName,
				"type": e.Type,
			},
			map[string]interface{}{
				"count": 1,
				"code":  e.Code,
			})
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
