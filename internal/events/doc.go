// Package events defines the typed lifecycle events the runtime emits and a
// minimal synchronous bus for delivering them.
//
// The core emits exactly one event per completed top-level operation,
// synchronously, before returning control to the caller. What a listener
// does with an event (log it, aggregate it, ship it to a time-series
// database) is entirely the listener's concern — the core never depends on
// any particular consumer.
//
// The event vocabulary is fixed:
//
//   - SubscribeResult — one per subscribe/multiSub call
//   - PublishResult — one per publish call
//   - ReceiveNotification — one per message delivered by a receive loop
//   - DisconnectNotification — one per transport-level connection loss
//
// # Usage
//
//	bus := events.NewBus()
//	bus.Subscribe(events.ListenerFunc(func(e events.Event) {
//	    log.Info("event", "name", e.Name())
//	}))
package events
