package client

import (
	"context"
	"fmt"
	"sort"

	"github.com/emberline/mqttpool/internal/events"
	"github.com/emberline/mqttpool/internal/pool"
	"github.com/emberline/mqttpool/internal/topic"
)

// TopicOptions carries the per-topic subscribe options of one subscription
// record.
type TopicOptions struct {
	QoS        byte
	Properties topic.Properties
}

// Subscribe registers one subscription per topic, each on its own pooled
// connection with a dedicated receive loop.
//
// Topics may carry "$queue/" or "$share/<group>/" routing prefixes; they
// are classified via the topic parser and passed to the broker verbatim.
//
// The call is all-or-nothing: every connection it needs is acquired before
// any wire call, and on failure everything is rolled back, leaving the
// pool exactly as it was. One SubscribeResult event is emitted
// synchronously before returning, carrying the error on failure.
func (c *Client) Subscribe(ctx context.Context, topics map[string]TopicOptions) error {
	return c.subscribe(ctx, topics, 0)
}

// MultiSub is Subscribe with fan-out: per topic it establishes 1+fanOut
// independent subscriptions, each bound to its own connection and receive
// loop, to parallelize consumption of a high-volume shared or queue topic.
func (c *Client) MultiSub(ctx context.Context, topics map[string]TopicOptions, fanOut int) error {
	if fanOut < 0 {
		return fmt.Errorf("%w: negative fan-out %d", ErrInvalidTopicConfig, fanOut)
	}
	return c.subscribe(ctx, topics, fanOut)
}

// subscribePlan is one topic's share of a subscribe call.
type subscribePlan struct {
	raw    string
	opts   TopicOptions
	parsed topic.ParsedTopic
}

func (c *Client) subscribe(ctx context.Context, topics map[string]TopicOptions, fanOut int) error {
	if len(topics) == 0 {
		return fmt.Errorf("%w: no topics given", ErrInvalidTopicConfig)
	}
	if c.isClosed() {
		return ErrClosed
	}

	// Validate and parse before any pool interaction.
	raws := make([]string, 0, len(topics))
	plans := make([]subscribePlan, 0, len(topics))
	for raw, opts := range topics {
		if opts.QoS > maxQoS {
			return fmt.Errorf("%w: topic %q has QoS %d", ErrInvalidQoS, raw, opts.QoS)
		}
		raws = append(raws, raw)
		plans = append(plans, subscribePlan{
			raw:    raw,
			opts:   opts,
			parsed: topic.Parse(raw, opts.QoS, opts.Properties),
		})
	}
	sort.Strings(raws)
	sort.Slice(plans, func(i, j int) bool { return plans[i].raw < plans[j].raw })

	c.logPlan(plans, fanOut)

	err := c.establish(ctx, plans, 1+fanOut)
	c.emit(events.SubscribeResult{
		Topics:   raws,
		ClientID: c.clientID,
		PoolName: c.pool.Name(),
		Err:      err,
	})
	return err
}

// establish acquires every needed connection up front, then wire-subscribes
// each and starts its receive loop. Any failure rolls everything back.
func (c *Client) establish(ctx context.Context, plans []subscribePlan, perTopic int) error {
	type binding struct {
		plan subscribePlan
		conn *pool.Connection
	}

	// Acquisition phase: all connections or none.
	var bindings []binding
	for _, plan := range plans {
		for i := 0; i < perTopic; i++ {
			conn, err := c.pool.Acquire(ctx, true)
			if err != nil {
				for _, b := range bindings {
					c.pool.Release(b.conn)
				}
				return fmt.Errorf("acquiring connection for %q: %w", plan.raw, err)
			}
			bindings = append(bindings, binding{plan: plan, conn: conn})
		}
	}

	// Wire phase: subscribe each binding and start its receive loop.
	var started []*receiver
	for i, b := range bindings {
		r := newReceiver(b.conn, b.plan.raw)
		b.conn.Session().SetConnectionLostHandler(c.connectionLost)

		if err := b.conn.Session().Subscribe(ctx, wireFilters(b.plan), r.enqueue); err != nil {
			r.cancel()
			c.rollback(ctx, started)
			for _, rest := range bindings[i:] {
				c.pool.Release(rest.conn)
			}
			return fmt.Errorf("subscribing %q: %w", b.plan.raw, err)
		}

		go c.runReceiver(r)
		started = append(started, r)
	}

	// The client may have been closed while the wire phase was in flight;
	// registering into the torn-down receiver map would orphan the
	// connections. Re-check under the lock and undo everything instead.
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.rollback(ctx, started)
		return ErrClosed
	}
	for _, r := range started {
		c.receivers[r.topic] = append(c.receivers[r.topic], r)
	}
	c.mu.Unlock()
	return nil
}

// rollback undoes successfully started subscriptions after a later one in
// the same call failed: stop the loop, best-effort wire unsubscribe,
// release the connection.
func (c *Client) rollback(ctx context.Context, started []*receiver) {
	for _, r := range started {
		r.stop()
		if err := r.conn.Session().Unsubscribe(ctx, r.topic); err != nil {
			c.log.Warn("rollback unsubscribe failed", "topic", r.topic, "error", err)
		}
		c.pool.Release(r.conn)
	}
}

// wireFilters builds the topic-filter map for the wire subscribe call.
func wireFilters(p subscribePlan) map[string]byte {
	filters := make(map[string]byte, 1)
	for t := range topic.SubscriptionSet(p.raw, p.opts.Properties) {
		filters[t] = p.opts.QoS
	}
	return filters
}

// logPlan records how the call's topics were classified.
func (c *Client) logPlan(plans []subscribePlan, fanOut int) {
	var plain, queue, shared int
	for _, p := range plans {
		switch {
		case p.parsed.EnableQueueTopic:
			queue++
		case p.parsed.EnableShareTopic:
			shared++
		default:
			plain++
		}
	}
	c.log.Debug("subscription plan",
		"plain", plain,
		"queue", queue,
		"shared", shared,
		"fan_out", fanOut,
	)
}
