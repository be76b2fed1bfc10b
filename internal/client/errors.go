package client

import "errors"

// Domain-specific errors for client operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidQoS is returned when a QoS level outside {0, 1, 2} is
	// requested. Caller-caused; never retried.
	ErrInvalidQoS = errors.New("client: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopicConfig is returned for an unusable topic
	// configuration, such as an empty topic set or a negative fan-out.
	ErrInvalidTopicConfig = errors.New("client: invalid topic configuration")

	// ErrUnknownMethod is returned by Dispatch for an operation name
	// outside the known set. Programmer error, raised before any side
	// effect.
	ErrUnknownMethod = errors.New("client: unknown method")

	// ErrClosed is returned when operating on a closed client.
	ErrClosed = errors.New("client: closed")
)
