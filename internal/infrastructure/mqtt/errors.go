package mqtt

import "errors"

// Domain-specific errors for transport operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrConnectFailed is returned when the broker handshake fails.
	ErrConnectFailed = errors.New("mqtt: connect failed")

	// ErrSubscribeFailed is returned when a subscribe is refused or
	// times out.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed is returned when an unsubscribe is refused or
	// times out.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrPublishFailed is returned when a publish is refused or times
	// out.
	ErrPublishFailed = errors.New("mqtt: publish failed")
)
