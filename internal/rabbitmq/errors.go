package rabbitmq

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBrokerUnavailable is returned when a connection or channel
	// could not be obtained. It is surfaced immediately and never
	// retried by this layer.
	ErrBrokerUnavailable = errors.New("rabbitmq: broker unavailable")

	// ErrConnectionClosed is returned when the shared connection has
	// been closed and not yet reopened.
	ErrConnectionClosed = errors.New("rabbitmq: connection is closed")

	// ErrChannelPoolClosed is returned by Acquire after Close.
	ErrChannelPoolClosed = errors.New("rabbitmq: channel pool is closed")

	// ErrDropMessage instructs the consumer loop to reject a delivery
	// without requeueing it. Handlers return it for malformed,
	// non-recoverable messages.
	ErrDropMessage = errors.New("rabbitmq: drop message")

	// ErrConsumerStopped is returned when subscribing on a stopped
	// consumer group.
	ErrConsumerStopped = errors.New("rabbitmq: consumer group stopped")

	// ErrInvalidConfiguration is returned when a constructor or
	// subscribe option is missing or out of range.
	ErrInvalidConfiguration = errors.New("rabbitmq: invalid configuration")
)

// ConnectionError reports a failure to establish or use the shared
// connection.
type ConnectionError struct {
	Op        string
	URL       string
	Err       error
	Timestamp time.Time
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("rabbitmq connection error: %s failed: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// PublishError reports a failed publish to a queue.
type PublishError struct {
	Queue     string
	MessageID string
	Err       error
	Timestamp time.Time
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("rabbitmq publish error: queue %q message %s: %v", e.Queue, e.MessageID, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// ConsumerError reports a failure while setting up or running a
// consumer.
type ConsumerError struct {
	Queue       string
	ConsumerTag string
	Op          string
	Err         error
	Timestamp   time.Time
}

func (e *ConsumerError) Error() string {
	return fmt.Sprintf("rabbitmq consumer error: %s failed for %s on queue %q: %v",
		e.Op, e.ConsumerTag, e.Queue, e.Err)
}

func (e *ConsumerError) Unwrap() error { return e.Err }

// SanitizeURL strips credentials from an AMQP URL for logging.
func SanitizeURL(url string) string {
	if len(url) > 20 {
		return url[:10] + "***" + url[len(url)-10:]
	}
	return "***"
}
