package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeliveryHandler processes one delivery. The return value drives the
// acknowledgement: nil acks, ErrDropMessage nacks without requeue, any
// other error nacks with requeue (at-least-once redelivery).
type DeliveryHandler func(ctx context.Context, delivery amqp.Delivery) error

// ConsumerGroup opens parallel consumers against named queues. Each
// consumer gets its own channel with its own prefetch window, so a slow
// handler on one channel bounds only its own in-flight deliveries.
// All consumers are tracked for group shutdown.
type ConsumerGroup struct {
	manager *ConnectionManager
	logger  *slog.Logger

	mu       sync.Mutex
	channels []*amqp.Channel
	stopped  bool
}

// SubscribeOptions configures one Subscribe call.
type SubscribeOptions struct {
	PrefetchCount int
	ConsumerCount int
}

// SubscribeOption configures subscription behavior.
type SubscribeOption func(*SubscribeOptions)

// WithPrefetchCount sets the per-channel prefetch limit.
func WithPrefetchCount(count int) SubscribeOption {
	return func(o *SubscribeOptions) {
		o.PrefetchCount = count
	}
}

// WithConsumerCount sets the number of parallel consumers.
func WithConsumerCount(count int) SubscribeOption {
	return func(o *SubscribeOptions) {
		o.ConsumerCount = count
	}
}

// ConsumerGroupOption configures the group.
type ConsumerGroupOption func(*ConsumerGroup)

// WithConsumerLogger sets the logger.
func WithConsumerLogger(logger *slog.Logger) ConsumerGroupOption {
	return func(cg *ConsumerGroup) {
		cg.logger = logger
	}
}

// NewConsumerGroup creates a consumer group on the shared connection.
func NewConsumerGroup(manager *ConnectionManager, options ...ConsumerGroupOption) *ConsumerGroup {
	cg := &ConsumerGroup{
		manager: manager,
		logger:  slog.Default(),
	}

	for _, opt := range options {
		opt(cg)
	}

	return cg
}

// Subscribe declares queue as durable, non-exclusive, non-auto-delete
// and starts ConsumerCount independent consumers on it, each with its
// own channel, prefetch window, and handler loop. Registration is
// serialized with StopAll.
func (cg *ConsumerGroup) Subscribe(ctx context.Context, queue string, handler DeliveryHandler, options ...SubscribeOption) error {
	opts := SubscribeOptions{
		PrefetchCount: 10,
		ConsumerCount: 4,
	}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.ConsumerCount < 1 || opts.PrefetchCount < 0 {
		return fmt.Errorf("%w: consumerCount=%d prefetchCount=%d",
			ErrInvalidConfiguration, opts.ConsumerCount, opts.PrefetchCount)
	}

	cg.mu.Lock()
	defer cg.mu.Unlock()

	if cg.stopped {
		return ErrConsumerStopped
	}

	for i := 0; i < opts.ConsumerCount; i++ {
		conn, err := cg.manager.Connection()
		if err != nil {
			return &ConsumerError{
				Queue:     queue,
				Op:        "connect",
				Err:       err,
				Timestamp: time.Now(),
			}
		}

		ch, err := conn.Channel()
		if err != nil {
			return &ConsumerError{
				Queue:     queue,
				Op:        "open channel",
				Err:       err,
				Timestamp: time.Now(),
			}
		}

		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			ch.Close()
			return &ConsumerError{
				Queue:     queue,
				Op:        "declare queue",
				Err:       err,
				Timestamp: time.Now(),
			}
		}

		if err := ch.Qos(opts.PrefetchCount, 0, false); err != nil {
			ch.Close()
			return &ConsumerError{
				Queue:     queue,
				Op:        "set qos",
				Err:       err,
				Timestamp: time.Now(),
			}
		}

		tag := fmt.Sprintf("%s-consumer-%d", queue, i)
		deliveries, err := ch.Consume(queue, tag, false, false, false, false, nil)
		if err != nil {
			ch.Close()
			return &ConsumerError{
				Queue:       queue,
				ConsumerTag: tag,
				Op:          "consume",
				Err:         err,
				Timestamp:   time.Now(),
			}
		}

		cg.channels = append(cg.channels, ch)
		go cg.consumeLoop(ctx, queue, tag, deliveries, handler)
	}

	cg.logger.Info("subscribed to queue",
		"queue", queue,
		"consumers", opts.ConsumerCount,
		"prefetch", opts.PrefetchCount,
	)

	return nil
}

// consumeLoop processes deliveries for one consumer channel until the
// context is cancelled or the channel closes.
func (cg *ConsumerGroup) consumeLoop(ctx context.Context, queue, tag string, deliveries <-chan amqp.Delivery, handler DeliveryHandler) {
	for {
		select {
		case <-ctx.Done():
			cg.logger.Debug("consumer stopping", "queue", queue, "consumerTag", tag)
			return

		case delivery, ok := <-deliveries:
			if !ok {
				cg.logger.Debug("delivery channel closed", "queue", queue, "consumerTag", tag)
				return
			}
			cg.handleDelivery(ctx, queue, delivery, handler)
		}
	}
}

// handleDelivery runs the handler and acknowledges according to its
// outcome.
func (cg *ConsumerGroup) handleDelivery(ctx context.Context, queue string, delivery amqp.Delivery, handler DeliveryHandler) {
	err := handler(ctx, delivery)

	switch {
	case err == nil:
		if ackErr := delivery.Ack(false); ackErr != nil {
			cg.logger.Error("failed to ack message",
				"queue", queue,
				"deliveryTag", delivery.DeliveryTag,
				"error", ackErr,
			)
		}

	case errors.Is(err, ErrDropMessage):
		cg.logger.Warn("dropping malformed message",
			"queue", queue,
			"messageId", delivery.MessageId,
		)
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			cg.logger.Error("failed to nack message", "queue", queue, "error", nackErr)
		}

	default:
		cg.logger.Error("handler failed, requeueing",
			"queue", queue,
			"messageId", delivery.MessageId,
			"error", err,
		)
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			cg.logger.Error("failed to nack message", "queue", queue, "error", nackErr)
		}
	}
}

// StopAll closes every tracked consumer channel and clears the
// registry. Safe to call more than once and from shutdown callbacks.
func (cg *ConsumerGroup) StopAll() error {
	cg.mu.Lock()
	defer cg.mu.Unlock()

	if cg.stopped {
		return nil
	}
	cg.stopped = true

	var errs []error
	for _, ch := range cg.channels {
		if !ch.IsClosed() {
			if err := ch.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	cg.channels = nil

	cg.logger.Info("consumer group stopped")

	if len(errs) > 0 {
		return fmt.Errorf("rabbitmq: errors closing consumer channels: %v", errs)
	}
	return nil
}

// ConsumerCount returns the number of tracked consumer channels.
func (cg *ConsumerGroup) ConsumerCount() int {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	return len(cg.channels)
}
