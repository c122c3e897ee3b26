package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/itemvault/itemvault-go/contracts"
	"github.com/itemvault/itemvault-go/internal/rabbitmq"
)

// DefaultResponseQueue is the durable queue carrying response
// envelopes.
const DefaultResponseQueue = "response"

// ResponseListener is the standing subscription on the response queue.
// Each decoded response envelope claims and fulfills the waiter for its
// correlation id; replies with no waiter (late arrivals after a client
// timeout, unknown ids) are dropped silently. Deliveries are always
// acknowledged: a malformed or orphan reply is not retryable.
type ResponseListener struct {
	table   *CorrelationTable
	logger  *slog.Logger
	metrics *Metrics
}

// ResponseListenerOption configures the listener.
type ResponseListenerOption func(*ResponseListener)

// WithListenerLogger sets the logger.
func WithListenerLogger(logger *slog.Logger) ResponseListenerOption {
	return func(l *ResponseListener) {
		l.logger = logger
	}
}

// WithListenerMetrics sets the metrics collector.
func WithListenerMetrics(m *Metrics) ResponseListenerOption {
	return func(l *ResponseListener) {
		l.metrics = m
	}
}

// NewResponseListener creates a listener resolving waiters in table.
func NewResponseListener(table *CorrelationTable, options ...ResponseListenerOption) *ResponseListener {
	l := &ResponseListener{
		table:  table,
		logger: slog.Default(),
	}

	for _, opt := range options {
		opt(l)
	}

	return l
}

// Start subscribes the listener on queue with the given consumer group.
func (l *ResponseListener) Start(ctx context.Context, group *rabbitmq.ConsumerGroup, queue string, options ...rabbitmq.SubscribeOption) error {
	return group.Subscribe(ctx, queue, l.handleDelivery, options...)
}

// handleDelivery never returns an error so the consumer loop always
// acks.
func (l *ResponseListener) handleDelivery(ctx context.Context, delivery amqp.Delivery) error {
	var resp contracts.Response
	if err := json.Unmarshal(delivery.Body, &resp); err != nil {
		l.logger.Warn("discarding malformed response envelope",
			"messageId", delivery.MessageId,
			"error", err,
		)
		return nil
	}

	if resp.CorrelationID == "" {
		l.logger.Warn("discarding response without correlation id",
			"messageId", delivery.MessageId,
		)
		return nil
	}

	if l.table.Resolve(resp.CorrelationID, resp.Payload) {
		l.metrics.replyMatched()
		return nil
	}

	l.metrics.replyOrphaned()
	l.logger.Debug("no waiter for reply, dropping",
		"correlationId", resp.CorrelationID,
	)
	return nil
}
