package rabbitmq

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes JSON messages to named queues through pooled
// channels. Messages are stamped with a fresh message id and UTC
// timestamp and published with persistent delivery mode. There is no
// local retry: a transport failure propagates to the caller.
type Publisher struct {
	pool   *ChannelPool
	logger *slog.Logger
}

// PublisherOption configures the publisher.
type PublisherOption func(*Publisher)

// WithPublisherLogger sets the logger.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher over the given channel pool.
func NewPublisher(pool *ChannelPool, options ...PublisherOption) *Publisher {
	p := &Publisher{
		pool:   pool,
		logger: slog.Default(),
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// Publish serializes message and publishes it to queue on the default
// exchange. The pooled channel is released on every exit path.
func (p *Publisher) Publish(ctx context.Context, queue string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return &PublishError{
			Queue:     queue,
			Err:       err,
			Timestamp: time.Now(),
		}
	}

	ch, err := p.pool.Acquire()
	if err != nil {
		return &PublishError{
			Queue:     queue,
			Err:       err,
			Timestamp: time.Now(),
		}
	}
	defer p.pool.Release(ch)

	messageID := uuid.New().String()
	err = ch.PublishWithContext(
		ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return &PublishError{
			Queue:     queue,
			MessageID: messageID,
			Err:       err,
			Timestamp: time.Now(),
		}
	}

	p.logger.Debug("message published",
		"queue", queue,
		"messageId", messageID,
		"bytes", len(body),
	)

	return nil
}
