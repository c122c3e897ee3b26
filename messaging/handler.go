package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/itemvault/itemvault-go/internal/rabbitmq"
)

var jsonNull = []byte("null")

// JSONHandler adapts a typed handler to a delivery handler. An empty or
// null body is non-recoverable and dropped without requeue; a body that
// fails to decode is requeued for broker-level retry, as is any handler
// error.
func JSONHandler[T any](fn func(ctx context.Context, msg T) error) rabbitmq.DeliveryHandler {
	return func(ctx context.Context, delivery amqp.Delivery) error {
		body := bytes.TrimSpace(delivery.Body)
		if len(body) == 0 || bytes.Equal(body, jsonNull) {
			return rabbitmq.ErrDropMessage
		}

		var msg T
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("messaging: decode %T: %w", msg, err)
		}

		return fn(ctx, msg)
	}
}
