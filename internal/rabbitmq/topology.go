package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueDeclaration defines a queue to be declared. Both itemvault
// queues live on the default exchange, so there is no exchange or
// binding topology.
type QueueDeclaration struct {
	Name       string
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	Arguments  amqp.Table
}

// DurableQueue is the declaration used for the request and response
// queues: durable, non-exclusive, non-auto-delete.
func DurableQueue(name string) QueueDeclaration {
	return QueueDeclaration{
		Name:    name,
		Durable: true,
	}
}

// DeclareQueues declares the given queues through a pooled channel.
// Declaration is idempotent when the existing queue matches.
func DeclareQueues(pool *ChannelPool, queues ...QueueDeclaration) error {
	return pool.Execute(func(ch *amqp.Channel) error {
		for _, q := range queues {
			_, err := ch.QueueDeclare(
				q.Name,
				q.Durable,
				q.AutoDelete,
				q.Exclusive,
				false, // no-wait
				q.Arguments,
			)
			if err != nil {
				return fmt.Errorf("rabbitmq: declare queue %q: %w", q.Name, err)
			}
		}
		return nil
	})
}
