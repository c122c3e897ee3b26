// Package rabbitmq provides the RabbitMQ transport for itemvault.
//
// This package includes:
//   - ConnectionManager: one lazily opened, shared connection with
//     automatic reconnection
//   - ChannelPool: a bounded pool of reusable publish channels
//   - Publisher: durable JSON publishing through pooled channels
//   - ConsumerGroup: N parallel acknowledgement-aware consumers per
//     queue with group shutdown
//   - Topology: durable queue declaration
//
// The package deals only in queues on the default exchange; routing is
// by queue name and correctness above this layer relies on correlation
// ids, never on delivery order.
package rabbitmq
