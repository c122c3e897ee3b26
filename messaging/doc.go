// Package messaging implements the asynchronous RPC exchange between
// the itemvault front end and worker.
//
// This package includes:
//   - CorrelationTable: concurrent map of correlation id to a
//     single-shot waiter, with atomic claim-and-remove semantics
//   - RPCClient: fire-and-await calls over the request queue with a
//     per-call deadline
//   - ResponseListener: standing consumers on the response queue that
//     resolve waiters by correlation id
//   - Router: the worker-side dispatcher turning request envelopes into
//     store operations and result records
//   - JSONHandler: typed JSON decoding for consumer deliveries
//   - Metrics: Prometheus instrumentation for calls, replies, and
//     handled requests
//
// Correctness relies solely on correlation-id matching: responses may
// arrive in any order relative to requests because multiple consumers
// compete on the same queues.
package messaging
