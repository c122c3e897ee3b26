package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/itemvault/itemvault-go/contracts"
	"github.com/itemvault/itemvault-go/internal/rabbitmq"
)

// DefaultCallTimeout is the uniform per-call deadline.
const DefaultCallTimeout = 5 * time.Second

// DefaultRequestQueue is the durable queue carrying request envelopes.
const DefaultRequestQueue = "request"

// QueuePublisher publishes one message to a named queue.
// *rabbitmq.Publisher is the production implementation.
type QueuePublisher interface {
	Publish(ctx context.Context, queue string, message any) error
}

// Caller performs one fire-and-await exchange and returns the raw
// result-record payload.
type Caller interface {
	Call(ctx context.Context, op contracts.Operation, payload any) ([]byte, error)
}

// RPCClient turns business calls into asynchronous request/response
// exchanges: it stamps a fresh correlation id, parks a waiter in the
// shared table, publishes the request, and blocks until the matching
// reply or the deadline.
type RPCClient struct {
	publisher    QueuePublisher
	table        *CorrelationTable
	requestQueue string
	timeout      time.Duration
	limiter      *rate.Limiter
	logger       *slog.Logger
	metrics      *Metrics
}

// RPCClientOption configures the client.
type RPCClientOption func(*RPCClient)

// WithRequestQueue sets the request queue name.
func WithRequestQueue(queue string) RPCClientOption {
	return func(c *RPCClient) {
		c.requestQueue = queue
	}
}

// WithCallTimeout sets the per-call deadline.
func WithCallTimeout(timeout time.Duration) RPCClientOption {
	return func(c *RPCClient) {
		c.timeout = timeout
	}
}

// WithRateLimit throttles outbound calls to rps requests per second
// with the given burst.
func WithRateLimit(rps float64, burst int) RPCClientOption {
	return func(c *RPCClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *slog.Logger) RPCClientOption {
	return func(c *RPCClient) {
		c.logger = logger
	}
}

// WithClientMetrics sets the metrics collector.
func WithClientMetrics(m *Metrics) RPCClientOption {
	return func(c *RPCClient) {
		c.metrics = m
	}
}

// NewRPCClient creates a client publishing to the request queue and
// awaiting replies through table. The same table must be wired into the
// process's ResponseListener.
func NewRPCClient(publisher QueuePublisher, table *CorrelationTable, options ...RPCClientOption) *RPCClient {
	c := &RPCClient{
		publisher:    publisher,
		table:        table,
		requestQueue: DefaultRequestQueue,
		timeout:      DefaultCallTimeout,
		logger:       slog.Default(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// Call publishes a request envelope for op and blocks until the
// matching reply or the deadline. The returned bytes are the serialized
// result record. The table entry is removed on every exit path, so a
// reply arriving after a timeout finds no waiter and is dropped.
func (c *RPCClient) Call(ctx context.Context, op contracts.Operation, payload any) ([]byte, error) {
	start := time.Now()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("messaging: rate limit wait: %w", err)
		}
	}

	correlationID := uuid.New().String()
	waiter := c.table.Register(correlationID)
	defer c.table.Remove(correlationID)

	req, err := contracts.NewRequest(correlationID, op, payload)
	if err != nil {
		c.metrics.observeCall(string(op), OutcomeTransport, time.Since(start))
		return nil, err
	}

	if err := c.publisher.Publish(ctx, c.requestQueue, req); err != nil {
		c.metrics.observeCall(string(op), OutcomeTransport, time.Since(start))
		if errors.Is(err, rabbitmq.ErrBrokerUnavailable) {
			return nil, fmt.Errorf("%w: %s", ErrBrokerUnavailable, op)
		}
		return nil, fmt.Errorf("messaging: publish %s request: %w", op, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case reply := <-waiter:
		c.metrics.observeCall(string(op), replyOutcome(reply), time.Since(start))
		c.logger.Debug("reply received",
			"operation", op,
			"correlationId", correlationID,
			"elapsed", time.Since(start),
		)
		return reply, nil

	case <-timer.C:
		c.metrics.observeCall(string(op), OutcomeTimeout, time.Since(start))
		c.logger.Warn("call timed out",
			"operation", op,
			"correlationId", correlationID,
			"timeout", c.timeout,
		)
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, op, c.timeout)

	case <-ctx.Done():
		c.metrics.observeCall(string(op), OutcomeTransport, time.Since(start))
		return nil, ctx.Err()
	}
}

// replyOutcome classifies a raw result record for the call metric: a
// record that decodes with success=true is ok, everything else is a
// domain rejection.
func replyOutcome(reply []byte) string {
	var record struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(reply, &record); err != nil || !record.Success {
		return OutcomeDomainError
	}
	return OutcomeOK
}

// Invoke performs a call and decodes the result record into T. A
// malformed record or a record with success=false surfaces as a
// DomainError; transport problems keep their Call error types.
func Invoke[T any](ctx context.Context, c Caller, op contracts.Operation, payload any) (T, error) {
	var zero T

	raw, err := c.Call(ctx, op, payload)
	if err != nil {
		return zero, err
	}

	result, err := contracts.DecodeResult[T](raw)
	if err != nil {
		return zero, &DomainError{Operation: op, Message: "malformed result record"}
	}

	if !result.Success {
		return zero, &DomainError{Operation: op, Message: result.Error}
	}

	return result.Result, nil
}
