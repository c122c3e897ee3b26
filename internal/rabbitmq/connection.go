package rabbitmq

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConnectionManager owns the single long-lived connection shared by all
// channels. The connection is opened lazily on first use; the dial is
// guarded by a mutex so concurrent callers never race to open two
// connections, and the mutex is released before the connection is used.
type ConnectionManager struct {
	url         string
	dialTimeout time.Duration
	logger      *slog.Logger

	mu     sync.Mutex
	conn   *amqp.Connection
	closed bool
}

// ConnectionOption configures the ConnectionManager.
type ConnectionOption func(*ConnectionManager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ConnectionOption {
	return func(cm *ConnectionManager) {
		cm.logger = logger
	}
}

// WithDialTimeout sets the timeout for establishing the connection.
func WithDialTimeout(timeout time.Duration) ConnectionOption {
	return func(cm *ConnectionManager) {
		cm.dialTimeout = timeout
	}
}

// NewConnectionManager creates a connection manager. No connection is
// opened until Connection is first called.
func NewConnectionManager(url string, options ...ConnectionOption) *ConnectionManager {
	cm := &ConnectionManager{
		url:         url,
		dialTimeout: 30 * time.Second,
		logger:      slog.Default(),
	}

	for _, opt := range options {
		opt(cm)
	}

	return cm
}

// Connection returns the shared connection, dialing it if absent or
// closed. Failure to dial surfaces as ErrBrokerUnavailable.
func (cm *ConnectionManager) Connection() (*amqp.Connection, error) {
	cm.mu.Lock()

	if cm.closed {
		cm.mu.Unlock()
		return nil, ErrConnectionClosed
	}

	if cm.conn != nil && !cm.conn.IsClosed() {
		conn := cm.conn
		cm.mu.Unlock()
		return conn, nil
	}

	conn, err := amqp.DialConfig(cm.url, amqp.Config{
		Dial: amqp.DefaultDial(cm.dialTimeout),
	})
	if err != nil {
		cm.mu.Unlock()
		return nil, &ConnectionError{
			Op:        "dial",
			URL:       SanitizeURL(cm.url),
			Err:       fmt.Errorf("%w: %v", ErrBrokerUnavailable, err),
			Timestamp: time.Now(),
		}
	}

	cm.conn = conn
	cm.mu.Unlock()

	cm.logger.Info("connected to RabbitMQ", "url", SanitizeURL(cm.url))

	notify := conn.NotifyClose(make(chan *amqp.Error, 1))
	go cm.watchClose(notify)

	return conn, nil
}

// IsConnected reports whether an open connection is currently held.
func (cm *ConnectionManager) IsConnected() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.conn != nil && !cm.conn.IsClosed()
}

// Close closes the shared connection. Further Connection calls fail
// with ErrConnectionClosed.
func (cm *ConnectionManager) Close() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.closed {
		return nil
	}
	cm.closed = true

	if cm.conn != nil && !cm.conn.IsClosed() {
		err := cm.conn.Close()
		cm.conn = nil
		return err
	}

	cm.conn = nil
	return nil
}

// watchClose clears the cached connection when the broker closes it,
// so the next Connection call redials. The redial-on-demand is the
// whole reconnect policy at this layer.
func (cm *ConnectionManager) watchClose(notify chan *amqp.Error) {
	err, ok := <-notify
	if !ok {
		return
	}
	if err != nil {
		cm.logger.Error("connection closed by broker", "error", err)
	}

	cm.mu.Lock()
	if cm.conn != nil && cm.conn.IsClosed() {
		cm.conn = nil
	}
	cm.mu.Unlock()
}
