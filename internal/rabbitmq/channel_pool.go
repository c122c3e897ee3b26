package rabbitmq

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultMaxPoolSize bounds the number of idle publish channels kept
// for reuse.
const DefaultMaxPoolSize = 20

// ChannelPool maintains a bounded set of reusable publish channels on
// top of the shared connection. Acquire prefers a pooled channel and
// opens a fresh one when none is available; Release returns healthy
// channels up to the pool bound and discards the rest.
type ChannelPool struct {
	manager *ConnectionManager
	maxSize int

	mu       sync.Mutex
	channels []*PooledChannel
	closed   bool
}

// PooledChannel wraps an AMQP channel with pool metadata.
type PooledChannel struct {
	*amqp.Channel
	id string
}

// ChannelPoolOption configures the channel pool.
type ChannelPoolOption func(*ChannelPool)

// WithMaxSize sets the maximum number of idle channels retained.
func WithMaxSize(size int) ChannelPoolOption {
	return func(cp *ChannelPool) {
		cp.maxSize = size
	}
}

// NewChannelPool creates a channel pool over the given connection
// manager.
func NewChannelPool(manager *ConnectionManager, options ...ChannelPoolOption) (*ChannelPool, error) {
	if manager == nil {
		return nil, ErrInvalidConfiguration
	}

	pool := &ChannelPool{
		manager: manager,
		maxSize: DefaultMaxPoolSize,
	}

	for _, opt := range options {
		opt(pool)
	}

	if pool.maxSize < 1 {
		return nil, fmt.Errorf("%w: max size must be at least 1", ErrInvalidConfiguration)
	}

	pool.channels = make([]*PooledChannel, 0, pool.maxSize)
	return pool, nil
}

// Acquire returns an open channel, reusing a pooled one when possible.
// Channels found closed are discarded and replaced.
func (cp *ChannelPool) Acquire() (*PooledChannel, error) {
	cp.mu.Lock()
	if cp.closed {
		cp.mu.Unlock()
		return nil, ErrChannelPoolClosed
	}
	for len(cp.channels) > 0 {
		n := len(cp.channels) - 1
		ch := cp.channels[n]
		cp.channels = cp.channels[:n]
		if !ch.IsClosed() {
			cp.mu.Unlock()
			return ch, nil
		}
	}
	cp.mu.Unlock()

	conn, err := cp.manager.Connection()
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, &ConnectionError{
			Op:  "open channel",
			URL: SanitizeURL(cp.manager.url),
			Err: fmt.Errorf("%w: %v", ErrBrokerUnavailable, err),
		}
	}

	return &PooledChannel{Channel: ch, id: uuid.New().String()}, nil
}

// Release returns a channel to the pool. Closed channels are never
// pooled; once the pool holds maxSize channels the surplus is closed
// and discarded.
func (cp *ChannelPool) Release(ch *PooledChannel) {
	if ch == nil {
		return
	}

	if ch.IsClosed() {
		return
	}

	cp.mu.Lock()
	if cp.closed || len(cp.channels) >= cp.maxSize {
		cp.mu.Unlock()
		ch.Channel.Close()
		return
	}
	cp.channels = append(cp.channels, ch)
	cp.mu.Unlock()
}

// Size returns the number of idle channels currently pooled.
func (cp *ChannelPool) Size() int {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return len(cp.channels)
}

// Close closes every pooled channel. Acquire fails afterwards.
func (cp *ChannelPool) Close() error {
	cp.mu.Lock()
	if cp.closed {
		cp.mu.Unlock()
		return nil
	}
	cp.closed = true
	channels := cp.channels
	cp.channels = nil
	cp.mu.Unlock()

	for _, ch := range channels {
		if !ch.IsClosed() {
			ch.Channel.Close()
		}
	}
	return nil
}

// Execute runs fn with an acquired channel and releases it on every
// exit path.
func (cp *ChannelPool) Execute(fn func(*amqp.Channel) error) error {
	ch, err := cp.Acquire()
	if err != nil {
		return err
	}
	defer cp.Release(ch)
	return fn(ch.Channel)
}
