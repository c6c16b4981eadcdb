// Package pool manages the bounded set of reusable execution contexts that
// task invocations lease while they run. Acquisition blocks with a timeout;
// rather than failing a task when the pool is exhausted, the pool degrades
// by creating an overflow connection outside its normal capacity.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/gearshift/internal/errors"
	"github.com/Iron-Ham/gearshift/internal/event"
	"github.com/Iron-Ham/gearshift/internal/logging"
)

// Connection is a leased execution context. Exactly one in-flight
// invocation owns a connection between Acquire and Release.
type Connection struct {
	// ID uniquely identifies the connection.
	ID string

	// CreatedAt is when the connection was created.
	CreatedAt time.Time

	// pooled is true for connections minted into the pool's capacity and
	// false for overflow connections, which are discarded on release.
	pooled bool
}

// Pooled reports whether the connection belongs to the pool's capacity.
func (c *Connection) Pooled() bool {
	return c.pooled
}

// Stats is a snapshot of the pool's counters.
type Stats struct {
	// Size is the configured pool capacity.
	Size int
	// Available is the number of idle pooled connections.
	Available int
	// Active is the number of leased connections, overflow included.
	Active int
	// OverflowCreated is the total overflow connections created so far.
	OverflowCreated int
}

// Pool is a bounded connection pool backed by a buffered channel.
type Pool struct {
	conns          chan *Connection
	size           int
	acquireTimeout time.Duration

	mu              sync.Mutex
	active          int
	overflowCreated int
	closed          bool

	logger *logging.Logger
	bus    *event.Bus
}

// New creates a Pool pre-populated with size connections. Acquire waits up
// to acquireTimeout for an idle connection before degrading to overflow.
// Returns a wrapped ErrInvalidConfig when size is not positive.
func New(size int, acquireTimeout time.Duration, logger *logging.Logger, bus *event.Bus) (*Pool, error) {
	if size <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "connection pool size must be positive, got %d", size)
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	p := &Pool{
		conns:          make(chan *Connection, size),
		size:           size,
		acquireTimeout: acquireTimeout,
		logger:         logger.WithComponent("pool"),
		bus:            bus,
	}

	for i := 0; i < size; i++ {
		p.conns <- newConnection(true)
	}

	return p, nil
}

func newConnection(pooled bool) *Connection {
	return &Connection{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		pooled:    pooled,
	}
}

// Acquire leases a connection, blocking until one is idle, the acquire
// timeout expires, or ctx is cancelled. On timeout it creates an overflow
// connection and logs a pool-exhaustion warning; exhaustion is degradation,
// never task failure. Cancellation during the wait is a real error.
func (p *Pool) Acquire(ctx context.Context) (*Connection, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.ErrPoolClosed
	}
	p.mu.Unlock()

	// Fast path: an idle connection is ready
	select {
	case c := <-p.conns:
		p.lease(c)
		return c, nil
	default:
	}

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case c := <-p.conns:
		p.lease(c)
		return c, nil

	case <-ctx.Done():
		return nil, errors.Wrapf(errors.ErrRunCancelled, "connection acquire interrupted: %v", ctx.Err())

	case <-timer.C:
		return p.acquireOverflow()
	}
}

// lease records an acquisition.
func (p *Pool) lease(c *Connection) {
	p.mu.Lock()
	p.active++
	p.mu.Unlock()
	p.logger.Debug("connection acquired", "connection_id", c.ID, "pooled", c.pooled)
}

// acquireOverflow creates a connection beyond the pool's capacity after an
// acquire wait timed out.
func (p *Pool) acquireOverflow() (*Connection, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.ErrPoolClosed
	}
	c := newConnection(false)
	p.active++
	p.overflowCreated++
	active := p.active
	p.mu.Unlock()

	p.logger.Warn("connection pool exhausted, creating overflow connection",
		"connection_id", c.ID,
		"pool_size", p.size,
		"active", active,
		"wait", p.acquireTimeout.String())
	if p.bus != nil {
		p.bus.Publish(event.NewPoolOverflowEvent(c.ID, active))
	}

	return c, nil
}

// Release returns a connection to the pool. Pooled connections go back to
// the idle set when there is room and are discarded otherwise; overflow
// connections are always discarded. Releasing nil is a no-op.
func (p *Pool) Release(c *Connection) {
	if c == nil {
		return
	}

	p.mu.Lock()
	p.active--
	closed := p.closed
	p.mu.Unlock()

	if closed || !c.pooled {
		p.logger.Debug("connection discarded", "connection_id", c.ID, "pooled", c.pooled)
		return
	}

	select {
	case p.conns <- c:
		p.logger.Debug("connection returned", "connection_id", c.ID)
	default:
		// Pool already at capacity
		p.logger.Debug("connection discarded, pool full", "connection_id", c.ID)
	}
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Size:            p.size,
		Available:       len(p.conns),
		Active:          p.active,
		OverflowCreated: p.overflowCreated,
	}
}

// Shutdown closes the pool and discards all idle connections. Subsequent
// acquires fail with ErrPoolClosed; releases discard. Idempotent.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	drained := 0
	for {
		select {
		case <-p.conns:
			drained++
		default:
			p.logger.Info("connection pool shut down", "drained", drained)
			return
		}
	}
}
