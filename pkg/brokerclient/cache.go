package brokerclient

import (
	"context"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// BrokerCache abstracts "give me the broker for X, and let me know when
// that answer turned out to be wrong". Both ControllerClient and
// PartitionClient implement it so the retry envelope in retry.go can drive
// either one identically. Implementations cache at most one handle behind a
// lock: under contention, the second caller of Get waits on the lock and
// observes the first caller's resolved handle rather than performing a
// redundant lookup. Invalidate is idempotent and must never perform I/O.
type BrokerCache interface {
	Get(ctx context.Context) (*brokerHandle, error)
	Invalidate(reason string)
}

// singleSlotCache is the shared implementation behind ControllerClient and
// PartitionClient: a mutex-guarded single *brokerHandle, resolved lazily by
// a caller-supplied resolve function.
type singleSlotCache struct {
	name         string
	logger       log.Logger
	resolve      func(ctx context.Context) (*brokerHandle, error)
	onInvalidate func(brokerID int32)

	mu     sync.Mutex
	cached *brokerHandle
}

func newSingleSlotCache(name string, logger log.Logger, resolve func(context.Context) (*brokerHandle, error), onInvalidate func(int32)) *singleSlotCache {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &singleSlotCache{name: name, logger: logger, resolve: resolve, onInvalidate: onInvalidate}
}

// Get returns the cached handle, resolving it first if absent. The lock is
// held across the resolve call itself, which is exactly what makes
// concurrent callers coalesce onto one lookup instead of racing separate
// ones.
func (c *singleSlotCache) Get(ctx context.Context) (*brokerHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil {
		return c.cached, nil
	}

	h, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}
	c.cached = h
	return h, nil
}

// Invalidate drops the cached handle, if any, and tells the connector the
// broker it pointed at is no longer trusted. It never performs I/O itself;
// the next Get call re-resolves lazily.
func (c *singleSlotCache) Invalidate(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached == nil {
		return
	}
	level.Debug(c.logger).Log("msg", "invalidating cached broker", "cache", c.name, "broker_id", c.cached.id, "reason", reason)
	if c.onInvalidate != nil {
		c.onInvalidate(c.cached.id)
	}
	c.cached = nil
}
