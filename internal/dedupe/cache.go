// ABOUTME: Thread-safe TTL cache recording which turn message ids were already accepted
// ABOUTME: Lets the orchestrator reject client retries of a turn still in flight or just answered

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	key     string
	expires time.Time
}

// Cache remembers keys for a fixed TTL, holding at most maxSize of them.
// All keys share one TTL, so insertion order is also expiry order and the
// list front is always the next key to expire.
type Cache struct {
	mu      sync.Mutex
	index   map[string]*list.Element
	order   *list.List
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	done   chan struct{}
	closed bool
}

// New creates a cache and starts a sweeper that runs every sweepInterval
// (one minute when zero).
func New(ttl time.Duration, maxSize int, sweepInterval time.Duration) *Cache {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	c := &Cache{
		index:   make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go c.sweep(sweepInterval)
	return c
}

// Claim records key and reports whether it was new. A false result means the
// key was claimed within the TTL and the caller should treat it as a replay.
func (c *Cache) Claim(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.expireLocked(now)

	if _, ok := c.index[key]; ok {
		return false
	}

	if c.maxSize > 0 && c.order.Len() >= c.maxSize {
		c.removeLocked(c.order.Front())
	}
	c.index[key] = c.order.PushBack(&entry{key: key, expires: now.Add(c.ttl)})
	return true
}

// Release forgets key so a later Claim succeeds, e.g. after the turn failed
// and the client is allowed to retry it.
func (c *Cache) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		c.removeLocked(el)
	}
}

// Len returns the number of live keys.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked(c.now())
	return c.order.Len()
}

func (c *Cache) expireLocked(now time.Time) {
	for el := c.order.Front(); el != nil; el = c.order.Front() {
		if now.Before(el.Value.(*entry).expires) {
			return
		}
		c.removeLocked(el)
	}
}

func (c *Cache) removeLocked(el *list.Element) {
	e := c.order.Remove(el).(*entry)
	delete(c.index, e.key)
}

func (c *Cache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.expireLocked(c.now())
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

// Close stops the sweeper. It is safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
