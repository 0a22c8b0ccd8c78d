// Package dedupe suppresses repeated items and repeated signals inside a
// rolling time window.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/metrics"
)

// Deduper records seen keys for a limited time.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen inside the window and
	// records it if not. Returns true if key was already seen, false if it
	// was newly recorded. Two concurrent callers never both get false.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord removes a key so it can pass again. Used when a recorded
	// item could not be handed on (e.g. queue backpressure).
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// node is one entry of the insertion-ordered list. Every key shares the
// same window, so insertion order is also expiry order.
type node struct {
	key     string
	expires time.Time
	prev    *node
	next    *node
}

func (n *node) reset() {
	n.key = ""
	n.expires = time.Time{}
	n.prev = nil
	n.next = nil
}

// inMemoryDeduper keeps keys in a map plus a doubly linked list, oldest at
// head. Expired keys are swept from the head on every write; when maxSize
// is reached the oldest key is evicted.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]*node
	head     *node // oldest
	tail     *node // newest
	size     atomic.Int64
	nodePool sync.Pool
	settings
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{settings: defaultSettings()}
	for _, opt := range opts {
		opt(&d.settings)
	}
	d.seen = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return d
}

// SeenAndRecord implements Deduper.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.sweep(now)

	if n, exists := d.seen[key]; exists {
		if now.Before(n.expires) {
			return true
		}
		// Left over only if the clock went backwards; treat as new.
		d.remove(n)
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.remove(d.head)
	}

	n := d.nodePool.Get().(*node)
	n.key = key
	n.expires = now.Add(d.window)
	d.pushBack(n)
	d.seen[key] = n
	d.size.Add(1)
	metrics.UpdateDedupeSize(d.name, d.size.Load())
	return false
}

// Unrecord implements Deduper.
func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, exists := d.seen[key]; exists {
		d.remove(n)
		metrics.UpdateDedupeSize(d.name, d.size.Load())
	}
}

// Size returns the number of keys held, expired ones not yet swept included.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// sweep drops expired keys from the head. Must be called with d.mu held.
func (d *inMemoryDeduper) sweep(now time.Time) {
	for d.head != nil && !now.Before(d.head.expires) {
		d.remove(d.head)
	}
}

// pushBack links n at the tail. Must be called with d.mu held.
func (d *inMemoryDeduper) pushBack(n *node) {
	n.prev = d.tail
	if d.tail != nil {
		d.tail.next = n
	} else {
		d.head = n
	}
	d.tail = n
}

// remove unlinks n, forgets its key and returns it to the pool. Must be
// called with d.mu held.
func (d *inMemoryDeduper) remove(n *node) {
	if n == nil {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	delete(d.seen, n.key)
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}
