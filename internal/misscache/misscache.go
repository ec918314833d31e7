// Package misscache implements the Miss-Cache: a small mutable set of FQDNs
// that read handlers want the Refresh Scheduler to refresh on its very next
// tick. It is a hint channel, not a correctness mechanism — a lost insert
// only costs one extra tick of staleness.
package misscache

import "sync"

// Cache is a thread-safe set of device FQDNs.
//
// Its mutex must never be held across a call into IMDS or the Inventory
// Gateway (see the lock-ordering rule in the spec this implements:
// Miss-Cache -> Inventory Gateway -> IMDS -> Message Bus). Callers drain it
// and release the lock before doing anything else.
type Cache struct {
	mu  sync.Mutex
	set map[string]struct{}
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{set: make(map[string]struct{})}
}

// Insert adds fqdn to the set. Idempotent.
func (c *Cache) Insert(fqdn string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set[fqdn] = struct{}{}
}

// InsertAll re-queues every fqdn in fqdns. Used by the Scheduler to restore
// misses that a failed tick didn't get to consume.
func (c *Cache) InsertAll(fqdns []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, fqdn := range fqdns {
		c.set[fqdn] = struct{}{}
	}
}

// Drain returns every FQDN currently queued and clears the set.
func (c *Cache) Drain() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.set) == 0 {
		return nil
	}
	out := make([]string, 0, len(c.set))
	for fqdn := range c.set {
		out = append(out, fqdn)
	}
	c.set = make(map[string]struct{})
	return out
}

// IsEmpty reports whether the set currently has no entries.
func (c *Cache) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.set) == 0
}
