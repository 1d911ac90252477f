// cache.go provides the in-memory template instance cache. It keeps
// ready-to-render Template objects keyed by name and globals set so
// repeated lookups skip source loading and compilation entirely. The
// lock covers only the cache's own bookkeeping — staleness checks and
// compilation happen outside it, so a slow loader never stalls
// unrelated lookups.
package engine

import (
	"container/list"
	"log/slog"
	"sync"
)

// instanceKey identifies one cached template instance: the template
// name plus the fingerprint of the globals set it was resolved with.
type instanceKey struct {
	name      string
	globalsFP string
}

// instanceCache is a concurrency-safe LRU of template instances.
// A negative size means unbounded retention.
type instanceCache struct {
	mu      sync.Mutex
	size    int
	ll      *list.List
	entries map[instanceKey]*list.Element
}

type cacheEntry struct {
	key  instanceKey
	tmpl *Template
}

// newInstanceCache creates an empty cache. size must be non-zero; a
// zero size disables instance caching at the environment level instead.
func newInstanceCache(size int) *instanceCache {
	return &instanceCache{
		size:    size,
		ll:      list.New(),
		entries: make(map[instanceKey]*list.Element),
	}
}

// get retrieves a cached instance and marks it most recently used.
func (c *instanceCache) get(key instanceKey) (*Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ele, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(ele)
	return ele.Value.(cacheEntry).tmpl, true
}

// put inserts or replaces an instance, evicting the least recently
// used entry when a positive size limit would overflow.
func (c *instanceCache) put(key instanceKey, tmpl *Template) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ele, ok := c.entries[key]; ok {
		ele.Value = cacheEntry{key: key, tmpl: tmpl}
		c.ll.MoveToFront(ele)
		return
	}

	c.entries[key] = c.ll.PushFront(cacheEntry{key: key, tmpl: tmpl})

	if c.size > 0 && c.ll.Len() > c.size {
		last := c.ll.Back()
		c.ll.Remove(last)
		evicted := last.Value.(cacheEntry).key
		delete(c.entries, evicted)
		slog.Debug("template instance evicted", "name", evicted.name, "size", c.ll.Len())
	}
}

// remove drops an instance, typically after its source went stale.
func (c *instanceCache) remove(key instanceKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ele, ok := c.entries[key]; ok {
		c.ll.Remove(ele)
		delete(c.entries, key)
	}
}

// len reports the current number of cached instances.
func (c *instanceCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
