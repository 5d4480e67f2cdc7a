package shot

import (
	"container/list"
	"sync"

	"icrhDiag/metrics"
)

//Eviction reasons passed to Cache.OnEvict
const (
	EvictCount    = "max_events"
	EvictMemory   = "max_bytes"
	EvictExplicit = "explicit"
)

//Cache keeps the most recently used bundles. It is bounded by a number of events and by the estimated
//sample memory of the stored bundles; a bound <= 0 disables it. The most recently stored bundle is never
//evicted by the memory bound, even if it alone exceeds it
type Cache struct {
	maxEvents int
	maxBytes  int64

	mu    sync.Mutex
	ll    *list.List
	items map[int]*list.Element
	bytes int64

	//OnEvict is called (with the cache lock held) for every bundle leaving the cache
	OnEvict func(eventID int, reason string)
}

type cacheEntry struct {
	bundle *Bundle
	size   int64
}

func NewCache(maxEvents int, maxBytes int64) *Cache {
	return &Cache{
		maxEvents: maxEvents,
		maxBytes:  maxBytes,
		ll:        list.New(),
		items:     make(map[int]*list.Element),
	}
}

//Get returns the bundle of eventID and marks it as most recently used
func (c *Cache) Get(eventID int) (*Bundle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[eventID]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(elem)
	return elem.Value.(*cacheEntry).bundle, true
}

//Put stores b, replacing an older bundle of the same event, and evicts the least recently used bundles
//until both bounds hold
func (c *Cache) Put(b *Bundle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := &cacheEntry{bundle: b, size: b.SizeBytes()}
	if elem, ok := c.items[b.EventID]; ok {
		c.bytes -= elem.Value.(*cacheEntry).size
		elem.Value = entry
		c.ll.MoveToFront(elem)
	} else {
		c.items[b.EventID] = c.ll.PushFront(entry)
	}
	c.bytes += entry.size

	for c.maxEvents > 0 && c.ll.Len() > c.maxEvents {
		c.removeElement(c.ll.Back(), EvictCount)
	}
	for c.maxBytes > 0 && c.bytes > c.maxBytes && c.ll.Len() > 1 {
		c.removeElement(c.ll.Back(), EvictMemory)
	}
	c.updateGauges()
}

//Evict drops the bundle of eventID. It returns false if the event was not cached
func (c *Cache) Evict(eventID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[eventID]
	if !ok {
		return false
	}
	c.removeElement(elem, EvictExplicit)
	c.updateGauges()
	return true
}

//Len returns the number of cached events
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

//Bytes returns the estimated memory of the cached bundles
func (c *Cache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

//EventIDs returns the cached event ids, most recently used first
func (c *Cache) EventIDs() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]int, 0, c.ll.Len())
	for elem := c.ll.Front(); elem != nil; elem = elem.Next() {
		ids = append(ids, elem.Value.(*cacheEntry).bundle.EventID)
	}
	return ids
}

func (c *Cache) removeElement(elem *list.Element, reason string) {
	entry := elem.Value.(*cacheEntry)
	c.ll.Remove(elem)
	delete(c.items, entry.bundle.EventID)
	c.bytes -= entry.size
	metrics.CacheEvictions.Inc()
	if c.OnEvict != nil {
		c.OnEvict(entry.bundle.EventID, reason)
	}
}

func (c *Cache) updateGauges() {
	metrics.CachedEvents.Set(float64(c.ll.Len()))
	metrics.CachedBytes.Set(float64(c.bytes))
}
