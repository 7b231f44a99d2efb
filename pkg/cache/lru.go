package cache

import (
	"container/list"
	"time"
)

// entry is one cached value with its expiry and LRU bookkeeping.
type entry struct {
	key       string
	value     any
	expiresAt time.Time
	element   *list.Element
}

// lruTier is a single capacity-bounded, TTL-bounded LRU map. Expiry is
// checked lazily on access; expired entries read as absent and are removed.
type lruTier struct {
	capacity int
	ttl      time.Duration
	entries  map[string]*entry
	order    *list.List // front = most recently used
	now      func() time.Time

	hits      int
	misses    int
	evictions int
}

func newLRUTier(capacity int, ttl time.Duration, now func() time.Time) *lruTier {
	return &lruTier{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*entry),
		order:    list.New(),
		now:      now,
	}
}

func (t *lruTier) get(key string) (any, bool) {
	e, ok := t.entries[key]
	if !ok {
		t.misses++
		return nil, false
	}
	if t.now().After(e.expiresAt) {
		t.removeEntry(e)
		t.misses++
		return nil, false
	}
	t.order.MoveToFront(e.element)
	t.hits++
	return e.value, true
}

func (t *lruTier) set(key string, value any) {
	if t.capacity <= 0 {
		return
	}
	if e, ok := t.entries[key]; ok {
		e.value = value
		e.expiresAt = t.now().Add(t.ttl)
		t.order.MoveToFront(e.element)
		return
	}
	for len(t.entries) >= t.capacity {
		oldest := t.order.Back()
		if oldest == nil {
			break
		}
		t.removeEntry(oldest.Value.(*entry))
		t.evictions++
	}
	e := &entry{key: key, value: value, expiresAt: t.now().Add(t.ttl)}
	e.element = t.order.PushFront(e)
	t.entries[key] = e
}

func (t *lruTier) delete(key string) bool {
	e, ok := t.entries[key]
	if !ok {
		return false
	}
	t.removeEntry(e)
	return true
}

func (t *lruTier) removeEntry(e *entry) {
	t.order.Remove(e.element)
	delete(t.entries, e.key)
}

func (t *lruTier) clear() {
	t.entries = make(map[string]*entry)
	t.order.Init()
}

func (t *lruTier) len() int {
	return len(t.entries)
}
