// Package cache is the read-through acceleration layer in front of the
// entity store: three LRU tiers with per-tier capacity and TTL. The cache is
// never authoritative; any entry may be silently absent with no behavioral
// difference beyond cost, and correctness must hold with the cache disabled.
package cache

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tiw/ontology-fk/pkg/events"
)

// Tier numbers, hottest first.
const (
	TierL1 = 1
	TierL2 = 2
	TierL3 = 3
)

// TierConfig sizes one tier.
type TierConfig struct {
	Capacity int
	TTL      time.Duration
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int
	Misses    int
	Evictions int
	Entries   int
}

// MultiTier is the L1/L2/L3 cache. Get checks tiers hottest-first and
// promotes lower-tier hits to L1. A nil *MultiTier is a disabled cache:
// every operation is a safe no-op and every Get misses.
type MultiTier struct {
	tiers   [3]*lruTier
	emitter *events.Emitter
}

// New creates a cache from per-tier configs, ordered L1, L2, L3.
// The emitter may be nil.
func New(l1, l2, l3 TierConfig, emitter *events.Emitter) *MultiTier {
	now := time.Now
	return &MultiTier{
		tiers: [3]*lruTier{
			newLRUTier(l1.Capacity, l1.TTL, now),
			newLRUTier(l2.Capacity, l2.TTL, now),
			newLRUTier(l3.Capacity, l3.TTL, now),
		},
		emitter: emitter,
	}
}

// withClock swaps the time source; test hook.
func (c *MultiTier) withClock(now func() time.Time) *MultiTier {
	for _, t := range c.tiers {
		t.now = now
	}
	return c
}

// Get checks L1 through L3. A hit below L1 promotes the entry to L1.
func (c *MultiTier) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	for i, tier := range c.tiers {
		if v, ok := tier.get(key); ok {
			if i > 0 {
				c.tiers[0].set(key, v)
			}
			c.emitter.Emit(events.CacheHit{Key: key, Tier: i + 1})
			return v, true
		}
	}
	c.emitter.Emit(events.CacheMiss{Key: key})
	return nil, false
}

// Set inserts at the given tier, evicting least-recently-used entries past
// the tier's capacity.
func (c *MultiTier) Set(key string, value any, tier int) {
	if c == nil {
		return
	}
	if tier < TierL1 || tier > TierL3 {
		tier = TierL2
	}
	c.tiers[tier-1].set(key, value)
}

// Invalidate removes the key from every tier. The staging layer calls this
// for every key whose underlying entity or index changed.
func (c *MultiTier) Invalidate(key string) {
	if c == nil {
		return
	}
	for _, tier := range c.tiers {
		tier.delete(key)
	}
}

// Clear drops every entry in every tier.
func (c *MultiTier) Clear() {
	if c == nil {
		return
	}
	for _, tier := range c.tiers {
		tier.clear()
	}
}

// TierStats returns counters for one tier (TierL1..TierL3).
func (c *MultiTier) TierStats(tier int) Stats {
	if c == nil || tier < TierL1 || tier > TierL3 {
		return Stats{}
	}
	t := c.tiers[tier-1]
	return Stats{Hits: t.hits, Misses: t.misses, Evictions: t.evictions, Entries: t.len()}
}

// ObjectKey is the cache key for a point lookup.
func ObjectKey(typeName, pk string) string {
	return "obj:" + typeName + ":" + pk
}

// QueryKey canonicalizes an equality filter map into a query cache key.
// Filters are sorted by attribute so equivalent queries share an entry. The
// generation comes from the engine and changes whenever a commit touches the
// type, so entries from before a write can never be served after it.
func QueryKey(typeName string, generation uint64, filters map[string]any) string {
	attrs := make([]string, 0, len(filters))
	for attr := range filters {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)
	var b strings.Builder
	fmt.Fprintf(&b, "query:%s:g%d", typeName, generation)
	for _, attr := range attrs {
		fmt.Fprintf(&b, ":%s=%v", attr, filters[attr])
	}
	return b.String()
}
