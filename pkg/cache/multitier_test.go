package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiw/ontology-fk/pkg/events"
)

func testCache(l1, l2, l3 int) *MultiTier {
	return New(
		TierConfig{Capacity: l1, TTL: time.Minute},
		TierConfig{Capacity: l2, TTL: time.Minute},
		TierConfig{Capacity: l3, TTL: time.Minute},
		nil,
	)
}

func TestGetSetAcrossTiers(t *testing.T) {
	c := testCache(4, 4, 4)

	c.Set("a", 1, TierL1)
	c.Set("b", 2, TierL3)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = c.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLowerTierHitPromotesToL1(t *testing.T) {
	c := testCache(4, 4, 4)
	c.Set("hot", "v", TierL3)

	_, ok := c.Get("hot")
	require.True(t, ok)

	assert.Equal(t, 1, c.TierStats(TierL1).Entries, "hit should be promoted to L1")
	// The L3 copy stays; invalidation clears every tier anyway.
	assert.Equal(t, 1, c.TierStats(TierL3).Entries)
}

func TestTTLExpiry(t *testing.T) {
	clock := time.Now()
	c := testCache(4, 4, 4).withClock(func() time.Time { return clock })

	c.Set("k", "v", TierL1)
	_, ok := c.Get("k")
	require.True(t, ok)

	clock = clock.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry should read as absent after TTL")
	assert.Equal(t, 0, c.TierStats(TierL1).Entries, "expired entry should be dropped")
}

func TestLRUEviction(t *testing.T) {
	c := testCache(2, 2, 2)

	c.Set("a", 1, TierL1)
	c.Set("b", 2, TierL1)
	_, _ = c.Get("a") // a is now most recently used
	c.Set("c", 3, TierL1)

	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, c.TierStats(TierL1).Evictions)
}

func TestInvalidateClearsEveryTier(t *testing.T) {
	c := testCache(4, 4, 4)
	c.Set("k", "v", TierL2)
	_, _ = c.Get("k") // promotes to L1

	c.Invalidate("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.TierStats(TierL1).Entries)
	assert.Equal(t, 0, c.TierStats(TierL2).Entries)
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *MultiTier

	// Every operation must be a safe no-op.
	c.Set("k", "v", TierL1)
	_, ok := c.Get("k")
	assert.False(t, ok)
	c.Invalidate("k")
	c.Clear()
	assert.Equal(t, Stats{}, c.TierStats(TierL1))
}

func TestCacheEvents(t *testing.T) {
	var emitter events.Emitter
	var seen []string
	emitter.Subscribe(listenerFunc(func(ev events.Event) { seen = append(seen, ev.EventName()) }))

	c := New(
		TierConfig{Capacity: 4, TTL: time.Minute},
		TierConfig{Capacity: 4, TTL: time.Minute},
		TierConfig{Capacity: 4, TTL: time.Minute},
		&emitter,
	)

	c.Set("k", "v", TierL1)
	_, _ = c.Get("k")
	_, _ = c.Get("missing")

	assert.Equal(t, []string{"cache.hit", "cache.miss"}, seen)
}

type listenerFunc func(events.Event)

func (f listenerFunc) OnEvent(ev events.Event) { f(ev) }

func TestQueryKeyCanonicalization(t *testing.T) {
	a := QueryKey("Order", 3, map[string]any{"region": "north", "status": "open"})
	b := QueryKey("Order", 3, map[string]any{"status": "open", "region": "north"})
	assert.Equal(t, a, b, "attribute order must not matter")

	assert.NotEqual(t, a, QueryKey("Order", 4, map[string]any{"region": "north", "status": "open"}),
		"generation must rotate the key space")
	assert.NotEqual(t, a, QueryKey("Rider", 3, map[string]any{"region": "north", "status": "open"}))
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "obj:Order:o1", ObjectKey("Order", "o1"))
	assert.Equal(t, fmt.Sprintf("obj:%s:%s", "Rider", "r9"), ObjectKey("Rider", "r9"))
}
