package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiw/ontology-fk/pkg/apperrors"
	"github.com/tiw/ontology-fk/pkg/models"
	"github.com/tiw/ontology-fk/pkg/schema"
)

func newTestStore(t *testing.T) *EntityStore {
	t.Helper()
	reg := schema.NewRegistry()
	orders := models.NewObjectType("Order", "order_id").
		AddProperty("order_id", models.KindString).
		AddProperty("region", models.KindString).
		AddProperty("status", models.KindString).
		AddProperty("total", models.KindDouble)
	require.NoError(t, reg.RegisterObjectType(orders))
	return NewEntityStore(reg)
}

func order(pk string, props map[string]any) *models.ObjectInstance {
	if props == nil {
		props = map[string]any{}
	}
	props["order_id"] = pk
	return models.NewObjectInstance("Order", pk, props)
}

func TestPutGetDelete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Put(order("o1", map[string]any{"region": "north"})))
	got, ok := s.Get("Order", "o1")
	require.True(t, ok)
	v, _ := got.Get("region")
	assert.Equal(t, "north", v)

	assert.Equal(t, 1, s.Count("Order"))

	s.Delete("Order", "o1")
	_, ok = s.Get("Order", "o1")
	assert.False(t, ok)

	// Deleting an absent key is a no-op.
	s.Delete("Order", "o1")

	err := s.Put(models.NewObjectInstance("Payment", "p1", nil))
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestIndexCoherence(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateIndex("Order", "region"))

	require.NoError(t, s.Put(order("o1", map[string]any{"region": "north"})))
	require.NoError(t, s.Put(order("o2", map[string]any{"region": "north"})))
	require.NoError(t, s.Put(order("o3", map[string]any{"region": "south"})))

	assert.Equal(t, []string{"o1", "o2"}, s.IndexedKeys("Order", []string{"region"}, []any{"north"}))

	// Replacing an instance moves its index entry.
	require.NoError(t, s.Put(order("o1", map[string]any{"region": "south"})))
	assert.Equal(t, []string{"o2"}, s.IndexedKeys("Order", []string{"region"}, []any{"north"}))
	assert.Equal(t, []string{"o1", "o3"}, s.IndexedKeys("Order", []string{"region"}, []any{"south"}))

	// Deleting removes the entry.
	s.Delete("Order", "o2")
	assert.Empty(t, s.IndexedKeys("Order", []string{"region"}, []any{"north"}))
}

func TestIndexSkipsMissingAttributes(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateIndex("Order", "region"))

	require.NoError(t, s.Put(order("o1", nil)))
	require.NoError(t, s.Put(order("o2", map[string]any{"region": "north"})))

	assert.Equal(t, []string{"o2"}, s.IndexedKeys("Order", []string{"region"}, []any{"north"}))
}

func TestCreateIndex(t *testing.T) {
	s := newTestStore(t)

	t.Run("unknown type", func(t *testing.T) {
		err := s.CreateIndex("Payment", "region")
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("undeclared attribute", func(t *testing.T) {
		err := s.CreateIndex("Order", "color")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("no attributes", func(t *testing.T) {
		err := s.CreateIndex("Order")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("existing data gets indexed", func(t *testing.T) {
		require.NoError(t, s.Put(order("o1", map[string]any{"region": "north"})))
		require.NoError(t, s.CreateIndex("Order", "region"))
		assert.Equal(t, []string{"o1"}, s.IndexedKeys("Order", []string{"region"}, []any{"north"}))
	})

	t.Run("recreate is a no-op", func(t *testing.T) {
		require.NoError(t, s.CreateIndex("Order", "region"))
	})
}

func TestBestIndexSelection(t *testing.T) {
	s := newTestStore(t)

	// status has 2 distinct values, region has 3: region is more selective.
	require.NoError(t, s.Put(order("o1", map[string]any{"region": "north", "status": "open"})))
	require.NoError(t, s.Put(order("o2", map[string]any{"region": "south", "status": "open"})))
	require.NoError(t, s.Put(order("o3", map[string]any{"region": "east", "status": "closed"})))

	require.NoError(t, s.CreateIndex("Order", "status"))
	require.NoError(t, s.CreateIndex("Order", "region"))
	require.NoError(t, s.CreateIndex("Order", "region", "status"))

	t.Run("exact composite wins", func(t *testing.T) {
		keys, _, ok := s.CandidateKeys("Order", map[string]any{"region": "north", "status": "open"})
		require.True(t, ok)
		assert.Equal(t, map[string]struct{}{"o1": {}}, keys)
	})

	t.Run("single attribute uses its index", func(t *testing.T) {
		keys, _, ok := s.CandidateKeys("Order", map[string]any{"status": "open"})
		require.True(t, ok)
		assert.Len(t, keys, 2)
	})

	t.Run("covering composite beats single attribute", func(t *testing.T) {
		// Nothing indexes all of {region, status, total}, but the composite
		// over (region, status) narrows further than either single index.
		keys, id, ok := s.CandidateKeys("Order",
			map[string]any{"region": "north", "status": "open", "total": 10.0})
		require.True(t, ok)
		assert.Equal(t, "Order.region+status", id)
		assert.Equal(t, map[string]struct{}{"o1": {}}, keys)
	})

	t.Run("partial overlap picks most selective single", func(t *testing.T) {
		// No composite covers {region, total}; the region index narrows it.
		keys, id, ok := s.CandidateKeys("Order", map[string]any{"region": "north", "total": 10.0})
		require.True(t, ok)
		regionOnly, regionID, _ := s.CandidateKeys("Order", map[string]any{"region": "north"})
		assert.Equal(t, regionID, id)
		assert.Equal(t, regionOnly, keys)
	})

	t.Run("no covering index", func(t *testing.T) {
		_, _, ok := s.CandidateKeys("Order", map[string]any{"total": 10.0})
		assert.False(t, ok)
	})
}

func TestNumericIndexKeys(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateIndex("Order", "total"))
	require.NoError(t, s.Put(order("o1", map[string]any{"total": 10})))

	// int and float64 representations of the same number hit the same entry.
	assert.Equal(t, []string{"o1"}, s.IndexedKeys("Order", []string{"total"}, []any{10.0}))
	assert.Equal(t, []string{"o1"}, s.IndexedKeys("Order", []string{"total"}, []any{10}))
}
