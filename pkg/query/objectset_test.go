package query_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiw/ontology-fk/pkg/acl"
	"github.com/tiw/ontology-fk/pkg/apperrors"
	"github.com/tiw/ontology-fk/pkg/cache"
	"github.com/tiw/ontology-fk/pkg/events"
	"github.com/tiw/ontology-fk/pkg/functions"
	"github.com/tiw/ontology-fk/pkg/models"
	"github.com/tiw/ontology-fk/pkg/ontology"
	"github.com/tiw/ontology-fk/pkg/query"
	"github.com/tiw/ontology-fk/pkg/schema"
)

// newDeliveryEngine builds an engine with the Order/Rider delivery schema
// used across the query tests.
func newDeliveryEngine(t *testing.T, opts ontology.Options) *ontology.Ontology {
	t.Helper()

	reg := schema.NewRegistry()
	require.NoError(t, reg.RegisterObjectType(
		models.NewObjectType("Order", "order_id").
			AddProperty("order_id", models.KindString).
			AddProperty("region", models.KindString).
			AddProperty("status", models.KindString).
			AddProperty("total", models.KindDouble)))
	require.NoError(t, reg.RegisterObjectType(
		models.NewObjectType("Rider", "rider_id").
			AddProperty("rider_id", models.KindString).
			AddProperty("region", models.KindString).
			AddProperty("rating", models.KindDouble)))
	require.NoError(t, reg.RegisterLinkType(&models.LinkType{
		APIName:         "DeliveredBy",
		SourceType:      "Order",
		TargetType:      "Rider",
		Cardinality:     models.ManyToMany,
		ValidationFuncs: []string{"same_region"},
		ScoringFunc:     "rider_rating",
	}))

	fns := functions.NewRegistry()
	require.NoError(t, fns.RegisterValidation("same_region",
		func(source, target *models.ObjectInstance) (functions.ValidationResult, error) {
			a, _ := source.Get("region")
			b, _ := target.Get("region")
			return functions.ValidationResult{Valid: a == b}, nil
		}))
	require.NoError(t, fns.RegisterScoring("rider_rating",
		func(source, target *models.ObjectInstance) (float64, error) {
			rating, _ := target.Get("rating")
			n, _ := models.NumericValue(rating)
			return n, nil
		}))

	return ontology.New(reg, fns, opts)
}

func seedDeliveries(t *testing.T, engine *ontology.Ontology) {
	t.Helper()
	action := engine.NewAction("seeder")

	create := func(typeName string, props map[string]any) {
		_, err := action.CreateObject(typeName, props)
		require.NoError(t, err)
	}
	create("Order", map[string]any{"order_id": "o1", "region": "north", "status": "open", "total": 10.0})
	create("Order", map[string]any{"order_id": "o2", "region": "north", "status": "closed", "total": 20.0})
	create("Order", map[string]any{"order_id": "o3", "region": "south", "status": "open"})
	create("Rider", map[string]any{"rider_id": "r1", "region": "north", "rating": 4.5})
	create("Rider", map[string]any{"rider_id": "r2", "region": "south", "rating": 3.0})

	require.NoError(t, action.CreateLink("DeliveredBy", "o1", "r1"))
	require.NoError(t, action.CreateLink("DeliveredBy", "o1", "r2"))
	require.NoError(t, action.CreateLink("DeliveredBy", "o2", "r1"))
	require.NoError(t, action.Commit())
}

func primaryKeys(objs []*models.ObjectInstance) []string {
	out := make([]string, len(objs))
	for i, obj := range objs {
		out[i] = obj.PrimaryKey
	}
	return out
}

func TestFilterEquality(t *testing.T) {
	engine := newDeliveryEngine(t, ontology.Options{})
	seedDeliveries(t, engine)

	set, err := engine.Objects("Order")
	require.NoError(t, err)

	objs, err := set.Filter("region", "north").All()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"o1", "o2"}, primaryKeys(objs))

	objs, err = set.Filter("region", "north").Filter("status", "open").All()
	require.NoError(t, err)
	assert.Equal(t, []string{"o1"}, primaryKeys(objs))

	objs, err = set.Filter("region", "west").All()
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestFilterComparators(t *testing.T) {
	engine := newDeliveryEngine(t, ontology.Options{})
	seedDeliveries(t, engine)

	set, err := engine.Objects("Order")
	require.NoError(t, err)

	objs, err := set.FilterWhere("total", query.OpGt, 10).All()
	require.NoError(t, err)
	assert.Equal(t, []string{"o2"}, primaryKeys(objs))

	objs, err = set.FilterWhere("total", query.OpLte, 10.0).All()
	require.NoError(t, err)
	assert.Equal(t, []string{"o1"}, primaryKeys(objs))

	// o3 has no total; a negated filter still excludes it.
	objs, err = set.FilterWhere("total", query.OpNe, 10.0).All()
	require.NoError(t, err)
	assert.Equal(t, []string{"o2"}, primaryKeys(objs))
}

func TestPlansAreImmutable(t *testing.T) {
	engine := newDeliveryEngine(t, ontology.Options{})
	seedDeliveries(t, engine)

	base, err := engine.Objects("Order")
	require.NoError(t, err)

	north := base.Filter("region", "north")
	open := north.Filter("status", "open")

	baseObjs, err := base.All()
	require.NoError(t, err)
	assert.Len(t, baseObjs, 3, "base plan must not see derived filters")

	northObjs, err := north.All()
	require.NoError(t, err)
	assert.Len(t, northObjs, 2)

	openObjs, err := open.All()
	require.NoError(t, err)
	assert.Len(t, openObjs, 1)
}

func TestLimit(t *testing.T) {
	engine := newDeliveryEngine(t, ontology.Options{})
	seedDeliveries(t, engine)

	set, err := engine.Objects("Order")
	require.NoError(t, err)

	objs, err := set.Limit(2).All()
	require.NoError(t, err)
	assert.Len(t, objs, 2)
}

func TestUnknownTypeIsNotFound(t *testing.T) {
	engine := newDeliveryEngine(t, ontology.Options{})

	_, err := engine.Objects("Payment")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestAggregate(t *testing.T) {
	engine := newDeliveryEngine(t, ontology.Options{})
	seedDeliveries(t, engine)

	set, err := engine.Objects("Order")
	require.NoError(t, err)

	t.Run("sum skips missing values", func(t *testing.T) {
		// o3 has no total; 10 + 20, never 10 + 20 + 0-for-missing miscounted.
		got, err := set.Aggregate("total", query.AggSum)
		require.NoError(t, err)
		assert.Equal(t, 30.0, got)
	})

	t.Run("count ignores the attribute", func(t *testing.T) {
		got, err := set.Aggregate("total", query.AggCount)
		require.NoError(t, err)
		assert.Equal(t, 3.0, got)
	})

	t.Run("avg over present values only", func(t *testing.T) {
		got, err := set.Aggregate("total", query.AggAvg)
		require.NoError(t, err)
		assert.Equal(t, 15.0, got)
	})

	t.Run("sum over empty set is zero", func(t *testing.T) {
		got, err := set.Filter("region", "west").Aggregate("total", query.AggSum)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	})

	t.Run("avg over empty set errors", func(t *testing.T) {
		_, err := set.Filter("region", "west").Aggregate("total", query.AggAvg)
		assert.True(t, errors.Is(err, apperrors.ErrAggregation))
	})

	t.Run("min over no present values errors", func(t *testing.T) {
		_, err := set.Filter("order_id", "o3").Aggregate("total", query.AggMin)
		assert.True(t, errors.Is(err, apperrors.ErrAggregation))
	})

	t.Run("non-numeric kind errors", func(t *testing.T) {
		_, err := set.Aggregate("region", query.AggSum)
		assert.True(t, errors.Is(err, apperrors.ErrAggregation))
	})

	t.Run("undeclared attribute errors", func(t *testing.T) {
		_, err := set.Aggregate("weight", query.AggMax)
		assert.True(t, errors.Is(err, apperrors.ErrAggregation))
	})

	t.Run("max and min", func(t *testing.T) {
		max, err := set.Aggregate("total", query.AggMax)
		require.NoError(t, err)
		assert.Equal(t, 20.0, max)

		min, err := set.Aggregate("total", query.AggMin)
		require.NoError(t, err)
		assert.Equal(t, 10.0, min)
	})
}

// TestCacheTransparency runs the same workload with and without the cache
// and requires identical answers, including after a write.
func TestCacheTransparency(t *testing.T) {
	run := func(t *testing.T, opts ontology.Options) []string {
		engine := newDeliveryEngine(t, opts)
		seedDeliveries(t, engine)

		set, err := engine.Objects("Order")
		require.NoError(t, err)

		// Materialize twice so the second pass can be served from cache.
		_, err = set.Filter("region", "north").All()
		require.NoError(t, err)
		objs, err := set.Filter("region", "north").All()
		require.NoError(t, err)
		before := primaryKeys(objs)

		action := engine.NewAction("writer")
		_, err = action.CreateObject("Order", map[string]any{
			"order_id": "o9", "region": "north", "status": "open", "total": 5.0,
		})
		require.NoError(t, err)
		require.NoError(t, action.Commit())

		objs, err = set.Filter("region", "north").All()
		require.NoError(t, err)
		return append(before, primaryKeys(objs)...)
	}

	withCache := run(t, ontology.Options{Cache: cache.New(
		cache.TierConfig{Capacity: 64, TTL: time.Minute},
		cache.TierConfig{Capacity: 64, TTL: time.Minute},
		cache.TierConfig{Capacity: 64, TTL: time.Minute},
		nil,
	)})
	withoutCache := run(t, ontology.Options{})

	assert.ElementsMatch(t, withoutCache, withCache,
		"cached and uncached runs must answer identically")
}

// TestCachedQueryStillEmitsMaterializedEvent requires the query.materialized
// notification on every All call, including ones answered from the query
// cache, and with the index-used flag of the run that populated the entry.
func TestCachedQueryStillEmitsMaterializedEvent(t *testing.T) {
	var emitter events.Emitter
	var seen []events.QueryMaterialized
	emitter.Subscribe(listenerFunc(func(ev events.Event) {
		if q, ok := ev.(events.QueryMaterialized); ok {
			seen = append(seen, q)
		}
	}))

	engine := newDeliveryEngine(t, ontology.Options{
		Events: &emitter,
		Cache: cache.New(
			cache.TierConfig{Capacity: 64, TTL: time.Minute},
			cache.TierConfig{Capacity: 64, TTL: time.Minute},
			cache.TierConfig{Capacity: 64, TTL: time.Minute},
			nil,
		),
	})
	require.NoError(t, engine.CreateIndex("Order", "region"))
	seedDeliveries(t, engine)

	set, err := engine.Objects("Order")
	require.NoError(t, err)

	seen = nil
	_, err = set.Filter("region", "north").All()
	require.NoError(t, err)
	_, err = set.Filter("region", "north").All()
	require.NoError(t, err)

	require.Len(t, seen, 2, "the cache-served pass must announce itself too")
	assert.Equal(t, seen[0], seen[1])
	assert.True(t, seen[1].IndexUsed)
	assert.Equal(t, 2, seen[1].ResultCount)
}

type listenerFunc func(events.Event)

func (f listenerFunc) OnEvent(ev events.Event) { f(ev) }

func TestPermissionGatedQuery(t *testing.T) {
	gate := acl.New()
	gate.Grant("alice", "Courier", acl.PermView)

	reg := schema.NewRegistry()
	courier := models.NewObjectType("Courier", "courier_id").
		AddProperty("courier_id", models.KindString)
	courier.PermissionGated = true
	require.NoError(t, reg.RegisterObjectType(courier))

	engine := ontology.New(reg, functions.NewRegistry(), ontology.Options{Gate: gate})

	set, err := engine.ObjectsAs("alice", "Courier")
	require.NoError(t, err)
	_, err = set.All()
	assert.NoError(t, err)

	set, err = engine.ObjectsAs("mallory", "Courier")
	require.NoError(t, err)
	_, err = set.All()
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
}
