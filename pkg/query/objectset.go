// Package query builds lazy, immutable query plans over the store, index,
// and cache stack: conjunctive filtering, numeric aggregation, and governed
// link traversal. Every chaining call returns a new plan; the old one stays
// valid and reusable.
package query

import (
	"fmt"

	"github.com/tiw/ontology-fk/pkg/acl"
	"github.com/tiw/ontology-fk/pkg/apperrors"
	"github.com/tiw/ontology-fk/pkg/cache"
	"github.com/tiw/ontology-fk/pkg/events"
	"github.com/tiw/ontology-fk/pkg/functions"
	"github.com/tiw/ontology-fk/pkg/models"
	"github.com/tiw/ontology-fk/pkg/schema"
	"github.com/tiw/ontology-fk/pkg/store"
)

// Backend is what a plan needs from the engine. Implemented by
// ontology.Ontology; defined here to keep the dependency pointing inward.
type Backend interface {
	SchemaRegistry() *schema.Registry
	EntityStore() *store.EntityStore
	LinkStore() *store.LinkStore
	Cache() *cache.MultiTier
	Functions() *functions.Registry
	Events() *events.Emitter
	Gate() acl.Gate
	// QueryGeneration is bumped by every commit touching the type; it keys
	// query-signature cache entries so stale results age out instead of
	// being served.
	QueryGeneration(typeName string) uint64
}

// ObjectSet is an entity-type-scoped lazy plan: an accumulated predicate
// chain plus an optional limit. Materialization happens only in All,
// Aggregate, or SearchAround. A set produced by SearchAround is already
// materialized and filters eagerly from then on.
type ObjectSet struct {
	backend    Backend
	objectType *models.ObjectType
	principal  string
	preds      []predicate
	limit      int

	materialized []*models.ObjectInstance
	eager        bool
}

// NewObjectSet creates a lazy plan over every instance of the type.
// The principal is handed to the permission gate at materialization time
// when the type is permission gated.
func NewObjectSet(backend Backend, objectType *models.ObjectType, principal string) *ObjectSet {
	return &ObjectSet{backend: backend, objectType: objectType, principal: principal}
}

// ObjectType returns the type the plan is scoped to.
func (s *ObjectSet) ObjectType() *models.ObjectType { return s.objectType }

// Filter narrows the plan by an equality predicate. Predicates accumulate
// conjunctively.
func (s *ObjectSet) Filter(attr string, value any) *ObjectSet {
	return s.FilterWhere(attr, OpEq, value)
}

// FilterWhere narrows the plan by a comparator predicate.
func (s *ObjectSet) FilterWhere(attr string, op Op, value any) *ObjectSet {
	next := s.clone()
	next.preds = append(next.preds, predicate{attr: attr, op: op, value: value})
	if next.eager {
		next.materialized = filterInstances(next.materialized, []predicate{{attr: attr, op: op, value: value}})
	}
	return next
}

// Limit caps the number of materialized results. Zero means no limit.
func (s *ObjectSet) Limit(n int) *ObjectSet {
	next := s.clone()
	next.limit = n
	return next
}

// All materializes the plan. Equality predicates are resolved through the
// best available index; remaining predicates are applied entity-by-entity
// over the candidates, or over a full partition scan when no index covers
// the plan. Result ordering follows the store's iteration order and must not
// be relied on.
func (s *ObjectSet) All() ([]*models.ObjectInstance, error) {
	if err := s.checkRead(); err != nil {
		return nil, err
	}
	if s.eager {
		return s.capped(s.materialized), nil
	}

	st := s.backend.EntityStore()
	eq := s.equalityFilters()

	// Pure-equality plans are cached by canonical signature (PK lists, so a
	// hit still reads current instances from the store).
	cacheable := len(eq) == len(s.preds) && len(eq) > 0
	var cacheKey string
	if cacheable {
		gen := s.backend.QueryGeneration(s.objectType.APIName)
		cacheKey = cache.QueryKey(s.objectType.APIName, gen, eq)
		if v, ok := s.backend.Cache().Get(cacheKey); ok {
			if cached, ok := v.(cachedQuery); ok {
				out := make([]*models.ObjectInstance, 0, len(cached.pks))
				stale := false
				for _, pk := range cached.pks {
					obj, present := st.Get(s.objectType.APIName, pk)
					if !present {
						stale = true
						break
					}
					out = append(out, obj)
				}
				if !stale {
					s.backend.Events().Emit(events.QueryMaterialized{
						TypeAPIName: s.objectType.APIName,
						IndexUsed:   cached.indexUsed,
						ResultCount: len(out),
					})
					return s.capped(out), nil
				}
				s.backend.Cache().Invalidate(cacheKey)
			}
		}
	}

	var candidates []*models.ObjectInstance
	indexUsed := false
	if keys, _, ok := st.CandidateKeys(s.objectType.APIName, eq); ok {
		indexUsed = true
		candidates = make([]*models.ObjectInstance, 0, len(keys))
		for pk := range keys {
			if obj, present := st.Get(s.objectType.APIName, pk); present {
				candidates = append(candidates, obj)
			}
		}
	} else {
		candidates = st.Scan(s.objectType.APIName)
	}

	out := filterInstances(candidates, s.preds)
	s.backend.Events().Emit(events.QueryMaterialized{
		TypeAPIName: s.objectType.APIName,
		IndexUsed:   indexUsed,
		ResultCount: len(out),
	})

	if cacheable {
		pks := make([]string, len(out))
		for i, obj := range out {
			pks[i] = obj.PrimaryKey
		}
		s.backend.Cache().Set(cacheKey, cachedQuery{pks: pks, indexUsed: indexUsed}, cache.TierL2)
	}
	return s.capped(out), nil
}

// cachedQuery is the value stored under a query-signature cache key. The
// index-used flag rides along so a served hit reports the same plan shape
// as the materialization that populated it.
type cachedQuery struct {
	pks       []string
	indexUsed bool
}

func (s *ObjectSet) checkRead() error {
	if !s.objectType.PermissionGated {
		return nil
	}
	if s.backend.Gate().Allowed(s.principal, s.objectType.APIName, acl.PermView) {
		return nil
	}
	return fmt.Errorf("%w: principal %q cannot view %q",
		apperrors.ErrPermissionDenied, s.principal, s.objectType.APIName)
}

func (s *ObjectSet) equalityFilters() map[string]any {
	eq := make(map[string]any)
	for _, p := range s.preds {
		if p.op == OpEq {
			eq[p.attr] = p.value
		}
	}
	return eq
}

func (s *ObjectSet) capped(objs []*models.ObjectInstance) []*models.ObjectInstance {
	if s.limit > 0 && len(objs) > s.limit {
		return objs[:s.limit]
	}
	return objs
}

func (s *ObjectSet) clone() *ObjectSet {
	next := &ObjectSet{
		backend:    s.backend,
		objectType: s.objectType,
		principal:  s.principal,
		preds:      append([]predicate(nil), s.preds...),
		limit:      s.limit,
		eager:      s.eager,
	}
	if s.eager {
		next.materialized = append([]*models.ObjectInstance(nil), s.materialized...)
	}
	return next
}

// newEagerSet wraps an already-materialized result, used by SearchAround.
func newEagerSet(backend Backend, objectType *models.ObjectType, principal string, objs []*models.ObjectInstance) *ObjectSet {
	return &ObjectSet{
		backend:      backend,
		objectType:   objectType,
		principal:    principal,
		materialized: objs,
		eager:        true,
	}
}
