// Package store is the canonical in-memory home of object instances and
// links, plus the secondary and composite indices kept coherent with it.
// The store itself performs no schema validation beyond type existence and
// no permission checks; the staging layer owns both. Not safe for concurrent
// mutation; the host must serialize writes against one ontology instance.
package store

import (
	"fmt"
	"sort"

	"github.com/tiw/ontology-fk/pkg/apperrors"
	"github.com/tiw/ontology-fk/pkg/models"
	"github.com/tiw/ontology-fk/pkg/schema"
)

// EntityStore maps (object type, primary key) to instances and maintains
// every created index on each mutation. Indices are derived data: after any
// Put or Delete returns, each index equals what a full scan would rebuild.
type EntityStore struct {
	registry   *schema.Registry
	partitions map[string]map[string]*models.ObjectInstance
	indices    map[string][]*index
	indexSeq   int
}

// NewEntityStore creates an empty store bound to a schema registry.
func NewEntityStore(registry *schema.Registry) *EntityStore {
	return &EntityStore{
		registry:   registry,
		partitions: make(map[string]map[string]*models.ObjectInstance),
		indices:    make(map[string][]*index),
	}
}

// Put inserts or replaces an instance. On replace, index entries for the old
// property values are removed and entries for the new values added within
// the same call, so readers between store calls always see coherent indices.
func (s *EntityStore) Put(obj *models.ObjectInstance) error {
	if _, ok := s.registry.ObjectType(obj.TypeAPIName); !ok {
		return fmt.Errorf("%w: object type %q", apperrors.ErrNotFound, obj.TypeAPIName)
	}
	part := s.partitions[obj.TypeAPIName]
	if part == nil {
		part = make(map[string]*models.ObjectInstance)
		s.partitions[obj.TypeAPIName] = part
	}
	if old, replaced := part[obj.PrimaryKey]; replaced {
		for _, idx := range s.indices[obj.TypeAPIName] {
			idx.remove(old)
		}
	}
	part[obj.PrimaryKey] = obj
	for _, idx := range s.indices[obj.TypeAPIName] {
		idx.add(obj)
	}
	return nil
}

// Get returns the instance for (type, pk), if present. O(1) expected.
func (s *EntityStore) Get(typeName, pk string) (*models.ObjectInstance, bool) {
	obj, ok := s.partitions[typeName][pk]
	return obj, ok
}

// Delete removes the instance and every index entry referencing it. Link
// cascade is the staging layer's responsibility. Deleting an absent key is a
// no-op.
func (s *EntityStore) Delete(typeName, pk string) {
	part := s.partitions[typeName]
	obj, ok := part[pk]
	if !ok {
		return
	}
	delete(part, pk)
	for _, idx := range s.indices[typeName] {
		idx.remove(obj)
	}
}

// Scan returns every instance of the type, in the store's iteration order.
// Callers must not rely on any particular ordering.
func (s *EntityStore) Scan(typeName string) []*models.ObjectInstance {
	part := s.partitions[typeName]
	out := make([]*models.ObjectInstance, 0, len(part))
	for _, obj := range part {
		out = append(out, obj)
	}
	return out
}

// Count returns the number of instances of the type.
func (s *EntityStore) Count(typeName string) int {
	return len(s.partitions[typeName])
}

// CreateIndex builds a single-attribute or composite index over current
// contents with one scan; Put and Delete maintain it from then on.
// Re-creating an existing index is a no-op.
func (s *EntityStore) CreateIndex(typeName string, attrs ...string) error {
	objType, ok := s.registry.ObjectType(typeName)
	if !ok {
		return fmt.Errorf("%w: object type %q", apperrors.ErrNotFound, typeName)
	}
	if len(attrs) == 0 {
		return fmt.Errorf("%w: index requires at least one attribute", apperrors.ErrValidation)
	}
	for _, attr := range attrs {
		if _, declared := objType.Property(attr); !declared {
			return fmt.Errorf("%w: attribute %q is not declared on %q",
				apperrors.ErrValidation, attr, typeName)
		}
	}
	if s.findIndex(typeName, attrs) != nil {
		return nil
	}

	s.indexSeq++
	idx := newIndex(typeName, attrs, s.indexSeq)
	for _, obj := range s.partitions[typeName] {
		idx.add(obj)
	}
	s.indices[typeName] = append(s.indices[typeName], idx)
	return nil
}

// BestIndexFor selects an index for a conjunctive equality predicate over
// the given attributes: an exact composite covering all of them, else the
// widest composite whose attributes are a subset of them, else the most
// selective single-attribute index over any one of them, else none.
// Ties go to the most recently created index.
func (s *EntityStore) BestIndexFor(typeName string, attrs []string) (string, bool) {
	idx := s.bestIndex(typeName, attrs)
	if idx == nil {
		return "", false
	}
	return idx.id, true
}

// CandidateKeys resolves an equality filter map through the best available
// index. The returned set may be a superset of the final matches when the
// index covers only a subset of the filters; callers re-check every
// predicate against the instances. ok is false when no index covers the
// filters, which means a full scan is required.
func (s *EntityStore) CandidateKeys(typeName string, filters map[string]any) (map[string]struct{}, string, bool) {
	attrs := make([]string, 0, len(filters))
	for attr := range filters {
		attrs = append(attrs, attr)
	}
	idx := s.bestIndex(typeName, attrs)
	if idx == nil {
		return nil, "", false
	}
	vals := make([]any, len(idx.attrs))
	for i, attr := range idx.attrs {
		vals[i] = filters[attr]
	}
	return idx.lookup(vals), idx.id, true
}

func (s *EntityStore) bestIndex(typeName string, attrs []string) *index {
	if len(attrs) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		want[a] = struct{}{}
	}

	// Exact composite match first.
	var best *index
	for _, idx := range s.indices[typeName] {
		if len(idx.attrs) != len(want) || len(idx.attrs) < 2 {
			continue
		}
		if !idx.covers(want) {
			continue
		}
		if best == nil || idx.createdSeq > best.createdSeq {
			best = idx
		}
	}
	if best != nil {
		return best
	}

	// Next, a composite over a strict subset of the predicate attributes.
	// Its candidate set is a superset of the final matches; the query layer
	// re-checks every predicate against the instances. Wider coverage narrows
	// more, so prefer the composite indexing the most attributes.
	for _, idx := range s.indices[typeName] {
		if len(idx.attrs) < 2 || len(idx.attrs) >= len(want) {
			continue
		}
		if !idx.covers(want) {
			continue
		}
		switch {
		case best == nil || len(idx.attrs) > len(best.attrs):
			best = idx
		case len(idx.attrs) == len(best.attrs) && idx.createdSeq > best.createdSeq:
			best = idx
		}
	}
	if best != nil {
		return best
	}

	// Fall back to the most selective single-attribute index. Selectivity is
	// approximated by distinct-value count; more distinct values means fewer
	// keys per value.
	for _, idx := range s.indices[typeName] {
		if len(idx.attrs) != 1 {
			continue
		}
		if _, wanted := want[idx.attrs[0]]; !wanted {
			continue
		}
		if best == nil {
			best = idx
			continue
		}
		switch {
		case idx.distinct() > best.distinct():
			best = idx
		case idx.distinct() == best.distinct() && idx.createdSeq > best.createdSeq:
			best = idx
		}
	}
	return best
}

func (s *EntityStore) findIndex(typeName string, attrs []string) *index {
	want := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		want[a] = struct{}{}
	}
	for _, idx := range s.indices[typeName] {
		if len(idx.attrs) == len(attrs) && idx.covers(want) {
			return idx
		}
	}
	return nil
}

// IndexedKeys returns the key set an index holds for the given attribute
// values. Used by coherence tests; not part of the query path.
func (s *EntityStore) IndexedKeys(typeName string, attrs []string, vals []any) []string {
	idx := s.findIndex(typeName, attrs)
	if idx == nil {
		return nil
	}
	set := idx.lookup(vals)
	out := make([]string, 0, len(set))
	for pk := range set {
		out = append(out, pk)
	}
	sort.Strings(out)
	return out
}
