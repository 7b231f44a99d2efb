package store

import (
	"sort"

	"github.com/tiw/ontology-fk/pkg/models"
)

// LinkStore holds every link plus forward and reverse adjacency per link
// type, so traversal never scans the full link list. Endpoint existence is
// checked by the staging layer, not here.
type LinkStore struct {
	byType map[string][]models.Link
	// forward: link type -> source PK -> target PK set
	forward map[string]map[string]map[string]struct{}
	// reverse: link type -> target PK -> source PK set
	reverse map[string]map[string]map[string]struct{}
}

// NewLinkStore creates an empty link store.
func NewLinkStore() *LinkStore {
	return &LinkStore{
		byType:  make(map[string][]models.Link),
		forward: make(map[string]map[string]map[string]struct{}),
		reverse: make(map[string]map[string]map[string]struct{}),
	}
}

// Add records a link. Duplicate (type, source, target) triples are a no-op.
func (s *LinkStore) Add(link models.Link) {
	if s.Has(link) {
		return
	}
	s.byType[link.TypeAPIName] = append(s.byType[link.TypeAPIName], link)
	addAdj(s.forward, link.TypeAPIName, link.SourcePK, link.TargetPK)
	addAdj(s.reverse, link.TypeAPIName, link.TargetPK, link.SourcePK)
}

// Remove deletes a link. Removing an absent link is a no-op.
func (s *LinkStore) Remove(link models.Link) {
	if !s.Has(link) {
		return
	}
	list := s.byType[link.TypeAPIName]
	for i, l := range list {
		if l == link {
			s.byType[link.TypeAPIName] = append(list[:i], list[i+1:]...)
			break
		}
	}
	removeAdj(s.forward, link.TypeAPIName, link.SourcePK, link.TargetPK)
	removeAdj(s.reverse, link.TypeAPIName, link.TargetPK, link.SourcePK)
}

// Has reports whether the exact link exists.
func (s *LinkStore) Has(link models.Link) bool {
	_, ok := s.forward[link.TypeAPIName][link.SourcePK][link.TargetPK]
	return ok
}

// Links returns every link of the given type.
func (s *LinkStore) Links(linkType string) []models.Link {
	return append([]models.Link(nil), s.byType[linkType]...)
}

// TargetsOf returns the target PKs linked from sourcePK, sorted.
func (s *LinkStore) TargetsOf(linkType, sourcePK string) []string {
	return sortedKeys(s.forward[linkType][sourcePK])
}

// SourcesOf returns the source PKs linking to targetPK, sorted.
func (s *LinkStore) SourcesOf(linkType, targetPK string) []string {
	return sortedKeys(s.reverse[linkType][targetPK])
}

// RemoveRefs removes every link of the given type touching pk on either
// side and returns the removed links, so the caller can invalidate caches
// and emit events.
func (s *LinkStore) RemoveRefs(linkType, pk string) []models.Link {
	var removed []models.Link
	for _, target := range s.TargetsOf(linkType, pk) {
		removed = append(removed, models.Link{TypeAPIName: linkType, SourcePK: pk, TargetPK: target})
	}
	for _, source := range s.SourcesOf(linkType, pk) {
		link := models.Link{TypeAPIName: linkType, SourcePK: source, TargetPK: pk}
		// A self-link shows up in both directions; keep it once.
		if source != pk {
			removed = append(removed, link)
		}
	}
	for _, link := range removed {
		s.Remove(link)
	}
	return removed
}

func addAdj(adj map[string]map[string]map[string]struct{}, linkType, from, to string) {
	byFrom := adj[linkType]
	if byFrom == nil {
		byFrom = make(map[string]map[string]struct{})
		adj[linkType] = byFrom
	}
	set := byFrom[from]
	if set == nil {
		set = make(map[string]struct{})
		byFrom[from] = set
	}
	set[to] = struct{}{}
}

func removeAdj(adj map[string]map[string]map[string]struct{}, linkType, from, to string) {
	set := adj[linkType][from]
	delete(set, to)
	if len(set) == 0 {
		delete(adj[linkType], from)
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
