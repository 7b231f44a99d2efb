package query

import (
	"fmt"

	"github.com/tiw/ontology-fk/pkg/apperrors"
	"github.com/tiw/ontology-fk/pkg/models"
)

// SearchAround traverses the named link type from every instance matched by
// the plan and returns a new set over the far type. Direction is inferred:
// forward when the plan's type is the link's source, reverse when it is the
// link's target (forward wins for self-links).
//
// For each resolved pair the link type's validation functions all have to
// accept it; a declared scoring function's result is attached to the
// returned instance's runtime metadata under the link type name and never
// blocks inclusion. extraFilters are equality filters applied to survivors.
// A governance function error aborts the whole traversal with no partial
// results.
func (s *ObjectSet) SearchAround(linkTypeName string, extraFilters map[string]any) (*ObjectSet, error) {
	reg := s.backend.SchemaRegistry()
	linkType, ok := reg.LinkType(linkTypeName)
	if !ok {
		return nil, fmt.Errorf("%w: link type %q", apperrors.ErrNotFound, linkTypeName)
	}

	forward := linkType.SourceType == s.objectType.APIName
	if !forward && linkType.TargetType != s.objectType.APIName {
		return nil, fmt.Errorf("%w: link type %q does not connect to %q",
			apperrors.ErrValidation, linkTypeName, s.objectType.APIName)
	}
	farTypeName := linkType.TargetType
	if !forward {
		farTypeName = linkType.SourceType
	}
	farType, ok := reg.ObjectType(farTypeName)
	if !ok {
		return nil, fmt.Errorf("%w: object type %q", apperrors.ErrNotFound, farTypeName)
	}

	origins, err := s.All()
	if err != nil {
		return nil, err
	}

	st := s.backend.EntityStore()
	links := s.backend.LinkStore()
	seen := make(map[string]struct{})
	var results []*models.ObjectInstance

	for _, origin := range origins {
		var farPKs []string
		if forward {
			farPKs = links.TargetsOf(linkTypeName, origin.PrimaryKey)
		} else {
			farPKs = links.SourcesOf(linkTypeName, origin.PrimaryKey)
		}
		for _, pk := range farPKs {
			far, present := st.Get(farTypeName, pk)
			if !present {
				continue
			}
			// Governance functions always see the link's (source, target)
			// orientation, independent of traversal direction.
			source, target := origin, far
			if !forward {
				source, target = far, origin
			}

			pass, err := s.runValidations(linkType, source, target)
			if err != nil {
				return nil, err
			}
			if !pass {
				continue
			}
			if err := s.attachScore(linkType, source, target, far); err != nil {
				return nil, err
			}
			if _, dup := seen[far.PrimaryKey]; dup {
				continue
			}
			seen[far.PrimaryKey] = struct{}{}
			results = append(results, far)
		}
	}

	for attr, value := range extraFilters {
		results = filterInstances(results, []predicate{{attr: attr, op: OpEq, value: value}})
	}
	return newEagerSet(s.backend, farType, s.principal, results), nil
}

func (s *ObjectSet) runValidations(linkType *models.LinkType, source, target *models.ObjectInstance) (bool, error) {
	for _, name := range linkType.ValidationFuncs {
		fn, err := s.backend.Functions().Validation(name)
		if err != nil {
			return false, err
		}
		result, err := fn(source, target)
		if err != nil {
			return false, fmt.Errorf("%w: validation %q on link %q: %v",
				apperrors.ErrGovernanceFunction, name, linkType.APIName, err)
		}
		if !result.Valid {
			return false, nil
		}
	}
	return true, nil
}

// attachScore stores the scoring result on the instance the traversal
// returns, so score metadata only ever appears on returned entities.
func (s *ObjectSet) attachScore(linkType *models.LinkType, source, target, returned *models.ObjectInstance) error {
	if linkType.ScoringFunc == "" {
		return nil
	}
	fn, err := s.backend.Functions().Scoring(linkType.ScoringFunc)
	if err != nil {
		return err
	}
	score, err := fn(source, target)
	if err != nil {
		return fmt.Errorf("%w: scoring %q on link %q: %v",
			apperrors.ErrGovernanceFunction, linkType.ScoringFunc, linkType.APIName, err)
	}
	returned.Annotate("score:"+linkType.APIName, score)
	return nil
}
