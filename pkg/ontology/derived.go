package ontology

import (
	"fmt"
	"time"

	"github.com/tiw/ontology-fk/pkg/apperrors"
	"github.com/tiw/ontology-fk/pkg/models"
)

type memoizedValue struct {
	value      any
	computedAt time.Time
}

// ResolveProperty returns a property value, computing derived properties
// through their backing function. Derived values are memoized on the
// instance's runtime metadata for the engine's derived TTL; they are never
// stored, indexed, or persisted.
func (o *Ontology) ResolveProperty(obj *models.ObjectInstance, name string) (any, error) {
	if v, ok := obj.Get(name); ok {
		return v, nil
	}
	objType, ok := o.registry.ObjectType(obj.TypeAPIName)
	if !ok {
		return nil, fmt.Errorf("%w: object type %q", apperrors.ErrNotFound, obj.TypeAPIName)
	}
	derived, ok := objType.DerivedProperties[name]
	if !ok {
		return nil, fmt.Errorf("%w: property %q on %q", apperrors.ErrNotFound, name, obj.TypeAPIName)
	}

	memoKey := "derived:" + name
	if raw, ok := obj.Annotation(memoKey); ok {
		if memo, ok := raw.(memoizedValue); ok && o.now().Sub(memo.computedAt) < o.derivedTTL {
			return memo.value, nil
		}
		obj.ClearAnnotation(memoKey)
	}

	fn, err := o.functions.Derived(derived.BackingFunc)
	if err != nil {
		return nil, err
	}
	value, err := fn(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: derived %q via %q: %v",
			apperrors.ErrGovernanceFunction, name, derived.BackingFunc, err)
	}
	obj.Annotate(memoKey, memoizedValue{value: value, computedAt: o.now()})
	return value, nil
}
