// Package functions is the typed function table behind traversal governance
// and derived properties. Functions are registered under a unique name and
// dispatched by the engine with positional object arguments; the engine only
// knows their declared role (validation, scoring, derived), never their
// implementation.
package functions

import (
	"fmt"

	"github.com/tiw/ontology-fk/pkg/apperrors"
	"github.com/tiw/ontology-fk/pkg/models"
)

// ValidationResult is the structured result of a validation function.
// A plain boolean false and Valid=false are equivalent exclusions.
type ValidationResult struct {
	Valid  bool
	Detail string
}

// Validation decides whether a (source, target) pair survives traversal.
type Validation func(source, target *models.ObjectInstance) (ValidationResult, error)

// Scoring computes a numeric score for a (source, target) pair. The score is
// attached to the target as runtime metadata and never blocks inclusion.
type Scoring func(source, target *models.ObjectInstance) (float64, error)

// Derived computes a derived property value for one object on read.
type Derived func(obj *models.ObjectInstance) (any, error)

// Registry maps function names to typed closures. Registration is
// append-only; registering an existing name fails.
type Registry struct {
	validations map[string]Validation
	scorings    map[string]Scoring
	deriveds    map[string]Derived
}

// NewRegistry creates an empty function registry.
func NewRegistry() *Registry {
	return &Registry{
		validations: make(map[string]Validation),
		scorings:    make(map[string]Scoring),
		deriveds:    make(map[string]Derived),
	}
}

// RegisterValidation adds a validation function under name.
func (r *Registry) RegisterValidation(name string, fn Validation) error {
	if err := r.checkName(name); err != nil {
		return err
	}
	r.validations[name] = fn
	return nil
}

// RegisterScoring adds a scoring function under name.
func (r *Registry) RegisterScoring(name string, fn Scoring) error {
	if err := r.checkName(name); err != nil {
		return err
	}
	r.scorings[name] = fn
	return nil
}

// RegisterDerived adds a derived-property function under name.
func (r *Registry) RegisterDerived(name string, fn Derived) error {
	if err := r.checkName(name); err != nil {
		return err
	}
	r.deriveds[name] = fn
	return nil
}

// Validation looks up a validation function by name.
func (r *Registry) Validation(name string) (Validation, error) {
	fn, ok := r.validations[name]
	if !ok {
		return nil, fmt.Errorf("%w: validation function %q", apperrors.ErrNotFound, name)
	}
	return fn, nil
}

// Scoring looks up a scoring function by name.
func (r *Registry) Scoring(name string) (Scoring, error) {
	fn, ok := r.scorings[name]
	if !ok {
		return nil, fmt.Errorf("%w: scoring function %q", apperrors.ErrNotFound, name)
	}
	return fn, nil
}

// Derived looks up a derived-property function by name.
func (r *Registry) Derived(name string) (Derived, error) {
	fn, ok := r.deriveds[name]
	if !ok {
		return nil, fmt.Errorf("%w: derived function %q", apperrors.ErrNotFound, name)
	}
	return fn, nil
}

// Has reports whether any function is registered under name.
func (r *Registry) Has(name string) bool {
	if _, ok := r.validations[name]; ok {
		return true
	}
	if _, ok := r.scorings[name]; ok {
		return true
	}
	_, ok := r.deriveds[name]
	return ok
}

func (r *Registry) checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: function requires a name", apperrors.ErrValidation)
	}
	if r.Has(name) {
		return fmt.Errorf("%w: function %q", apperrors.ErrDuplicateDefinition, name)
	}
	return nil
}
