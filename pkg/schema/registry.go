// Package schema is the registry of object-type and link-type definitions.
// Every other component consults it to validate shapes. Definitions are
// write-once: re-registering a name is always an error, and nothing supports
// mutation after registration.
package schema

import (
	"fmt"
	"sort"

	"github.com/tiw/ontology-fk/pkg/apperrors"
	"github.com/tiw/ontology-fk/pkg/models"
)

// Registry owns the schema. One registry per ontology instance; no globals.
type Registry struct {
	objectTypes map[string]*models.ObjectType
	linkTypes   map[string]*models.LinkType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		objectTypes: make(map[string]*models.ObjectType),
		linkTypes:   make(map[string]*models.LinkType),
	}
}

// RegisterObjectType validates and records an object type definition.
func (r *Registry) RegisterObjectType(t *models.ObjectType) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, exists := r.objectTypes[t.APIName]; exists {
		return fmt.Errorf("%w: object type %q", apperrors.ErrDuplicateDefinition, t.APIName)
	}
	r.objectTypes[t.APIName] = t
	return nil
}

// RegisterLinkType validates and records a link type definition. Both
// endpoint object types must already be registered.
func (r *Registry) RegisterLinkType(t *models.LinkType) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, exists := r.linkTypes[t.APIName]; exists {
		return fmt.Errorf("%w: link type %q", apperrors.ErrDuplicateDefinition, t.APIName)
	}
	if _, ok := r.objectTypes[t.SourceType]; !ok {
		return fmt.Errorf("%w: source object type %q of link type %q",
			apperrors.ErrNotFound, t.SourceType, t.APIName)
	}
	if _, ok := r.objectTypes[t.TargetType]; !ok {
		return fmt.Errorf("%w: target object type %q of link type %q",
			apperrors.ErrNotFound, t.TargetType, t.APIName)
	}
	r.linkTypes[t.APIName] = t
	return nil
}

// ObjectType looks up an object type definition by API name.
func (r *Registry) ObjectType(apiName string) (*models.ObjectType, bool) {
	t, ok := r.objectTypes[apiName]
	return t, ok
}

// LinkType looks up a link type definition by API name.
func (r *Registry) LinkType(apiName string) (*models.LinkType, bool) {
	t, ok := r.linkTypes[apiName]
	return t, ok
}

// ObjectTypeNames returns the registered object type names, sorted.
func (r *Registry) ObjectTypeNames() []string {
	names := make([]string, 0, len(r.objectTypes))
	for name := range r.objectTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LinkTypeNames returns the registered link type names, sorted.
func (r *Registry) LinkTypeNames() []string {
	names := make([]string, 0, len(r.linkTypes))
	for name := range r.linkTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LinkTypesFor returns every link type touching the given object type in
// either direction, sorted by API name.
func (r *Registry) LinkTypesFor(objectType string) []*models.LinkType {
	var out []*models.LinkType
	for _, name := range r.LinkTypeNames() {
		lt := r.linkTypes[name]
		if lt.SourceType == objectType || lt.TargetType == objectType {
			out = append(out, lt)
		}
	}
	return out
}
