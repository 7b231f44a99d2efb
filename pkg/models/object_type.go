// Package models holds the schema and instance types of the object graph
// engine: object types, link types, object instances, links, and the typed
// function signatures used for traversal governance and derived properties.
package models

import (
	"fmt"

	"github.com/jinzhu/inflection"

	"github.com/tiw/ontology-fk/pkg/apperrors"
)

// ObjectType is the schema definition for one kind of business entity.
// Definitions are immutable once registered.
type ObjectType struct {
	APIName     string `yaml:"api_name" json:"api_name"`
	DisplayName string `yaml:"display_name,omitempty" json:"display_name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	Properties        map[string]PropertyDefinition        `yaml:"-" json:"-"`
	DerivedProperties map[string]DerivedPropertyDefinition `yaml:"-" json:"-"`

	// PrimaryKey names the declared property used as the instance key.
	// Values of that property are immutable after creation.
	PrimaryKey string `yaml:"primary_key" json:"primary_key"`

	// PermissionGated marks the type as subject to the external ACL gate.
	PermissionGated bool `yaml:"permission_gated,omitempty" json:"permission_gated,omitempty"`

	// BackingDatasource is an opaque reference to an external data source.
	// The engine stores it but never interprets it.
	BackingDatasource string `yaml:"backing_datasource,omitempty" json:"backing_datasource,omitempty"`
}

// NewObjectType creates an ObjectType with empty property maps.
func NewObjectType(apiName, primaryKey string) *ObjectType {
	return &ObjectType{
		APIName:           apiName,
		DisplayName:       apiName,
		PrimaryKey:        primaryKey,
		Properties:        make(map[string]PropertyDefinition),
		DerivedProperties: make(map[string]DerivedPropertyDefinition),
	}
}

// AddProperty declares a stored property. Returns the receiver for chaining.
func (t *ObjectType) AddProperty(name string, kind PropertyKind) *ObjectType {
	if t.Properties == nil {
		t.Properties = make(map[string]PropertyDefinition)
	}
	t.Properties[name] = PropertyDefinition{Name: name, Kind: kind}
	return t
}

// AddDerivedProperty declares a property computed by a registered function.
func (t *ObjectType) AddDerivedProperty(name string, kind PropertyKind, backingFunc string) *ObjectType {
	if t.DerivedProperties == nil {
		t.DerivedProperties = make(map[string]DerivedPropertyDefinition)
	}
	t.DerivedProperties[name] = DerivedPropertyDefinition{Name: name, Kind: kind, BackingFunc: backingFunc}
	return t
}

// Validate checks the structural invariants of the definition: the primary
// key must be a declared property, every kind must be known, and derived
// property names must not collide with stored ones.
func (t *ObjectType) Validate() error {
	if t.APIName == "" {
		return fmt.Errorf("%w: object type requires an api_name", apperrors.ErrValidation)
	}
	if t.PrimaryKey == "" {
		return fmt.Errorf("%w: object type %q requires a primary key", apperrors.ErrValidation, t.APIName)
	}
	if _, ok := t.Properties[t.PrimaryKey]; !ok {
		return fmt.Errorf("%w: primary key %q is not a declared property of %q",
			apperrors.ErrValidation, t.PrimaryKey, t.APIName)
	}
	for name, prop := range t.Properties {
		if !prop.Kind.Valid() {
			return fmt.Errorf("%w: property %q of %q has unknown kind %q",
				apperrors.ErrValidation, name, t.APIName, prop.Kind)
		}
	}
	for name, prop := range t.DerivedProperties {
		if !prop.Kind.Valid() {
			return fmt.Errorf("%w: derived property %q of %q has unknown kind %q",
				apperrors.ErrValidation, name, t.APIName, prop.Kind)
		}
		if prop.BackingFunc == "" {
			return fmt.Errorf("%w: derived property %q of %q has no backing function",
				apperrors.ErrValidation, name, t.APIName)
		}
		if _, clash := t.Properties[name]; clash {
			return fmt.Errorf("%w: derived property %q of %q collides with a stored property",
				apperrors.ErrValidation, name, t.APIName)
		}
	}
	return nil
}

// Property returns the stored property definition, if declared.
func (t *ObjectType) Property(name string) (PropertyDefinition, bool) {
	p, ok := t.Properties[name]
	return p, ok
}

// DisplayNameOrDefault returns the display name, falling back to the
// pluralized API name for collection-style surfaces.
func (t *ObjectType) DisplayNameOrDefault() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return inflection.Plural(t.APIName)
}
