package models

import (
	"fmt"
	"time"

	"github.com/tiw/ontology-fk/pkg/apperrors"
)

// PropertyKind identifies the primitive kind of a declared property.
type PropertyKind string

const (
	KindString    PropertyKind = "string"
	KindInteger   PropertyKind = "integer"
	KindDouble    PropertyKind = "double"
	KindBoolean   PropertyKind = "boolean"
	KindDate      PropertyKind = "date"
	KindTimestamp PropertyKind = "timestamp"
)

// Valid reports whether k is one of the declared primitive kinds.
func (k PropertyKind) Valid() bool {
	switch k {
	case KindString, KindInteger, KindDouble, KindBoolean, KindDate, KindTimestamp:
		return true
	}
	return false
}

// Numeric reports whether values of this kind can feed numeric aggregations.
func (k PropertyKind) Numeric() bool {
	return k == KindInteger || k == KindDouble
}

// PropertyDefinition describes one declared property of an object type.
type PropertyDefinition struct {
	Name        string       `yaml:"name" json:"name"`
	Kind        PropertyKind `yaml:"kind" json:"kind"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
}

// DerivedPropertyDefinition describes a property computed on read by a
// registered function rather than stored on the instance.
type DerivedPropertyDefinition struct {
	Name        string       `yaml:"name" json:"name"`
	Kind        PropertyKind `yaml:"kind" json:"kind"`
	BackingFunc string       `yaml:"backing_function" json:"backing_function"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
}

// CheckValue verifies that v is acceptable for the property's declared kind.
// nil is always accepted; absence is modeled by omitting the key entirely.
func (p PropertyDefinition) CheckValue(v any) error {
	if v == nil {
		return nil
	}
	switch p.Kind {
	case KindString:
		if _, ok := v.(string); !ok {
			return kindMismatch(p.Name, p.Kind, v)
		}
	case KindInteger:
		switch v.(type) {
		case int, int32, int64:
		default:
			return kindMismatch(p.Name, p.Kind, v)
		}
	case KindDouble:
		switch v.(type) {
		case float32, float64, int, int32, int64:
		default:
			return kindMismatch(p.Name, p.Kind, v)
		}
	case KindBoolean:
		if _, ok := v.(bool); !ok {
			return kindMismatch(p.Name, p.Kind, v)
		}
	case KindDate, KindTimestamp:
		switch v.(type) {
		case time.Time, string:
		default:
			return kindMismatch(p.Name, p.Kind, v)
		}
	default:
		return fmt.Errorf("%w: property %q has unknown kind %q", apperrors.ErrValidation, p.Name, p.Kind)
	}
	return nil
}

func kindMismatch(name string, kind PropertyKind, v any) error {
	return fmt.Errorf("%w: property %q expects %s, got %T", apperrors.ErrValidation, name, kind, v)
}

// NumericValue converts a stored property value to float64 for aggregation.
// The second return is false when the value is not numeric.
func NumericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
