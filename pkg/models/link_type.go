package models

import (
	"fmt"

	"github.com/tiw/ontology-fk/pkg/apperrors"
)

// Cardinality tags the expected shape of a link type. Informational only;
// the store never enforces it structurally.
type Cardinality string

const (
	OneToOne   Cardinality = "ONE_TO_ONE"
	OneToMany  Cardinality = "ONE_TO_MANY"
	ManyToMany Cardinality = "MANY_TO_MANY"
)

// LinkType is the schema definition for a directed relationship between two
// object types. Validation functions and the scoring function are invoked
// automatically during traversal.
type LinkType struct {
	APIName     string      `yaml:"api_name" json:"api_name"`
	DisplayName string      `yaml:"display_name,omitempty" json:"display_name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	SourceType  string      `yaml:"source" json:"source"`
	TargetType  string      `yaml:"target" json:"target"`
	Cardinality Cardinality `yaml:"cardinality,omitempty" json:"cardinality"`

	// ValidationFuncs name registered validation functions. During traversal
	// every one of them must accept a (source, target) pair for the target to
	// be included.
	ValidationFuncs []string `yaml:"validation_functions,omitempty" json:"validation_functions,omitempty"`

	// ScoringFunc optionally names a registered scoring function whose result
	// is attached to traversal targets as runtime metadata.
	ScoringFunc string `yaml:"scoring_function,omitempty" json:"scoring_function,omitempty"`
}

// Validate checks the structural invariants of the definition.
func (t *LinkType) Validate() error {
	if t.APIName == "" {
		return fmt.Errorf("%w: link type requires an api_name", apperrors.ErrValidation)
	}
	if t.SourceType == "" || t.TargetType == "" {
		return fmt.Errorf("%w: link type %q requires source and target types",
			apperrors.ErrValidation, t.APIName)
	}
	switch t.Cardinality {
	case "", OneToOne, OneToMany, ManyToMany:
	default:
		return fmt.Errorf("%w: link type %q has unknown cardinality %q",
			apperrors.ErrValidation, t.APIName, t.Cardinality)
	}
	return nil
}

// Link is one directed edge: an ordered (link type, source PK, target PK)
// triple with no payload.
type Link struct {
	TypeAPIName string `json:"link_type"`
	SourcePK    string `json:"source_pk"`
	TargetPK    string `json:"target_pk"`
}
