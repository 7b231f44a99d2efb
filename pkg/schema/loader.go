package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tiw/ontology-fk/pkg/apperrors"
	"github.com/tiw/ontology-fk/pkg/models"
)

// schemaFile is the YAML document shape for declarative schema loading.
// Properties are declared as ordered lists so the file stays readable.
type schemaFile struct {
	ObjectTypes []objectTypeDecl `yaml:"object_types"`
	LinkTypes   []linkTypeDecl   `yaml:"link_types"`
}

type objectTypeDecl struct {
	APIName           string                             `yaml:"api_name"`
	DisplayName       string                             `yaml:"display_name"`
	Description       string                             `yaml:"description"`
	PrimaryKey        string                             `yaml:"primary_key"`
	PermissionGated   bool                               `yaml:"permission_gated"`
	BackingDatasource string                             `yaml:"backing_datasource"`
	Properties        []models.PropertyDefinition        `yaml:"properties"`
	DerivedProperties []models.DerivedPropertyDefinition `yaml:"derived_properties"`
}

type linkTypeDecl struct {
	APIName         string   `yaml:"api_name"`
	DisplayName     string   `yaml:"display_name"`
	Description     string   `yaml:"description"`
	Source          string   `yaml:"source"`
	Target          string   `yaml:"target"`
	Cardinality     string   `yaml:"cardinality"`
	ValidationFuncs []string `yaml:"validation_functions"`
	ScoringFunc     string   `yaml:"scoring_function"`
}

// LoadFile parses a YAML schema document and registers its contents.
// Object types are registered before link types so endpoint checks pass
// regardless of declaration order. Any failure leaves the registry with the
// definitions registered so far; callers wanting all-or-nothing should load
// into a fresh registry.
func (r *Registry) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema file: %w", err)
	}
	return r.LoadYAML(raw)
}

// LoadYAML registers every definition in a YAML schema document.
func (r *Registry) LoadYAML(raw []byte) error {
	var doc schemaFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse schema document: %w", err)
	}

	for _, decl := range doc.ObjectTypes {
		t := &models.ObjectType{
			APIName:           decl.APIName,
			DisplayName:       decl.DisplayName,
			Description:       decl.Description,
			PrimaryKey:        decl.PrimaryKey,
			PermissionGated:   decl.PermissionGated,
			BackingDatasource: decl.BackingDatasource,
			Properties:        make(map[string]models.PropertyDefinition, len(decl.Properties)),
			DerivedProperties: make(map[string]models.DerivedPropertyDefinition, len(decl.DerivedProperties)),
		}
		for _, p := range decl.Properties {
			if _, dup := t.Properties[p.Name]; dup {
				return fmt.Errorf("%w: property %q declared twice in object type %q",
					apperrors.ErrValidation, p.Name, decl.APIName)
			}
			t.Properties[p.Name] = p
		}
		for _, p := range decl.DerivedProperties {
			t.DerivedProperties[p.Name] = p
		}
		if err := r.RegisterObjectType(t); err != nil {
			return err
		}
	}

	for _, decl := range doc.LinkTypes {
		t := &models.LinkType{
			APIName:         decl.APIName,
			DisplayName:     decl.DisplayName,
			Description:     decl.Description,
			SourceType:      decl.Source,
			TargetType:      decl.Target,
			Cardinality:     models.Cardinality(decl.Cardinality),
			ValidationFuncs: decl.ValidationFuncs,
			ScoringFunc:     decl.ScoringFunc,
		}
		if err := r.RegisterLinkType(t); err != nil {
			return err
		}
	}
	return nil
}
