package schema

import (
	"sort"

	"github.com/tiw/ontology-fk/pkg/models"
)

// Export documents are the serializable rendering of the whole schema,
// consumed by the agent/tool surface.

type ExportedProperty struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
	Derived     bool   `json:"derived,omitempty"`
}

type ExportedObjectType struct {
	APIName     string             `json:"api_name"`
	DisplayName string             `json:"display_name"`
	Description string             `json:"description,omitempty"`
	PrimaryKey  string             `json:"primary_key"`
	Properties  []ExportedProperty `json:"properties"`
}

type ExportedLinkType struct {
	APIName         string   `json:"api_name"`
	DisplayName     string   `json:"display_name"`
	Description     string   `json:"description,omitempty"`
	Source          string   `json:"source"`
	Target          string   `json:"target"`
	Cardinality     string   `json:"cardinality,omitempty"`
	ValidationFuncs []string `json:"validation_functions,omitempty"`
	ScoringFunc     string   `json:"scoring_function,omitempty"`
}

type ExportedSchema struct {
	ObjectTypes []ExportedObjectType `json:"object_types"`
	LinkTypes   []ExportedLinkType   `json:"link_types"`
}

// Export renders the registered schema in a stable order.
func (r *Registry) Export() ExportedSchema {
	var out ExportedSchema
	for _, name := range r.ObjectTypeNames() {
		t := r.objectTypes[name]
		exported := ExportedObjectType{
			APIName:     t.APIName,
			DisplayName: t.DisplayNameOrDefault(),
			Description: t.Description,
			PrimaryKey:  t.PrimaryKey,
		}
		for _, p := range sortedProperties(t.Properties) {
			exported.Properties = append(exported.Properties, ExportedProperty{
				Name:        p.Name,
				Kind:        string(p.Kind),
				Description: p.Description,
			})
		}
		for _, p := range sortedDerived(t.DerivedProperties) {
			exported.Properties = append(exported.Properties, ExportedProperty{
				Name:        p.Name,
				Kind:        string(p.Kind),
				Description: p.Description,
				Derived:     true,
			})
		}
		out.ObjectTypes = append(out.ObjectTypes, exported)
	}
	for _, name := range r.LinkTypeNames() {
		t := r.linkTypes[name]
		display := t.DisplayName
		if display == "" {
			display = t.APIName
		}
		out.LinkTypes = append(out.LinkTypes, ExportedLinkType{
			APIName:         t.APIName,
			DisplayName:     display,
			Description:     t.Description,
			Source:          t.SourceType,
			Target:          t.TargetType,
			Cardinality:     string(t.Cardinality),
			ValidationFuncs: t.ValidationFuncs,
			ScoringFunc:     t.ScoringFunc,
		})
	}
	return out
}

// Restrict returns a copy holding only the named object type and the link
// types with an endpoint on it.
func (s ExportedSchema) Restrict(typeName string) ExportedSchema {
	var out ExportedSchema
	for _, t := range s.ObjectTypes {
		if t.APIName == typeName {
			out.ObjectTypes = append(out.ObjectTypes, t)
		}
	}
	for _, lt := range s.LinkTypes {
		if lt.Source == typeName || lt.Target == typeName {
			out.LinkTypes = append(out.LinkTypes, lt)
		}
	}
	return out
}

func sortedProperties(m map[string]models.PropertyDefinition) []models.PropertyDefinition {
	out := make([]models.PropertyDefinition, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedDerived(m map[string]models.DerivedPropertyDefinition) []models.DerivedPropertyDefinition {
	out := make([]models.DerivedPropertyDefinition, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
