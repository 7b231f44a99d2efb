package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// RegisterSchemaTools registers schema discovery MCP tools.
func RegisterSchemaTools(s *server.MCPServer, deps *Deps) {
	registerListObjectTypesTool(s, deps)
	registerDescribeSchemaTool(s, deps)
}

// registerListObjectTypesTool adds the list_object_types tool for discovering
// registered entity types. Returns a lightweight name list for discovery.
func registerListObjectTypesTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"list_object_types",
		mcp.WithDescription(
			"List all registered object types and link types in the ontology. "+
				"Returns API names only, for discovery. "+
				"To see properties, primary keys, and link endpoints, use describe_schema.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reg := deps.Ontology.SchemaRegistry()

		result := struct {
			ObjectTypes []string `json:"object_types"`
			LinkTypes   []string `json:"link_types"`
		}{
			ObjectTypes: reg.ObjectTypeNames(),
			LinkTypes:   reg.LinkTypeNames(),
		}

		jsonResult, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// registerDescribeSchemaTool adds the describe_schema tool returning the full
// schema export: every type with its properties, primary key, derived
// properties, and every link type with endpoints and governance functions.
func registerDescribeSchemaTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"describe_schema",
		mcp.WithDescription(
			"Describe the full ontology schema: object types with their properties, "+
				"primary keys, and derived properties, plus link types with source, target, "+
				"cardinality, and attached governance functions. "+
				"Use list_object_types first if you only need names.",
		),
		mcp.WithString(
			"object_type",
			mcp.Description("Optionally restrict the description to one object type and the link types touching it"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reg := deps.Ontology.SchemaRegistry()
		exported := reg.Export()

		if typeName := getOptionalString(req, "object_type"); typeName != "" {
			if _, ok := reg.ObjectType(typeName); !ok {
				return NewErrorResult("not_found",
					fmt.Sprintf("object type %q is not registered", typeName)), nil
			}
			exported = exported.Restrict(typeName)
		}

		jsonResult, err := json.Marshal(exported)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		deps.Logger.Debug("Described schema",
			zap.Int("object_types", len(exported.ObjectTypes)),
			zap.Int("link_types", len(exported.LinkTypes)))

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
