package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/tiw/ontology-fk/pkg/query"
)

// RegisterObjectTools registers the read-side MCP tools: point lookup,
// filtered search, governed traversal, and aggregation.
func RegisterObjectTools(s *server.MCPServer, deps *Deps) {
	registerGetObjectTool(s, deps)
	registerSearchObjectsTool(s, deps)
	registerSearchAroundTool(s, deps)
	registerAggregateObjectsTool(s, deps)
}

// registerGetObjectTool adds the get_object tool for primary-key lookups.
func registerGetObjectTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"get_object",
		mcp.WithDescription(
			"Fetch a single object by object type and primary key. "+
				"Use list_object_types and describe_schema to discover types and their "+
				"primary key attributes.",
		),
		mcp.WithString(
			"object_type",
			mcp.Required(),
			mcp.Description("API name of the object type"),
		),
		mcp.WithString(
			"primary_key",
			mcp.Required(),
			mcp.Description("Primary key value of the object"),
		),
		mcp.WithString(
			"principal",
			mcp.Description("Caller identity checked against the permission gate for gated types"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		typeName, err := req.RequireString("object_type")
		if err != nil {
			return nil, err
		}
		pk, err := req.RequireString("primary_key")
		if err != nil {
			return nil, err
		}
		principal := getOptionalString(req, "principal")

		obj, err := deps.Ontology.ObjectAs(principal, typeName, pk)
		if err != nil {
			if result := EngineErrorResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}

		jsonResult, err := json.Marshal(renderObject(obj))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// registerSearchObjectsTool adds the search_objects tool: equality filters
// resolved through the best available index, with an optional result limit.
func registerSearchObjectsTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"search_objects",
		mcp.WithDescription(
			"Search objects of a type by attribute equality filters. "+
				"Filters combine conjunctively; an empty filter set returns every instance. "+
				"Equality filters use secondary and composite indices when one covers them.",
		),
		mcp.WithString(
			"object_type",
			mcp.Required(),
			mcp.Description("API name of the object type to search"),
		),
		mcp.WithObject(
			"filters",
			mcp.Description("Attribute equality filters as key-value pairs"),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Max objects to return (default: unlimited)"),
		),
		mcp.WithString(
			"principal",
			mcp.Description("Caller identity checked against the permission gate for gated types"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		typeName, err := req.RequireString("object_type")
		if err != nil {
			return nil, err
		}
		principal := getOptionalString(req, "principal")

		set, err := deps.Ontology.ObjectsAs(principal, typeName)
		if err != nil {
			if result := EngineErrorResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}
		for attr, value := range getOptionalObject(req, "filters") {
			set = set.Filter(attr, value)
		}
		if limit, ok := getOptionalFloat(req, "limit"); ok && limit > 0 {
			set = set.Limit(int(limit))
		}

		objs, err := set.All()
		if err != nil {
			if result := EngineErrorResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}

		result := struct {
			Objects []renderedObject `json:"objects"`
			Count   int              `json:"count"`
		}{
			Objects: renderObjects(objs),
			Count:   len(objs),
		}

		jsonResult, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		deps.Logger.Debug("Searched objects",
			zap.String("object_type", typeName),
			zap.Int("count", len(objs)))

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// registerSearchAroundTool adds the search_around tool: traverse a link type
// from a filtered origin set, applying the link's validation functions and
// attaching scoring results to the returned objects.
func registerSearchAroundTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"search_around",
		mcp.WithDescription(
			"Traverse a link type from matching origin objects to the connected objects "+
				"on the far side. Direction is inferred from which endpoint the origin type is. "+
				"Validation functions attached to the link must accept each pair; a scoring "+
				"function's result is included per returned object under 'scores'.",
		),
		mcp.WithString(
			"object_type",
			mcp.Required(),
			mcp.Description("API name of the origin object type"),
		),
		mcp.WithString(
			"link_type",
			mcp.Required(),
			mcp.Description("API name of the link type to traverse"),
		),
		mcp.WithObject(
			"origin_filters",
			mcp.Description("Equality filters selecting the origin objects"),
		),
		mcp.WithObject(
			"result_filters",
			mcp.Description("Equality filters applied to the traversal results"),
		),
		mcp.WithString(
			"principal",
			mcp.Description("Caller identity checked against the permission gate for gated types"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		typeName, err := req.RequireString("object_type")
		if err != nil {
			return nil, err
		}
		linkTypeName, err := req.RequireString("link_type")
		if err != nil {
			return nil, err
		}
		principal := getOptionalString(req, "principal")

		set, err := deps.Ontology.ObjectsAs(principal, typeName)
		if err != nil {
			if result := EngineErrorResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}
		for attr, value := range getOptionalObject(req, "origin_filters") {
			set = set.Filter(attr, value)
		}

		around, err := set.SearchAround(linkTypeName, getOptionalObject(req, "result_filters"))
		if err != nil {
			if result := EngineErrorResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}
		objs, err := around.All()
		if err != nil {
			if result := EngineErrorResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}

		result := struct {
			ObjectType string           `json:"object_type"`
			Objects    []renderedObject `json:"objects"`
			Count      int              `json:"count"`
		}{
			ObjectType: around.ObjectType().APIName,
			Objects:    renderObjects(objs, linkTypeName),
			Count:      len(objs),
		}

		jsonResult, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		deps.Logger.Debug("Traversed link",
			zap.String("object_type", typeName),
			zap.String("link_type", linkTypeName),
			zap.Int("count", len(objs)))

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// registerAggregateObjectsTool adds the aggregate_objects tool reducing one
// attribute over a filtered set.
func registerAggregateObjectsTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"aggregate_objects",
		mcp.WithDescription(
			"Aggregate one attribute over objects matching equality filters. "+
				"Supported functions: sum, avg, max, min, count. "+
				"Objects missing the attribute are skipped; avg/max/min over no values is an error.",
		),
		mcp.WithString(
			"object_type",
			mcp.Required(),
			mcp.Description("API name of the object type"),
		),
		mcp.WithString(
			"attribute",
			mcp.Required(),
			mcp.Description("Attribute to aggregate (ignored for count)"),
		),
		mcp.WithString(
			"function",
			mcp.Required(),
			mcp.Description("Aggregation function: sum, avg, max, min, or count"),
		),
		mcp.WithObject(
			"filters",
			mcp.Description("Attribute equality filters as key-value pairs"),
		),
		mcp.WithString(
			"principal",
			mcp.Description("Caller identity checked against the permission gate for gated types"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		typeName, err := req.RequireString("object_type")
		if err != nil {
			return nil, err
		}
		attr, err := req.RequireString("attribute")
		if err != nil {
			return nil, err
		}
		fnName, err := req.RequireString("function")
		if err != nil {
			return nil, err
		}
		principal := getOptionalString(req, "principal")

		set, err := deps.Ontology.ObjectsAs(principal, typeName)
		if err != nil {
			if result := EngineErrorResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}
		for k, value := range getOptionalObject(req, "filters") {
			set = set.Filter(k, value)
		}

		value, err := set.Aggregate(attr, query.AggregateFunc(fnName))
		if err != nil {
			if result := EngineErrorResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}

		result := struct {
			ObjectType string  `json:"object_type"`
			Attribute  string  `json:"attribute"`
			Function   string  `json:"function"`
			Value      float64 `json:"value"`
		}{
			ObjectType: typeName,
			Attribute:  attr,
			Function:   fnName,
			Value:      value,
		}

		jsonResult, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
