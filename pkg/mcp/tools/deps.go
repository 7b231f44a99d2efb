// Package tools provides the MCP tool implementations over the ontology
// engine: schema discovery, point reads, filtered search, governed
// traversal, aggregation, and batched writes through the staging layer.
package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/tiw/ontology-fk/pkg/models"
	"github.com/tiw/ontology-fk/pkg/ontology"
)

// Deps contains dependencies shared by every ontology tool.
type Deps struct {
	Ontology *ontology.Ontology
	Logger   *zap.Logger
}

// renderedObject is the wire shape of one instance in tool results.
type renderedObject struct {
	ObjectType string         `json:"object_type"`
	PrimaryKey string         `json:"primary_key"`
	Properties map[string]any `json:"properties"`
	Scores     map[string]any `json:"scores,omitempty"`
}

// renderObject converts an instance for JSON output. Traversal scores are
// pulled from runtime metadata when linkTypes names the links to look for.
func renderObject(obj *models.ObjectInstance, linkTypes ...string) renderedObject {
	out := renderedObject{
		ObjectType: obj.TypeAPIName,
		PrimaryKey: obj.PrimaryKey,
		Properties: obj.Properties,
	}
	for _, lt := range linkTypes {
		if score, ok := obj.Annotation("score:" + lt); ok {
			if out.Scores == nil {
				out.Scores = make(map[string]any)
			}
			out.Scores[lt] = score
		}
	}
	return out
}

func renderObjects(objs []*models.ObjectInstance, linkTypes ...string) []renderedObject {
	out := make([]renderedObject, len(objs))
	for i, obj := range objs {
		out[i] = renderObject(obj, linkTypes...)
	}
	return out
}

// getOptionalString extracts an optional string argument from the request.
func getOptionalString(req mcp.CallToolRequest, key string) string {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return ""
	}
	val, ok := args[key].(string)
	if !ok {
		return ""
	}
	return val
}

// getOptionalFloat extracts an optional float argument from the request.
func getOptionalFloat(req mcp.CallToolRequest, key string) (float64, bool) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return 0, false
	}
	val, ok := args[key].(float64)
	return val, ok
}

// getOptionalObject extracts an optional object argument from the request.
func getOptionalObject(req mcp.CallToolRequest, key string) map[string]any {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil
	}
	val, ok := args[key].(map[string]any)
	if !ok {
		return nil
	}
	return val
}
