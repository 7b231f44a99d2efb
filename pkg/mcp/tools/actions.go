package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// MaxBatchSize caps the number of changes accepted in one apply_action call.
const MaxBatchSize = 100

// actionChange is one entry of the apply_action changes array.
type actionChange struct {
	Op         string         `json:"op"`
	ObjectType string         `json:"object_type,omitempty"`
	PrimaryKey string         `json:"primary_key,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	LinkType   string         `json:"link_type,omitempty"`
	SourcePK   string         `json:"source_pk,omitempty"`
	TargetPK   string         `json:"target_pk,omitempty"`
}

// RegisterActionTools registers the write-side MCP tools.
func RegisterActionTools(s *server.MCPServer, deps *Deps) {
	registerApplyActionTool(s, deps)
}

// registerApplyActionTool adds the apply_action tool. The whole batch is
// staged and committed atomically: any rejected change leaves the store
// untouched.
func registerApplyActionTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"apply_action",
		mcp.WithDescription(
			"Apply a batch of changes to the ontology in a single all-or-nothing commit. "+
				"Each change is one of: create_object, update_object, delete_object, "+
				"create_link, delete_link. A create_object without a primary key in its "+
				"properties gets one generated. Links may reference objects created earlier "+
				"in the same batch. "+
				fmt.Sprintf("Maximum %d changes per call.", MaxBatchSize),
		),
		mcp.WithArray(
			"changes",
			mcp.Required(),
			mcp.Description("Ordered list of changes to apply atomically"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"op":          map[string]any{"type": "string", "description": "Operation: create_object, update_object, delete_object, create_link, delete_link"},
					"object_type": map[string]any{"type": "string", "description": "Object type API name (object operations)"},
					"primary_key": map[string]any{"type": "string", "description": "Primary key (update_object and delete_object)"},
					"properties":  map[string]any{"type": "object", "description": "Property values (create_object and update_object)"},
					"link_type":   map[string]any{"type": "string", "description": "Link type API name (link operations)"},
					"source_pk":   map[string]any{"type": "string", "description": "Source primary key (link operations)"},
					"target_pk":   map[string]any{"type": "string", "description": "Target primary key (link operations)"},
				},
				"required": []string{"op"},
			}),
		),
		mcp.WithString(
			"principal",
			mcp.Description("Caller identity checked against the permission gate for gated types"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		changes, err := parseActionChanges(req)
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		if len(changes) == 0 {
			return NewErrorResult("invalid_parameters", "changes array cannot be empty"), nil
		}
		if len(changes) > MaxBatchSize {
			return NewErrorResult("invalid_parameters",
				fmt.Sprintf("too many changes: maximum %d allowed per call, got %d", MaxBatchSize, len(changes))), nil
		}
		principal := getOptionalString(req, "principal")

		action := deps.Ontology.NewAction(principal)
		var createdPKs []string
		for i, change := range changes {
			var stageErr error
			switch change.Op {
			case "create_object":
				var pk string
				pk, stageErr = action.CreateObject(change.ObjectType, change.Properties)
				if stageErr == nil {
					createdPKs = append(createdPKs, pk)
				}
			case "update_object":
				stageErr = action.ModifyObject(change.ObjectType, change.PrimaryKey, change.Properties)
			case "delete_object":
				stageErr = action.DeleteObject(change.ObjectType, change.PrimaryKey)
			case "create_link":
				stageErr = action.CreateLink(change.LinkType, change.SourcePK, change.TargetPK)
			case "delete_link":
				stageErr = action.DeleteLink(change.LinkType, change.SourcePK, change.TargetPK)
			default:
				action.Discard()
				return NewErrorResult("invalid_parameters",
					fmt.Sprintf("change %d: unknown op %q", i, change.Op)), nil
			}
			if stageErr != nil {
				action.Discard()
				if result := EngineErrorResult(stageErr); result != nil {
					return result, nil
				}
				return nil, stageErr
			}
		}

		staged := action.Pending()
		if err := action.Commit(); err != nil {
			deps.Logger.Warn("Action batch rejected",
				zap.String("action_id", action.ID().String()),
				zap.Int("changes", staged),
				zap.Error(err))
			if result := EngineErrorResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}

		deps.Logger.Info("Action batch committed",
			zap.String("action_id", action.ID().String()),
			zap.Int("changes", staged))

		result := struct {
			ActionID   string   `json:"action_id"`
			Applied    int      `json:"applied"`
			CreatedPKs []string `json:"created_primary_keys,omitempty"`
		}{
			ActionID:   action.ID().String(),
			Applied:    staged,
			CreatedPKs: createdPKs,
		}

		jsonResult, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// parseActionChanges decodes the changes argument through JSON so the array
// entries get the same shape validation as a typed request body.
func parseActionChanges(req mcp.CallToolRequest) ([]actionChange, error) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("missing arguments")
	}
	raw, ok := args["changes"]
	if !ok {
		return nil, fmt.Errorf("changes parameter is required")
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid changes array: %w", err)
	}
	var changes []actionChange
	if err := json.Unmarshal(encoded, &changes); err != nil {
		return nil, fmt.Errorf("invalid changes array: %w", err)
	}
	return changes, nil
}
