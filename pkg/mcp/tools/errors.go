package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tiw/ontology-fk/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results. Actionable
// errors (bad parameters, unknown types, rejected batches) are returned as
// successful tool results carrying this payload so the calling agent can
// see and fix them; system failures still surface as Go errors.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResult creates a tool result containing a structured error.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// EngineErrorResult maps an engine error to a structured tool result, or
// nil when the error is not one of the engine's sentinel kinds and should
// be returned as a Go error instead.
func EngineErrorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResult("not_found", err.Error())
	case errors.Is(err, apperrors.ErrDuplicateDefinition):
		return NewErrorResult("duplicate_definition", err.Error())
	case errors.Is(err, apperrors.ErrValidation):
		return NewErrorResult("validation_error", err.Error())
	case errors.Is(err, apperrors.ErrDanglingReference):
		return NewErrorResult("dangling_reference", err.Error())
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return NewErrorResult("permission_denied", err.Error())
	case errors.Is(err, apperrors.ErrAggregation):
		return NewErrorResult("aggregation_error", err.Error())
	case errors.Is(err, apperrors.ErrGovernanceFunction):
		return NewErrorResult("governance_function_error", err.Error())
	}
	return nil
}
