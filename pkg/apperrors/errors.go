// Package apperrors defines the sentinel errors shared across the engine.
// Callers match them with errors.Is; layers add context with fmt.Errorf("%w").
package apperrors

import "errors"

var (
	ErrDuplicateDefinition = errors.New("duplicate definition")
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrDanglingReference   = errors.New("dangling reference")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrAggregation         = errors.New("aggregation failed")
	ErrGovernanceFunction  = errors.New("governance function failed")
)
