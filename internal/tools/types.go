package tools

import (
	"context"
	"encoding/json"
)

// Spec declares one operation to the reasoning engine: a name, a
// natural-language description and a JSON-schema parameters object.
type Spec struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Result is the uniform envelope every dispatched operation returns.
type Result struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Record is one immutable audit entry: the operation, the input as submitted
// to the dispatcher, and the envelope as returned.
type Record struct {
	ToolName string          `json:"tool_name"`
	Input    json.RawMessage `json:"input"`
	Result   Result          `json:"result"`
}

type ErrorKind string

const (
	KindUnknownOperation ErrorKind = "unknown_operation"
	KindInvalidInput     ErrorKind = "invalid_input"
	KindNotFound         ErrorKind = "not_found"
	KindExecutionFailed  ErrorKind = "execution_failed"
)

// OpError is the typed failure an operation implementation reports. The
// dispatcher maps it into the envelope; only invalid-input and not-found
// messages reach the caller verbatim.
type OpError struct {
	Kind    ErrorKind
	Message string
}

func (e *OpError) Error() string {
	if e == nil {
		return "unknown error"
	}
	return e.Message
}

func invalidInput(message string) *OpError {
	return &OpError{Kind: KindInvalidInput, Message: message}
}

func notFound(message string) *OpError {
	return &OpError{Kind: KindNotFound, Message: message}
}

func executionFailed(message string) *OpError {
	return &OpError{Kind: KindExecutionFailed, Message: message}
}

// Tool is one identity-scoped operation. Implementations receive the owner
// id from the dispatcher, never from their input payload.
type Tool interface {
	Name() string
	Spec() Spec
	Execute(ctx context.Context, ownerID string, input json.RawMessage) (map[string]any, *OpError)
}
