package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"taskdesk/server/internal/logging"
)

const genericFailureMessage = "Operation failed. Please try again."

// Registry is the immutable operation catalog plus dispatcher. Built once at
// startup and shared read-only across requests.
type Registry struct {
	byName map[string]Tool
	names  []string
	log    *slog.Logger
}

func NewRegistry(log *slog.Logger, all ...Tool) (*Registry, error) {
	if log == nil {
		log = logging.Discard()
	}
	byName := make(map[string]Tool, len(all))
	names := make([]string, 0, len(all))
	for _, tool := range all {
		if tool == nil {
			return nil, fmt.Errorf("nil tool in catalog")
		}
		name := strings.TrimSpace(tool.Name())
		if name == "" {
			return nil, fmt.Errorf("tool name is required")
		}
		if _, exists := byName[name]; exists {
			return nil, fmt.Errorf("tool %q already registered", name)
		}
		byName[name] = tool
		names = append(names, name)
	}
	slices.Sort(names)
	return &Registry{byName: byName, names: names, log: log}, nil
}

// Specs returns the catalog's operation declarations in name order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.byName[name].Spec())
	}
	return out
}

// Dispatch validates and executes one operation on behalf of ownerID and
// normalizes the outcome into a Result. An implementation panic or internal
// error never escapes: it is logged and reduced to a generic failure.
func (r *Registry) Dispatch(ctx context.Context, ownerID, name string, input json.RawMessage) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("operation panicked", "tool", name, "panic", fmt.Sprint(rec))
			result = Result{Success: false, Error: genericFailureMessage}
		}
	}()

	tool, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return Result{Success: false, Error: fmt.Sprintf("Unknown operation %q", name)}
	}

	data, opErr := tool.Execute(ctx, ownerID, input)
	if opErr != nil {
		switch opErr.Kind {
		case KindInvalidInput:
			return Result{Success: false, Error: "Invalid input: " + opErr.Message}
		case KindNotFound:
			return Result{Success: false, Error: opErr.Message}
		default:
			r.log.Error("operation failed", "tool", name, "error", opErr.Message)
			return Result{Success: false, Error: genericFailureMessage}
		}
	}
	return Result{Success: true, Data: data}
}

// decodeInput strictly unmarshals an operation input, rejecting unknown
// fields and type mismatches as caller-correctable errors.
func decodeInput(raw json.RawMessage, dst any) *OpError {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage(`{}`)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalidInput(err.Error())
	}
	return nil
}
