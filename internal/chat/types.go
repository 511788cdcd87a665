package chat

import (
	"context"
	"encoding/json"

	"taskdesk/server/internal/tools"
)

// TranscriptMessage is one entry in the transcript sent to the reasoning
// engine. Role is "system", "user" or "assistant"; tool results travel back
// as user-role text, so the engine contract never carries provider-specific
// tool plumbing.
type TranscriptMessage struct {
	Role    string
	Content string
}

// ToolRequest is one operation the engine asked for by name.
type ToolRequest struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

type CompletionRequest struct {
	Messages []TranscriptMessage
	Tools    []tools.Spec
}

type CompletionResult struct {
	Text         string
	ToolRequests []ToolRequest
}

// CompletionClient is the reasoning engine boundary. One call, blocking, no
// streaming.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}
