package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"taskdesk/server/internal/chat"
)

func TestChatTurn_CreatesTaskWithAuditTrail(t *testing.T) {
	e := newAPIEnv(t)
	token := e.registerAndLogin(t, "chat@example.com")
	e.engine.results = []*chat.CompletionResult{
		{ToolRequests: []chat.ToolRequest{{
			ID:        "call_1",
			Name:      "todo_create",
			Arguments: json.RawMessage(`{"title":"Buy milk"}`),
		}}},
		{Text: "Added \"Buy milk\" to your list."},
	}

	code, env := e.do(t, http.MethodPost, "/api/v1/chat", token, map[string]any{
		"message": "remind me to buy milk",
	})
	if code != http.StatusOK || !env.OK {
		t.Fatalf("chat failed: code=%d env=%+v", code, env)
	}
	conversationID, _ := env.Data["conversation_id"].(string)
	if conversationID == "" {
		t.Fatalf("expected conversation_id, got %+v", env.Data)
	}
	reply, _ := env.Data["reply"].(string)
	if reply != "Added \"Buy milk\" to your list." {
		t.Fatalf("unexpected reply %q", reply)
	}
	calls, _ := env.Data["tool_calls"].([]any)
	if len(calls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(calls))
	}
	call := calls[0].(map[string]any)
	if call["tool_name"] != "todo_create" {
		t.Fatalf("unexpected tool call: %+v", call)
	}
	if result := call["result"].(map[string]any); result["success"] != true {
		t.Fatalf("unexpected tool result: %+v", result)
	}

	// The task is visible through the plain REST surface.
	code, env = e.do(t, http.MethodGet, "/api/v1/tasks", token, nil)
	if code != http.StatusOK || env.Data["total_count"] != float64(1) {
		t.Fatalf("expected 1 task after chat turn: code=%d env=%+v", code, env)
	}

	// And the persisted agent message carries the audit trail.
	code, env = e.do(t, http.MethodGet, "/api/v1/conversations/"+conversationID+"/messages", token, nil)
	if code != http.StatusOK {
		t.Fatalf("list messages failed with %d", code)
	}
	msgs := env.Data["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	agentMsg := msgs[1].(map[string]any)
	if agentMsg["role"] != "agent" {
		t.Fatalf("unexpected second message: %+v", agentMsg)
	}
	stored, ok := agentMsg["tool_calls"].([]any)
	if !ok || len(stored) != 1 {
		t.Fatalf("agent message missing audit trail: %+v", agentMsg)
	}
}

func TestChatTurn_EngineUnreachableStillAnswers(t *testing.T) {
	e := newAPIEnv(t)
	token := e.registerAndLogin(t, "offline@example.com")
	e.engine.err = errors.New("dial tcp: connection refused")

	code, env := e.do(t, http.MethodPost, "/api/v1/chat", token, map[string]any{
		"message": "add buy milk",
	})
	if code != http.StatusOK || !env.OK {
		t.Fatalf("expected 200 despite engine outage, got code=%d env=%+v", code, env)
	}
	reply, _ := env.Data["reply"].(string)
	if reply != "I encountered an error processing your request. Please try again." {
		t.Fatalf("unexpected fallback reply %q", reply)
	}
	if calls, _ := env.Data["tool_calls"].([]any); len(calls) != 0 {
		t.Fatalf("expected no tool calls, got %d", len(calls))
	}

	// No task writes happened, but the inbound message survived.
	code, env = e.do(t, http.MethodGet, "/api/v1/tasks", token, nil)
	if code != http.StatusOK || env.Data["total_count"] != float64(0) {
		t.Fatalf("expected zero tasks: code=%d env=%+v", code, env)
	}
	conversationID := ""
	if code, env := e.do(t, http.MethodGet, "/api/v1/conversations", token, nil); code == http.StatusOK {
		convs := env.Data["conversations"].([]any)
		if len(convs) != 1 {
			t.Fatalf("expected 1 conversation, got %d", len(convs))
		}
		conversationID = convs[0].(map[string]any)["conversation_id"].(string)
	}
	code, env = e.do(t, http.MethodGet, "/api/v1/conversations/"+conversationID+"/messages", token, nil)
	if code != http.StatusOK {
		t.Fatalf("list messages failed with %d", code)
	}
	msgs := env.Data["messages"].([]any)
	if len(msgs) != 2 || msgs[0].(map[string]any)["content"] != "add buy milk" {
		t.Fatalf("inbound message not retained: %+v", msgs)
	}
}

func TestChatTurn_ContinuesExistingConversation(t *testing.T) {
	e := newAPIEnv(t)
	token := e.registerAndLogin(t, "followup@example.com")
	e.engine.results = []*chat.CompletionResult{
		{Text: "first"},
		{Text: "second"},
	}

	_, env := e.do(t, http.MethodPost, "/api/v1/chat", token, map[string]any{"message": "one"})
	conversationID := env.Data["conversation_id"].(string)

	code, env := e.do(t, http.MethodPost, "/api/v1/chat", token, map[string]any{
		"message": "two", "conversation_id": conversationID,
	})
	if code != http.StatusOK || env.Data["conversation_id"] != conversationID {
		t.Fatalf("follow-up turn failed: code=%d env=%+v", code, env)
	}

	code, env = e.do(t, http.MethodGet, "/api/v1/conversations/"+conversationID+"/messages", token, nil)
	if code != http.StatusOK {
		t.Fatalf("list messages failed with %d", code)
	}
	if msgs := env.Data["messages"].([]any); len(msgs) != 4 {
		t.Fatalf("expected 4 messages across both turns, got %d", len(msgs))
	}
}

func TestChatTurn_InputValidation(t *testing.T) {
	e := newAPIEnv(t)
	token := e.registerAndLogin(t, "chatvalidate@example.com")

	code, env := e.do(t, http.MethodPost, "/api/v1/chat", token, map[string]any{"message": "   "})
	if code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "INVALID_INPUT" {
		t.Fatalf("expected INVALID_INPUT for blank message, got code=%d env=%+v", code, env)
	}

	code, env = e.do(t, http.MethodPost, "/api/v1/chat", token, map[string]any{
		"message": "hello", "conversation_id": "00000000-0000-0000-0000-000000000000",
	})
	if code != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND for unknown conversation, got code=%d env=%+v", code, env)
	}
}
