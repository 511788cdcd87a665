package httpapi

import (
	"net/http"
	"testing"

	"taskdesk/server/internal/chat"
)

func startConversation(t *testing.T, e *apiEnv, token, message string) string {
	t.Helper()
	e.engine.results = append(e.engine.results, &chat.CompletionResult{Text: "noted"})
	code, env := e.do(t, http.MethodPost, "/api/v1/chat", token, map[string]any{"message": message})
	if code != http.StatusOK {
		t.Fatalf("chat turn failed with %d", code)
	}
	return env.Data["conversation_id"].(string)
}

func TestConversationListRenameDelete(t *testing.T) {
	e := newAPIEnv(t)
	token := e.registerAndLogin(t, "convs@example.com")

	first := startConversation(t, e, token, "start one")
	second := startConversation(t, e, token, "start two")

	code, env := e.do(t, http.MethodGet, "/api/v1/conversations", token, nil)
	if code != http.StatusOK || env.Data["total_count"] != float64(2) {
		t.Fatalf("list failed: code=%d env=%+v", code, env)
	}
	convs := env.Data["conversations"].([]any)
	// Most recent activity first.
	if convs[0].(map[string]any)["conversation_id"] != second {
		t.Fatalf("expected newest conversation first, got %+v", convs[0])
	}

	code, env = e.do(t, http.MethodPatch, "/api/v1/conversations/"+first, token, map[string]any{
		"title": "groceries",
	})
	if code != http.StatusOK || env.Data["title"] != "groceries" {
		t.Fatalf("rename failed: code=%d env=%+v", code, env)
	}

	code, env = e.do(t, http.MethodPatch, "/api/v1/conversations/"+first, token, map[string]any{
		"title": "   ",
	})
	if code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "INVALID_INPUT" {
		t.Fatalf("expected INVALID_INPUT for blank title, got code=%d env=%+v", code, env)
	}

	code, env = e.do(t, http.MethodDelete, "/api/v1/conversations/"+first, token, nil)
	if code != http.StatusOK || !env.OK {
		t.Fatalf("delete failed: code=%d env=%+v", code, env)
	}
	code, env = e.do(t, http.MethodGet, "/api/v1/conversations/"+first+"/messages", token, nil)
	if code != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND after delete, got code=%d env=%+v", code, env)
	}
	code, env = e.do(t, http.MethodGet, "/api/v1/conversations", token, nil)
	if code != http.StatusOK || env.Data["total_count"] != float64(1) {
		t.Fatalf("expected one conversation left: code=%d env=%+v", code, env)
	}
}

func TestConversationCrossUserIsolation(t *testing.T) {
	e := newAPIEnv(t)
	alice := e.registerAndLogin(t, "convalice@example.com")
	mallory := e.registerAndLogin(t, "convmallory@example.com")

	conversationID := startConversation(t, e, alice, "private chat")

	for _, probe := range []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/v1/conversations/" + conversationID + "/messages", nil},
		{http.MethodPatch, "/api/v1/conversations/" + conversationID, map[string]any{"title": "mine now"}},
		{http.MethodDelete, "/api/v1/conversations/" + conversationID, nil},
	} {
		code, env := e.do(t, probe.method, probe.path, mallory, probe.body)
		if code != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
			t.Fatalf("%s %s: expected NOT_FOUND, got code=%d env=%+v", probe.method, probe.path, code, env)
		}
	}

	code, env := e.do(t, http.MethodGet, "/api/v1/conversations", mallory, nil)
	if code != http.StatusOK || env.Data["total_count"] != float64(0) {
		t.Fatalf("mallory must see no conversations: code=%d env=%+v", code, env)
	}
}
