package httpapi

import (
	"net/http"
	"strings"
	"time"

	"taskdesk/server/internal/db"
)

func (s *Server) registerConversationRoutes() {
	s.mux.HandleFunc("/api/v1/conversations", s.handleConversations)
	s.mux.HandleFunc("/api/v1/conversations/", s.handleConversationByID)
}

type renameConversationRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	convs, total, err := s.deps.Conversations.ListConversations(r.Context(), userID, intQuery(r, "limit"), intQuery(r, "offset"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(convs))
	for i := range convs {
		items = append(items, conversationPayload(&convs[i]))
	}
	respondOK(w, map[string]any{"conversations": items, "total_count": total})
}

func (s *Server) handleConversationByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/conversations/"), "/")
	if len(parts) == 2 && parts[0] != "" && parts[1] == "messages" {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		s.handleListMessages(w, r, userID, parts[0])
		return
	}
	if len(parts) != 1 || parts[0] == "" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
		return
	}
	conversationID := parts[0]
	switch r.Method {
	case http.MethodPatch:
		s.handleRenameConversation(w, r, userID, conversationID)
	case http.MethodDelete:
		s.handleDeleteConversation(w, r, userID, conversationID)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (s *Server) handleRenameConversation(w http.ResponseWriter, r *http.Request, userID, conversationID string) {
	var req renameConversationRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid JSON body")
		return
	}
	conv, err := s.deps.Conversations.RenameConversation(r.Context(), userID, conversationID, req.Title)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publishEvent(userID, "conversation.renamed", map[string]any{"conversation_id": conv.ID, "title": conv.Title})
	respondOK(w, conversationPayload(conv))
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request, userID, conversationID string) {
	if err := s.deps.Conversations.DeleteConversation(r.Context(), userID, conversationID); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publishEvent(userID, "conversation.deleted", map[string]any{"conversation_id": conversationID})
	respondOK(w, map[string]any{"deleted": true})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request, userID, conversationID string) {
	msgs, total, err := s.deps.Conversations.ListMessages(r.Context(), userID, conversationID, intQuery(r, "limit"), intQuery(r, "offset"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(msgs))
	for i := range msgs {
		items = append(items, messagePayload(&msgs[i]))
	}
	respondOK(w, map[string]any{"messages": items, "total_count": total})
}

func conversationPayload(conv *db.Conversation) map[string]any {
	return map[string]any{
		"conversation_id": conv.ID,
		"title":           conv.Title,
		"created_at":      conv.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":      conv.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func messagePayload(msg *db.Message) map[string]any {
	out := map[string]any{
		"message_id":      msg.ID,
		"conversation_id": msg.ConversationID,
		"role":            msg.Role,
		"content":         msg.Content,
		"created_at":      msg.CreatedAt.UTC().Format(time.RFC3339),
	}
	if len(msg.ToolCalls) > 0 {
		out["tool_calls"] = msg.ToolCalls
	}
	return out
}
