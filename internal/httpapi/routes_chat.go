package httpapi

import (
	"net/http"

	"taskdesk/server/internal/chat"
)

func (s *Server) registerChatRoutes() {
	s.mux.HandleFunc("/api/v1/chat", s.handleChat)
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

// handleChat runs one full conversational turn. Failed turns still answer
// 200 with the fallback text; only invalid input or an unknown conversation
// surface as errors.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid JSON body")
		return
	}

	result, err := s.deps.Chat.ProcessMessage(r.Context(), userID, chat.TurnInput{
		Message:        req.Message,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	toolCalls := make([]map[string]any, 0, len(result.Records))
	for _, rec := range result.Records {
		toolCalls = append(toolCalls, map[string]any{
			"tool_name": rec.ToolName,
			"input":     rec.Input,
			"result":    rec.Result,
		})
	}
	s.publishEvent(userID, "chat.turn.completed", map[string]any{
		"conversation_id": result.ConversationID,
		"tool_call_count": len(result.Records),
	})
	respondOK(w, map[string]any{
		"conversation_id": result.ConversationID,
		"reply":           result.Answer,
		"tool_calls":      toolCalls,
	})
}
