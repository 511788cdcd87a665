package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"taskdesk/server/internal/chat"
	"taskdesk/server/internal/db"
	"taskdesk/server/internal/logging"
	"taskdesk/server/internal/store"
)

// Tokens is the credential surface the server needs: minting on login and
// verification at the gate.
type Tokens interface {
	IssueToken(userID string) (string, time.Time, error)
	VerifyToken(token string) (string, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
}

type TaskStore interface {
	CreateTask(ctx context.Context, userID, title, description string) (*db.Task, error)
	ListTasks(ctx context.Context, userID string, q store.ListTasksQuery) ([]db.Task, int64, error)
	GetTask(ctx context.Context, userID, taskID string) (*db.Task, error)
	UpdateTask(ctx context.Context, userID, taskID string, patch store.TaskPatch) (*db.Task, error)
	DeleteTask(ctx context.Context, userID, taskID string) error
}

type ConversationStore interface {
	ListConversations(ctx context.Context, userID string, limit, offset int) ([]db.Conversation, int64, error)
	RenameConversation(ctx context.Context, userID, conversationID, title string) (*db.Conversation, error)
	DeleteConversation(ctx context.Context, userID, conversationID string) error
	ListMessages(ctx context.Context, userID, conversationID string, limit, offset int) ([]db.Message, int64, error)
}

type ChatService interface {
	ProcessMessage(ctx context.Context, userID string, in chat.TurnInput) (*chat.TurnResult, error)
}

type Deps struct {
	Users         UserStore
	Tasks         TaskStore
	Conversations ConversationStore
	Chat          ChatService
	Tokens        Tokens
	BcryptCost    int
	Log           *slog.Logger
}

type Server struct {
	deps Deps
	mux  *http.ServeMux
	hub  *WSHub
	log  *slog.Logger
}

func NewServer(deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{deps: deps, mux: http.NewServeMux(), hub: NewWSHub(), log: log}
	s.registerAuthRoutes()
	s.registerTaskRoutes()
	s.registerChatRoutes()
	s.registerConversationRoutes()
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/ws", s.handleWS)
	return s
}

// Handler returns the full route tree wrapped by the credential gate.
func (s *Server) Handler() http.Handler {
	return s.withAuth(s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondOK(w, map[string]any{"status": "ok"})
}

func respondOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": data})
}

func respondCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "data": data})
}

func respondError(w http.ResponseWriter, code int, errCode string, msg string) {
	writeJSON(w, code, map[string]any{"ok": false, "error": map[string]any{"code": errCode, "message": msg}})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondStoreError maps store sentinels onto the wire taxonomy. Anything
// unrecognized is logged and hidden behind a generic 500.
func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, store.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, store.ErrEmailTaken):
		respondError(w, http.StatusConflict, "EMAIL_TAKEN", "email already registered")
	default:
		s.log.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "SERVER_ERROR", "internal error")
	}
}

func decodeBody(r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

func (s *Server) publishEvent(userID, topic string, payload map[string]any) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(userID, topic, payload)
}
