package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskdesk/server/internal/db"
	"taskdesk/server/internal/store"
)

func (s *Server) registerTaskRoutes() {
	s.mux.HandleFunc("/api/v1/tasks", s.handleTasks)
	s.mux.HandleFunc("/api/v1/tasks/", s.handleTaskByID)
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodPost:
		s.handleCreateTask(w, r, userID)
	case http.MethodGet:
		s.handleListTasks(w, r, userID)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request, userID string) {
	var req createTaskRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid JSON body")
		return
	}
	task, err := s.deps.Tasks.CreateTask(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publishEvent(userID, "task.created", map[string]any{"task_id": task.ID, "title": task.Title})
	respondCreated(w, taskPayload(task))
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request, userID string) {
	q := store.ListTasksQuery{
		Limit:  intQuery(r, "limit"),
		Offset: intQuery(r, "offset"),
	}
	if raw := r.URL.Query().Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_INPUT", "completed must be true or false")
			return
		}
		q.Completed = &completed
	}
	tasks, total, err := s.deps.Tasks.ListTasks(r.Context(), userID, q)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(tasks))
	for i := range tasks {
		items = append(items, taskPayload(&tasks[i]))
	}
	respondOK(w, map[string]any{"tasks": items, "total_count": total})
}

func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/tasks/"), "/")
	if len(parts) == 2 && parts[0] != "" && parts[1] == "complete" {
		if r.Method != http.MethodPatch {
			respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		s.handleToggleComplete(w, r, userID, parts[0])
		return
	}
	if len(parts) != 1 || parts[0] == "" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
		return
	}
	taskID := parts[0]
	switch r.Method {
	case http.MethodGet:
		s.handleGetTask(w, r, userID, taskID)
	case http.MethodPatch:
		s.handleUpdateTask(w, r, userID, taskID)
	case http.MethodDelete:
		s.handleDeleteTask(w, r, userID, taskID)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request, userID, taskID string) {
	task, err := s.deps.Tasks.GetTask(r.Context(), userID, taskID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondOK(w, taskPayload(task))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request, userID, taskID string) {
	var req updateTaskRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid JSON body")
		return
	}
	if req.Title == nil && req.Description == nil && req.Completed == nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "at least one field must be provided")
		return
	}
	task, err := s.deps.Tasks.UpdateTask(r.Context(), userID, taskID, store.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publishEvent(userID, "task.updated", map[string]any{"task_id": task.ID})
	respondOK(w, taskPayload(task))
}

// handleToggleComplete flips the completion flag without the caller having to
// read the task first.
func (s *Server) handleToggleComplete(w http.ResponseWriter, r *http.Request, userID, taskID string) {
	task, err := s.deps.Tasks.GetTask(r.Context(), userID, taskID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	next := !task.Completed
	task, err = s.deps.Tasks.UpdateTask(r.Context(), userID, taskID, store.TaskPatch{Completed: &next})
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publishEvent(userID, "task.updated", map[string]any{"task_id": task.ID, "completed": task.Completed})
	respondOK(w, taskPayload(task))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request, userID, taskID string) {
	if err := s.deps.Tasks.DeleteTask(r.Context(), userID, taskID); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publishEvent(userID, "task.deleted", map[string]any{"task_id": taskID})
	respondOK(w, map[string]any{"deleted": true})
}

func taskPayload(task *db.Task) map[string]any {
	return map[string]any{
		"task_id":     task.ID,
		"title":       task.Title,
		"description": task.Description,
		"completed":   task.Completed,
		"created_at":  task.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":  task.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func intQuery(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
