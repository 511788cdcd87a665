package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"taskdesk/server/internal/db"
	"taskdesk/server/internal/store"
)

// TaskService is the slice of the task store the catalog needs. Implemented
// by *store.TaskStore.
type TaskService interface {
	CreateTask(ctx context.Context, userID, title, description string) (*db.Task, error)
	ListTasks(ctx context.Context, userID string, q store.ListTasksQuery) ([]db.Task, int64, error)
	GetTask(ctx context.Context, userID, taskID string) (*db.Task, error)
	UpdateTask(ctx context.Context, userID, taskID string, patch store.TaskPatch) (*db.Task, error)
	DeleteTask(ctx context.Context, userID, taskID string) error
}

// NewTaskCatalog builds the fixed set of task operations exposed to the
// reasoning engine.
func NewTaskCatalog(tasks TaskService) []Tool {
	return []Tool{
		&TodoCreateTool{tasks: tasks},
		&TodoListTool{tasks: tasks},
		&TodoReadTool{tasks: tasks},
		&TodoUpdateTool{tasks: tasks},
		&TodoDeleteTool{tasks: tasks},
	}
}

func mapStoreError(err error, missingMessage string) *OpError {
	if errors.Is(err, store.ErrInvalidInput) {
		return invalidInput(strings.TrimPrefix(err.Error(), store.ErrInvalidInput.Error()+": "))
	}
	if errors.Is(err, store.ErrNotFound) {
		return notFound(missingMessage)
	}
	return executionFailed(err.Error())
}

func taskPayload(t *db.Task) map[string]any {
	return map[string]any{
		"task_id":     t.ID,
		"title":       t.Title,
		"description": t.Description,
		"completed":   t.Completed,
		"created_at":  t.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":  t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type TodoCreateTool struct {
	tasks TaskService
}

func (t *TodoCreateTool) Name() string { return "todo_create" }

func (t *TodoCreateTool) Spec() Spec {
	return Spec{
		Type: "function",
		Name: t.Name(),
		Description: "Create a new task for the authenticated user. " +
			"Title is required (1-255 characters), description is optional (max 4000 characters). " +
			"The task starts as incomplete.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{
					"type":        "string",
					"minLength":   1,
					"maxLength":   255,
					"description": "Task title",
				},
				"description": map[string]any{
					"type":        "string",
					"maxLength":   4000,
					"description": "Task description or notes",
				},
			},
			"required": []string{"title"},
		},
	}
}

func (t *TodoCreateTool) Execute(ctx context.Context, ownerID string, input json.RawMessage) (map[string]any, *OpError) {
	req := struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}{}
	if err := decodeInput(input, &req); err != nil {
		return nil, err
	}
	task, err := t.tasks.CreateTask(ctx, ownerID, req.Title, req.Description)
	if err != nil {
		return nil, mapStoreError(err, "Task not found")
	}
	return map[string]any{
		"task_id": task.ID,
		"title":   task.Title,
		"message": "Task created successfully",
	}, nil
}

type TodoListTool struct {
	tasks TaskService
}

func (t *TodoListTool) Name() string { return "todo_list" }

func (t *TodoListTool) Spec() Spec {
	return Spec{
		Type: "function",
		Name: t.Name(),
		Description: "List the authenticated user's tasks, newest first, with optional " +
			"completion-status filter and pagination. Use this to answer questions like " +
			"\"what do I need to do?\" or \"show completed tasks\".",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"completed": map[string]any{
					"type":        "boolean",
					"description": "Filter by completion status; omit for all tasks",
				},
				"limit": map[string]any{
					"type":    "integer",
					"minimum": 1,
					"maximum": 1000,
				},
				"offset": map[string]any{
					"type":    "integer",
					"minimum": 0,
				},
			},
		},
	}
}

func (t *TodoListTool) Execute(ctx context.Context, ownerID string, input json.RawMessage) (map[string]any, *OpError) {
	req := struct {
		Completed *bool `json:"completed"`
		Limit     int   `json:"limit"`
		Offset    int   `json:"offset"`
	}{}
	if err := decodeInput(input, &req); err != nil {
		return nil, err
	}
	if req.Limit < 0 || req.Limit > 1000 {
		return nil, invalidInput("limit must be between 1 and 1000")
	}
	if req.Offset < 0 {
		return nil, invalidInput("offset must not be negative")
	}

	tasks, total, err := t.tasks.ListTasks(ctx, ownerID, store.ListTasksQuery{
		Completed: req.Completed,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		return nil, mapStoreError(err, "Task not found")
	}

	items := make([]map[string]any, 0, len(tasks))
	for i := range tasks {
		items = append(items, taskPayload(&tasks[i]))
	}
	return map[string]any{
		"tasks":       items,
		"total_count": total,
	}, nil
}

type TodoReadTool struct {
	tasks TaskService
}

func (t *TodoReadTool) Name() string { return "todo_read" }

func (t *TodoReadTool) Spec() Spec {
	return Spec{
		Type: "function",
		Name: t.Name(),
		Description: "Fetch full details of one task by its id. " +
			"The id usually comes from todo_list or earlier conversation context.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id": map[string]any{
					"type":        "string",
					"description": "Task identifier (UUID)",
				},
			},
			"required": []string{"task_id"},
		},
	}
}

func (t *TodoReadTool) Execute(ctx context.Context, ownerID string, input json.RawMessage) (map[string]any, *OpError) {
	req := struct {
		TaskID string `json:"task_id"`
	}{}
	if err := decodeInput(input, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.TaskID) == "" {
		return nil, invalidInput("task_id is required")
	}
	task, err := t.tasks.GetTask(ctx, ownerID, req.TaskID)
	if err != nil {
		return nil, mapStoreError(err, "Task not found")
	}
	return taskPayload(task), nil
}

type TodoUpdateTool struct {
	tasks TaskService
}

func (t *TodoUpdateTool) Name() string { return "todo_update" }

func (t *TodoUpdateTool) Spec() Spec {
	return Spec{
		Type: "function",
		Name: t.Name(),
		Description: "Update one task with patch semantics: only provided fields change. " +
			"Use completed=true to mark a task done. " +
			"title 1-255 characters, description max 4000 characters.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id": map[string]any{
					"type":        "string",
					"description": "Task identifier (UUID)",
				},
				"title":       map[string]any{"type": "string", "minLength": 1, "maxLength": 255},
				"description": map[string]any{"type": "string", "maxLength": 4000},
				"completed":   map[string]any{"type": "boolean"},
			},
			"required": []string{"task_id"},
		},
	}
}

func (t *TodoUpdateTool) Execute(ctx context.Context, ownerID string, input json.RawMessage) (map[string]any, *OpError) {
	req := struct {
		TaskID      string  `json:"task_id"`
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Completed   *bool   `json:"completed"`
	}{}
	if err := decodeInput(input, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.TaskID) == "" {
		return nil, invalidInput("task_id is required")
	}
	if req.Title == nil && req.Description == nil && req.Completed == nil {
		return nil, invalidInput("at least one of title, description, completed is required")
	}
	task, err := t.tasks.UpdateTask(ctx, ownerID, req.TaskID, store.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		return nil, mapStoreError(err, "Task not found")
	}
	payload := taskPayload(task)
	payload["message"] = "Task updated successfully"
	return payload, nil
}

type TodoDeleteTool struct {
	tasks TaskService
}

func (t *TodoDeleteTool) Name() string { return "todo_delete" }

func (t *TodoDeleteTool) Spec() Spec {
	return Spec{
		Type: "function",
		Name: t.Name(),
		Description: "Delete one task permanently by its id. There is no recovery. " +
			"Confirm with the user before deleting unless they were explicit.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id": map[string]any{
					"type":        "string",
					"description": "Task identifier (UUID)",
				},
			},
			"required": []string{"task_id"},
		},
	}
}

func (t *TodoDeleteTool) Execute(ctx context.Context, ownerID string, input json.RawMessage) (map[string]any, *OpError) {
	req := struct {
		TaskID string `json:"task_id"`
	}{}
	if err := decodeInput(input, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.TaskID) == "" {
		return nil, invalidInput("task_id is required")
	}
	if err := t.tasks.DeleteTask(ctx, ownerID, req.TaskID); err != nil {
		return nil, mapStoreError(err, "Task not found")
	}
	return map[string]any{
		"task_id": req.TaskID,
		"message": "Task deleted successfully",
	}, nil
}
