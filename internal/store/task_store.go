package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskdesk/server/internal/db"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 4000
	maxListLimit         = 1000
	defaultListLimit     = 100
)

// TaskPatch carries partial-update fields. Nil means "leave unchanged".
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

type ListTasksQuery struct {
	Completed *bool
	Limit     int
	Offset    int
}

type TaskStore struct {
	gdb *gorm.DB
	now func() time.Time
}

func NewTaskStore(gdb *gorm.DB) *TaskStore {
	return &TaskStore{gdb: gdb, now: time.Now}
}

// SetClock overrides the time source. Test hook.
func (s *TaskStore) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *TaskStore) CreateTask(ctx context.Context, userID, title, description string) (*db.Task, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	task := db.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.gdb.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks returns the owner's tasks newest-first plus the total count under
// the same filter.
func (s *TaskStore) ListTasks(ctx context.Context, userID string, q ListTasksQuery) ([]db.Task, int64, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	base := s.gdb.WithContext(ctx).Model(&db.Task{}).Where("user_id = ?", userID)
	if q.Completed != nil {
		base = base.Where("completed = ?", *q.Completed)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	tasks := make([]db.Task, 0, limit)
	err := base.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (s *TaskStore) GetTask(ctx context.Context, userID, taskID string) (*db.Task, error) {
	var task db.Task
	err := s.gdb.WithContext(ctx).
		Where("id = ? AND user_id = ?", taskID, userID).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies a partial update. The lookup conjoins task id and
// owner, so an ownership miss is indistinguishable from absence.
func (s *TaskStore) UpdateTask(ctx context.Context, userID, taskID string, patch TaskPatch) (*db.Task, error) {
	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		task.Title = title
	}
	if patch.Description != nil {
		if err := validateDescription(*patch.Description); err != nil {
			return nil, err
		}
		task.Description = *patch.Description
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}

	task.UpdatedAt = s.nextTimestamp(task.UpdatedAt)
	res := s.gdb.WithContext(ctx).
		Model(&db.Task{}).
		Where("id = ? AND user_id = ?", taskID, userID).
		Updates(map[string]any{
			"title":       task.Title,
			"description": task.Description,
			"completed":   task.Completed,
			"updated_at":  task.UpdatedAt,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return task, nil
}

// DeleteTask removes the task physically. No recovery.
func (s *TaskStore) DeleteTask(ctx context.Context, userID, taskID string) error {
	res := s.gdb.WithContext(ctx).
		Where("id = ? AND user_id = ?", taskID, userID).
		Delete(&db.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// nextTimestamp guarantees updated_at strictly increases even when the clock
// has not advanced past the previous mutation.
func (s *TaskStore) nextTimestamp(prev time.Time) time.Time {
	now := s.now().UTC()
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return fmt.Errorf("%w: title must be at most %d characters", ErrInvalidInput, maxTitleLength)
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, maxDescriptionLength)
	}
	return nil
}
