package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"taskdesk/server/internal/db"
)

// Role is the closed set of message origins.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

const (
	maxMessageLength         = 10000
	defaultConversationLimit = 20
	defaultMessageLimit      = 50
	maxPageLimit             = 100
)

// AppendMessageInput describes one message append. ToolCalls is the already
// marshalled operation record array for agent messages, nil otherwise.
type AppendMessageInput struct {
	ConversationID string
	UserID         string
	Role           Role
	Content        string
	ToolCalls      json.RawMessage
}

type ConversationStore struct {
	gdb *gorm.DB
	now func() time.Time
}

func NewConversationStore(gdb *gorm.DB) *ConversationStore {
	return &ConversationStore{gdb: gdb, now: time.Now}
}

// SetClock overrides the time source. Test hook.
func (s *ConversationStore) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *ConversationStore) CreateConversation(ctx context.Context, userID, title string) (*db.Conversation, error) {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title must be at most %d characters", ErrInvalidInput, maxTitleLength)
	}
	now := s.now().UTC()
	conv := db.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.gdb.WithContext(ctx).Create(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *ConversationStore) GetConversation(ctx context.Context, userID, conversationID string) (*db.Conversation, error) {
	var conv db.Conversation
	err := s.gdb.WithContext(ctx).
		Where("id = ? AND user_id = ?", conversationID, userID).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns the owner's conversations, most recent activity
// first.
func (s *ConversationStore) ListConversations(ctx context.Context, userID string, limit, offset int) ([]db.Conversation, int64, error) {
	if limit <= 0 {
		limit = defaultConversationLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	base := s.gdb.WithContext(ctx).Model(&db.Conversation{}).Where("user_id = ?", userID)
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	convs := make([]db.Conversation, 0, limit)
	err := base.Session(&gorm.Session{}).
		Order("updated_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&convs).Error
	if err != nil {
		return nil, 0, err
	}
	return convs, total, nil
}

func (s *ConversationStore) RenameConversation(ctx context.Context, userID, conversationID, title string) (*db.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title must be at most %d characters", ErrInvalidInput, maxTitleLength)
	}

	conv, err := s.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	conv.Title = title
	conv.UpdatedAt = s.nextTimestamp(conv.UpdatedAt)

	res := s.gdb.WithContext(ctx).
		Model(&db.Conversation{}).
		Where("id = ? AND user_id = ?", conversationID, userID).
		Updates(map[string]any{"title": conv.Title, "updated_at": conv.UpdatedAt})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return conv, nil
}

// DeleteConversation removes the conversation and cascades to its messages
// in one transaction.
func (s *ConversationStore) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	return s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", conversationID, userID).
			Delete(&db.Conversation{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("conversation_id = ?", conversationID).
			Delete(&db.Message{}).Error
	})
}

// AppendMessage persists one message and refreshes the conversation's
// last-activity timestamp atomically. The conversation lookup is owner-scoped.
func (s *ConversationStore) AppendMessage(ctx context.Context, in AppendMessageInput) (*db.Message, error) {
	if in.Role != RoleUser && in.Role != RoleAgent {
		return nil, fmt.Errorf("%w: role must be %q or %q", ErrInvalidInput, RoleUser, RoleAgent)
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Content) > maxMessageLength {
		return nil, fmt.Errorf("%w: message must be at most %d characters", ErrInvalidInput, maxMessageLength)
	}

	var msg *db.Message
	err := s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv db.Conversation
		err := tx.Where("id = ? AND user_id = ?", in.ConversationID, in.UserID).
			First(&conv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		now := s.nextTimestamp(conv.UpdatedAt)
		row := db.Message{
			ID:             uuid.NewString(),
			ConversationID: in.ConversationID,
			UserID:         in.UserID,
			Role:           string(in.Role),
			Content:        in.Content,
			CreatedAt:      now,
		}
		if len(in.ToolCalls) > 0 {
			row.ToolCalls = datatypes.JSON(in.ToolCalls)
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Model(&db.Conversation{}).
			Where("id = ?", in.ConversationID).
			Update("updated_at", now).Error; err != nil {
			return err
		}
		msg = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages returns a conversation's messages in chronological order. The
// conversation itself is looked up under the caller's scope first.
func (s *ConversationStore) ListMessages(ctx context.Context, userID, conversationID string, limit, offset int) ([]db.Message, int64, error) {
	if _, err := s.GetConversation(ctx, userID, conversationID); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	base := s.gdb.WithContext(ctx).Model(&db.Message{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	msgs := make([]db.Message, 0, limit)
	err := base.Session(&gorm.Session{}).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

// History returns the full ordered message history for a turn. No paging:
// the orchestrator always reconstructs the whole conversation.
func (s *ConversationStore) History(ctx context.Context, userID, conversationID string) ([]db.Message, error) {
	if _, err := s.GetConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	var msgs []db.Message
	err := s.gdb.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *ConversationStore) nextTimestamp(prev time.Time) time.Time {
	now := s.now().UTC()
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}
