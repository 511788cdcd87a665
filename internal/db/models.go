package db

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Email        string    `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

func (User) TableName() string { return "users" }

type Task struct {
	ID          string    `gorm:"column:id;primaryKey"`
	UserID      string    `gorm:"column:user_id;not null;index"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description;not null;default:''"`
	Completed   bool      `gorm:"column:completed;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

func (Task) TableName() string { return "tasks" }

type Conversation struct {
	ID        string    `gorm:"column:id;primaryKey"`
	UserID    string    `gorm:"column:user_id;not null;index"`
	Title     string    `gorm:"column:title;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (Conversation) TableName() string { return "conversations" }

// Message rows are append-only. ToolCalls holds the JSON array of operation
// records for agent messages and is null for user messages.
type Message struct {
	ID             string         `gorm:"column:id;primaryKey"`
	ConversationID string         `gorm:"column:conversation_id;not null;index"`
	UserID         string         `gorm:"column:user_id;not null;index"`
	Role           string         `gorm:"column:role;not null"`
	Content        string         `gorm:"column:content;not null"`
	ToolCalls      datatypes.JSON `gorm:"column:tool_calls"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null"`
}

func (Message) TableName() string { return "messages" }
