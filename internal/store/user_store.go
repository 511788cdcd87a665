package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskdesk/server/internal/db"
)

type UserStore struct {
	gdb *gorm.DB
	now func() time.Time
}

func NewUserStore(gdb *gorm.DB) *UserStore {
	return &UserStore{gdb: gdb, now: time.Now}
}

// CreateUser registers a new account. Emails are stored lowercased so lookup
// is case-insensitive.
func (s *UserStore) CreateUser(ctx context.Context, email, passwordHash string) (*db.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("%w: password hash is required", ErrInvalidInput)
	}

	var existing db.User
	err := s.gdb.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	user := db.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.gdb.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user db.User
	err := s.gdb.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id string) (*db.User, error) {
	var user db.User
	err := s.gdb.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
