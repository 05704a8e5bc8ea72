// Package directory backs the engine's membership lookups with the chat
// data store. The engine only reads here; chats and members are written by
// the chat CRUD service, which is out of scope.
package directory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ksuvorov/livewire/internal/domain"
)

type chatRow struct {
	ID   string `gorm:"primaryKey"`
	Name string
	Type string
}

func (chatRow) TableName() string { return "chats" }

type chatMemberRow struct {
	ChatID string `gorm:"primaryKey"`
	UserID string `gorm:"primaryKey"`
	Role   string
}

func (chatMemberRow) TableName() string { return "chat_members" }

type userRow struct {
	ID       string `gorm:"primaryKey"`
	Username string
}

func (userRow) TableName() string { return "users" }

type Service struct {
	db *gorm.DB
}

func New(dsn string) (*Service, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("directory: open postgres: %w", err)
	}
	return &Service{db: db}, nil
}

// NewWithDB is used by tests and callers that manage the pool themselves.
func NewWithDB(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) GetChat(ctx context.Context, chatID domain.ChatID) (*domain.Chat, error) {
	var row chatRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", string(chatID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("directory: get chat: %w", err)
	}

	var members []chatMemberRow
	if err := s.db.WithContext(ctx).Where("chat_id = ?", string(chatID)).Order("user_id").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("directory: get chat members: %w", err)
	}

	chat := &domain.Chat{
		ID:        domain.ChatID(row.ID),
		Name:      row.Name,
		Type:      domain.ChatType(row.Type),
		MemberIDs: make([]domain.UserID, 0, len(members)),
	}
	for _, m := range members {
		chat.MemberIDs = append(chat.MemberIDs, domain.UserID(m.UserID))
	}
	return chat, nil
}

func (s *Service) GetMemberRole(ctx context.Context, chatID domain.ChatID, userID domain.UserID) (domain.MemberRole, error) {
	var row chatMemberRow
	err := s.db.WithContext(ctx).
		First(&row, "chat_id = ? AND user_id = ?", string(chatID), string(userID)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrNotAMember
		}
		return "", fmt.Errorf("directory: get member role: %w", err)
	}
	return domain.MemberRole(row.Role), nil
}

func (s *Service) GetUser(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", string(userID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("directory: get user: %w", err)
	}
	return &domain.User{ID: domain.UserID(row.ID), Username: row.Username}, nil
}
