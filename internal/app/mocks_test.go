package app_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ksuvorov/livewire/internal/domain"
)

// MockDirectory is a testify mock of the core.Directory interface.
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) GetChat(ctx context.Context, chatID domain.ChatID) (*domain.Chat, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *MockDirectory) GetMemberRole(ctx context.Context, chatID domain.ChatID, userID domain.UserID) (domain.MemberRole, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Get(0).(domain.MemberRole), args.Error(1)
}

func (m *MockDirectory) GetUser(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// directChat is a two-party conversation fixture.
func directChat(id domain.ChatID, a, b domain.UserID) *domain.Chat {
	return &domain.Chat{
		ID:        id,
		Name:      "dialog",
		Type:      domain.ChatDirect,
		MemberIDs: []domain.UserID{a, b},
	}
}

func groupChat(id domain.ChatID, members ...domain.UserID) *domain.Chat {
	return &domain.Chat{
		ID:        id,
		Name:      "group",
		Type:      domain.ChatGroup,
		MemberIDs: members,
	}
}
