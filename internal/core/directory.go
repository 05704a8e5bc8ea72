package core

import (
	"context"

	"github.com/ksuvorov/livewire/internal/domain"
)

// Directory is the engine's window into the chat data store: who is in a chat
// and what the chat is. The engine treats it as read-only and never caches
// results across operations.
type Directory interface {
	GetChat(ctx context.Context, chatID domain.ChatID) (*domain.Chat, error)
	// GetMemberRole returns domain.ErrNotAMember when the user does not
	// belong to the chat.
	GetMemberRole(ctx context.Context, chatID domain.ChatID, userID domain.UserID) (domain.MemberRole, error)
	// GetUser resolves display data for notifications.
	GetUser(ctx context.Context, userID domain.UserID) (*domain.User, error)
}

// PresenceStore tracks per-user online status across connects/disconnects.
// Implementations must tolerate multiple simultaneous connections per user.
type PresenceStore interface {
	HandleConnect(ctx context.Context, userID domain.UserID) error
	HandleDisconnect(ctx context.Context, userID domain.UserID) error
	IsUserOnline(ctx context.Context, userID domain.UserID) (bool, error)
}
