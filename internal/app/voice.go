package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ksuvorov/livewire/internal/core"
	"github.com/ksuvorov/livewire/internal/domain"
)

// VoiceRooms is flat group voice-chat membership: no roles, no host. Rooms
// come into existence on first join and vanish when the last member leaves.
type VoiceRooms struct {
	directory core.Directory

	mu    sync.Mutex
	rooms map[domain.ChatID]map[domain.UserID]struct{}
}

func NewVoiceRooms(directory core.Directory) *VoiceRooms {
	return &VoiceRooms{
		directory: directory,
		rooms:     make(map[domain.ChatID]map[domain.UserID]struct{}),
	}
}

// Join adds the user to the chat's voice room, creating it lazily.
// Re-joining is a no-op, not an error.
func (v *VoiceRooms) Join(ctx context.Context, chatID domain.ChatID, userID domain.UserID) ([]domain.UserID, error) {
	if _, err := v.directory.GetMemberRole(ctx, chatID, userID); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	room, ok := v.rooms[chatID]
	if !ok {
		room = make(map[domain.UserID]struct{})
		v.rooms[chatID] = room
	}
	room[userID] = struct{}{}
	log.Info().Str("module", "app.voice").Str("chat", string(chatID)).Str("user", string(userID)).Int("participants", len(room)).Msg("voice join")
	return participants(room), nil
}

// Leave removes the user and deletes the room when it empties.
// Returns the remaining participants, possibly none.
func (v *VoiceRooms) Leave(ctx context.Context, chatID domain.ChatID, userID domain.UserID) ([]domain.UserID, error) {
	if _, err := v.directory.GetMemberRole(ctx, chatID, userID); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	room, ok := v.rooms[chatID]
	if !ok {
		return []domain.UserID{}, nil
	}
	delete(room, userID)
	if len(room) == 0 {
		delete(v.rooms, chatID)
		log.Info().Str("module", "app.voice").Str("chat", string(chatID)).Msg("voice room closed")
		return []domain.UserID{}, nil
	}
	return participants(room), nil
}

func participants(room map[domain.UserID]struct{}) []domain.UserID {
	out := make([]domain.UserID, 0, len(room))
	for id := range room {
		out = append(out, id)
	}
	return out
}
