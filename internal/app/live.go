package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ksuvorov/livewire/internal/core"
	"github.com/ksuvorov/livewire/internal/domain"
)

// LiveRooms manages broadcast rooms: one LiveRoomState per chat that has ever
// gone live. Directory lookups happen outside the lock; state mutations are
// serialized under it and every mutating call returns a full snapshot so
// observers converge regardless of delivery order.
type LiveRooms struct {
	directory core.Directory

	mu    sync.Mutex
	rooms map[domain.ChatID]*domain.LiveRoomState
}

func NewLiveRooms(directory core.Directory) *LiveRooms {
	return &LiveRooms{
		directory: directory,
		rooms:     make(map[domain.ChatID]*domain.LiveRoomState),
	}
}

// Start opens a broadcast with the caller as host and sole speaker. Requires
// an elevated role and a group or channel chat. Starting an already-live room
// returns the existing state unchanged.
func (l *LiveRooms) Start(ctx context.Context, chatID domain.ChatID, userID domain.UserID) (*domain.LiveRoomState, error) {
	chat, err := l.directory.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.Type != domain.ChatGroup && chat.Type != domain.ChatChannel {
		return nil, domain.ErrInvalidRoomType
	}
	role, err := l.directory.GetMemberRole(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if !role.Elevated() {
		return nil, domain.ErrForbidden
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.rooms[chatID]; ok && existing.IsLive {
		return existing.Clone(), nil
	}
	state := &domain.LiveRoomState{
		ChatID:      chatID,
		IsLive:      true,
		HostID:      userID,
		Speakers:    []domain.UserID{userID},
		Listeners:   []domain.UserID{},
		RaisedHands: []domain.UserID{},
		Muted:       []domain.UserID{},
		StartedAt:   time.Now().UnixMilli(),
	}
	l.rooms[chatID] = state
	log.Info().Str("module", "app.live").Str("chat", string(chatID)).Str("host", string(userID)).Msg("live started")
	return state.Clone(), nil
}

// Stop ends the broadcast but keeps the membership sets so the next Start
// inherits the context. Host or elevated role only.
func (l *LiveRooms) Stop(ctx context.Context, chatID domain.ChatID, userID domain.UserID) (*domain.LiveRoomState, error) {
	role, err := l.directory.GetMemberRole(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	state, err := l.liveLocked(chatID)
	if err != nil {
		return nil, err
	}
	if !role.Elevated() && state.HostID != userID {
		return nil, domain.ErrForbidden
	}
	state.IsLive = false
	log.Info().Str("module", "app.live").Str("chat", string(chatID)).Str("by", string(userID)).Msg("live stopped")
	return state.Clone(), nil
}

// Join adds the caller to the listeners. The host re-joining is a no-op, and
// a queued raised hand survives a rejoin.
func (l *LiveRooms) Join(ctx context.Context, chatID domain.ChatID, userID domain.UserID) (*domain.LiveRoomState, error) {
	if _, err := l.directory.GetMemberRole(ctx, chatID, userID); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	state, err := l.liveLocked(chatID)
	if err != nil {
		return nil, err
	}
	state.AddListener(userID)
	return state.Clone(), nil
}

// Leave removes the caller from every set; host departure triggers failover
// (see domain.LiveRoomState.Leave for the promotion order).
func (l *LiveRooms) Leave(ctx context.Context, chatID domain.ChatID, userID domain.UserID) (*domain.LiveRoomState, error) {
	if _, err := l.directory.GetMemberRole(ctx, chatID, userID); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	state, err := l.liveLocked(chatID)
	if err != nil {
		return nil, err
	}
	wasHost := state.HostID == userID
	state.Leave(userID)
	if wasHost {
		log.Info().Str("module", "app.live").Str("chat", string(chatID)).Str("left", string(userID)).Str("new_host", string(state.HostID)).Msg("host left live")
	}
	return state.Clone(), nil
}

// RaiseHand queues the caller for speaker approval. Speaking roles may not
// raise a hand.
func (l *LiveRooms) RaiseHand(ctx context.Context, chatID domain.ChatID, userID domain.UserID) (*domain.LiveRoomState, error) {
	if _, err := l.directory.GetMemberRole(ctx, chatID, userID); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	state, err := l.liveLocked(chatID)
	if err != nil {
		return nil, err
	}
	if state.IsSpeaking(userID) {
		return nil, domain.ErrAlreadySpeaking
	}
	state.RaiseHand(userID)
	return state.Clone(), nil
}

// ApproveSpeaker promotes a chat member to speaker. Host or elevated role
// only; promoting the host is a no-op. The target must still be a chat
// member, which is re-checked against the directory because audience and
// chat membership can drift during a broadcast.
func (l *LiveRooms) ApproveSpeaker(ctx context.Context, chatID domain.ChatID, moderatorID, targetID domain.UserID) (*domain.LiveRoomState, error) {
	role, err := l.directory.GetMemberRole(ctx, chatID, moderatorID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	state, err := l.liveLocked(chatID)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	if !role.Elevated() && state.HostID != moderatorID {
		l.mu.Unlock()
		return nil, domain.ErrForbidden
	}
	if state.HostID == targetID {
		snap := state.Clone()
		l.mu.Unlock()
		return snap, nil
	}
	l.mu.Unlock()

	// Directory call happens with the lock released; the live check is
	// repeated afterwards in case the room stopped meanwhile.
	if _, err := l.directory.GetMemberRole(ctx, chatID, targetID); err != nil {
		if errors.Is(err, domain.ErrNotAMember) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	state, err = l.liveLocked(chatID)
	if err != nil {
		return nil, err
	}
	state.PromoteSpeaker(targetID)
	log.Info().Str("module", "app.live").Str("chat", string(chatID)).Str("speaker", string(targetID)).Str("by", string(moderatorID)).Msg("speaker approved")
	return state.Clone(), nil
}

// RevokeSpeaker demotes a speaker back to listener. The host cannot be demoted.
func (l *LiveRooms) RevokeSpeaker(ctx context.Context, chatID domain.ChatID, moderatorID, targetID domain.UserID) (*domain.LiveRoomState, error) {
	role, err := l.directory.GetMemberRole(ctx, chatID, moderatorID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	state, err := l.liveLocked(chatID)
	if err != nil {
		return nil, err
	}
	if !role.Elevated() && state.HostID != moderatorID {
		return nil, domain.ErrForbidden
	}
	if state.HostID == targetID {
		return nil, domain.ErrInvalidOperation
	}
	state.DemoteSpeaker(targetID)
	log.Info().Str("module", "app.live").Str("chat", string(chatID)).Str("speaker", string(targetID)).Str("by", string(moderatorID)).Msg("speaker revoked")
	return state.Clone(), nil
}

// SetMute flips the mute flag on a speaking role.
func (l *LiveRooms) SetMute(ctx context.Context, chatID domain.ChatID, moderatorID, targetID domain.UserID, muted bool) (*domain.LiveRoomState, error) {
	role, err := l.directory.GetMemberRole(ctx, chatID, moderatorID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	state, err := l.liveLocked(chatID)
	if err != nil {
		return nil, err
	}
	if !role.Elevated() && state.HostID != moderatorID {
		return nil, domain.ErrForbidden
	}
	if !state.IsSpeaking(targetID) {
		return nil, domain.ErrInvalidOperation
	}
	state.SetMuted(targetID, muted)
	return state.Clone(), nil
}

// GetState returns the snapshot, live or not. NotFound only when the chat has
// never gone live.
func (l *LiveRooms) GetState(ctx context.Context, chatID domain.ChatID, userID domain.UserID) (*domain.LiveRoomState, error) {
	if _, err := l.directory.GetMemberRole(ctx, chatID, userID); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	state, ok := l.rooms[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return state.Clone(), nil
}

// ValidateParticipants is the signaling pre-check: both ends must currently
// be in the live audience.
func (l *LiveRooms) ValidateParticipants(ctx context.Context, chatID domain.ChatID, fromID, toID domain.UserID) error {
	if _, err := l.directory.GetMemberRole(ctx, chatID, fromID); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	state, err := l.liveLocked(chatID)
	if err != nil {
		return err
	}
	if !state.InAudience(fromID) {
		return domain.ErrForbidden
	}
	if !state.InAudience(toID) {
		return domain.ErrNotFound
	}
	return nil
}

// liveLocked fetches the room and requires it to be live. Callers hold l.mu.
func (l *LiveRooms) liveLocked(chatID domain.ChatID) (*domain.LiveRoomState, error) {
	state, ok := l.rooms[chatID]
	if !ok || !state.IsLive {
		return nil, domain.ErrLiveNotActive
	}
	return state, nil
}
