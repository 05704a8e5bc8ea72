package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ksuvorov/livewire/internal/core"
	"github.com/ksuvorov/livewire/internal/domain"
)

// CallManager owns the table of live 1:1 calls. Sessions exist only between
// initiation and a terminal transition; nothing survives for later query, so
// callers must capture terminal results synchronously.
type CallManager struct {
	directory core.Directory

	mu    sync.Mutex
	calls map[domain.CallID]*callEntry

	ringTimeout time.Duration
}

type callEntry struct {
	session *domain.CallSession
	timer   *time.Timer
}

func NewCallManager(directory core.Directory, ringTimeout time.Duration) *CallManager {
	if ringTimeout <= 0 {
		ringTimeout = 30 * time.Second
	}
	return &CallManager{
		directory:   directory,
		calls:       make(map[domain.CallID]*callEntry),
		ringTimeout: ringTimeout,
	}
}

// InitiateResult carries everything the signal layer needs to ring the callee.
type InitiateResult struct {
	Session      *domain.CallSession
	TargetID     domain.UserID
	Notification *domain.CallNotification
}

// Initiate starts a 1:1 call in a direct chat and schedules the ring timeout.
// The target is the other member of the chat.
func (m *CallManager) Initiate(ctx context.Context, chatID domain.ChatID, callerID domain.UserID, isVideo bool) (*InitiateResult, error) {
	chat, err := m.directory.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.Type != domain.ChatDirect || len(chat.MemberIDs) != 2 {
		return nil, domain.ErrInvalidCallTarget
	}
	if !chat.HasMember(callerID) {
		return nil, domain.ErrNotAMember
	}
	targetID, _ := chat.OtherMember(callerID)

	caller, err := m.directory.GetUser(ctx, callerID)
	if err != nil {
		return nil, err
	}

	session := &domain.CallSession{
		ID:             domain.CallID(uuid.NewString()),
		ChatID:         chatID,
		CallerID:       callerID,
		ParticipantIDs: [2]domain.UserID{callerID, targetID},
		Status:         domain.CallInitiated,
		IsVideo:        isVideo,
		StartedAt:      time.Now(),
	}

	// The snapshot is taken before the lock is released: once the entry is
	// in the map the armed timer may mutate the session at any moment.
	m.mu.Lock()
	entry := &callEntry{session: session}
	entry.timer = time.AfterFunc(m.ringTimeout, func() { m.expire(session.ID) })
	m.calls[session.ID] = entry
	snap := *session
	m.mu.Unlock()

	log.Info().Str("module", "app.calls").Str("call", string(session.ID)).Str("caller", string(callerID)).Str("target", string(targetID)).Bool("video", isVideo).Msg("call initiated")
	return &InitiateResult{
		Session:  &snap,
		TargetID: targetID,
		Notification: &domain.CallNotification{
			CallID:     session.ID,
			CallerID:   callerID,
			CallerName: caller.Username,
			ChatID:     chatID,
			ChatName:   chat.Name,
			IsVideo:    isVideo,
			Timestamp:  time.Now().UnixMilli(),
		},
	}, nil
}

// expire is the ring-timeout path. Losing the race against accept/reject/end
// is expected: the session is simply gone or active and the timer no-ops.
func (m *CallManager) expire(id domain.CallID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.calls[id]
	if !ok || entry.session.Status != domain.CallInitiated {
		return
	}
	entry.session.Status = domain.CallEnded
	entry.session.EndedAt = time.Now()
	delete(m.calls, id)
	log.Info().Str("module", "app.calls").Str("call", string(id)).Msg("call ring timeout")
}

// Respond accepts or rejects a ringing call. NotFound here is an expected
// race with the ring timeout, not a bug.
func (m *CallManager) Respond(id domain.CallID, responderID domain.UserID, action domain.CallAction) (*domain.CallSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.calls[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !entry.session.HasParticipant(responderID) {
		return nil, domain.ErrForbidden
	}
	if entry.session.Status != domain.CallInitiated {
		return nil, domain.ErrConflict
	}

	entry.timer.Stop()
	switch action {
	case domain.CallAccept:
		entry.session.Status = domain.CallActive
	case domain.CallReject:
		entry.session.Status = domain.CallEnded
		entry.session.EndedAt = time.Now()
		delete(m.calls, id)
	default:
		return nil, domain.ErrInvalidOperation
	}

	log.Info().Str("module", "app.calls").Str("call", string(id)).Str("responder", string(responderID)).Str("action", string(action)).Msg("call response")
	snap := *entry.session
	return &snap, nil
}

// End terminates an INITIATED or ACTIVE call. Any participant may end it.
func (m *CallManager) End(id domain.CallID, userID domain.UserID) (*domain.CallSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.calls[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !entry.session.HasParticipant(userID) {
		return nil, domain.ErrForbidden
	}

	entry.timer.Stop()
	entry.session.Status = domain.CallEnded
	entry.session.EndedAt = time.Now()
	delete(m.calls, id)

	log.Info().Str("module", "app.calls").Str("call", string(id)).Str("by", string(userID)).Msg("call ended")
	snap := *entry.session
	return &snap, nil
}
