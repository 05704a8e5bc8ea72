package app

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ksuvorov/livewire/internal/core"
	"github.com/ksuvorov/livewire/internal/domain"
)

// Registry tracks live signal connections per user. A user may be connected
// from several devices at once; each connection registers separately and is
// removed when its socket closes, never the other way around.
//
// It also keeps per-chat watcher sets so passive observers (members who are
// not in the call/broadcast) can receive room-scoped pushes.
type Registry struct {
	mu       sync.RWMutex
	byUser   map[domain.UserID][]core.SignalConnection
	watchers map[domain.ChatID]map[core.SignalConnection]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:   make(map[domain.UserID][]core.SignalConnection),
		watchers: make(map[domain.ChatID]map[core.SignalConnection]struct{}),
	}
}

func (r *Registry) OnConnect(userID domain.UserID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[userID] = append(r.byUser[userID], conn)
	log.Info().Str("module", "app.registry").Str("user", string(userID)).Int("conns", len(r.byUser[userID])).Msg("connection registered")
}

// OnDisconnect drops the connection from the user's list and from every
// watcher set. Empty entries are deleted so the maps do not leak.
func (r *Registry) OnDisconnect(userID domain.UserID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns := r.byUser[userID]
	for i, c := range conns {
		if c == conn {
			r.byUser[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(r.byUser[userID]) == 0 {
		delete(r.byUser, userID)
	}
	for chatID, set := range r.watchers {
		delete(set, conn)
		if len(set) == 0 {
			delete(r.watchers, chatID)
		}
	}
	log.Info().Str("module", "app.registry").Str("user", string(userID)).Msg("connection removed")
}

func (r *Registry) IsOnline(userID domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// SendTo delivers the event to every connection the user currently has.
// A user with no connections is a no-op, not an error.
func (r *Registry) SendTo(userID domain.UserID, event string, payload any) {
	frame, err := marshalEvent(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.registry").Str("event", event).Msg("marshal event")
		return
	}
	r.mu.RLock()
	conns := append([]core.SignalConnection(nil), r.byUser[userID]...)
	r.mu.RUnlock()
	for _, c := range conns {
		if err := c.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.registry").Str("user", string(userID)).Str("event", event).Msg("send dropped")
		}
	}
}

// Watch subscribes a connection to room-scoped pushes for the chat.
func (r *Registry) Watch(chatID domain.ChatID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.watchers[chatID]
	if !ok {
		set = make(map[core.SignalConnection]struct{})
		r.watchers[chatID] = set
	}
	set[conn] = struct{}{}
}

func (r *Registry) Unwatch(chatID domain.ChatID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.watchers[chatID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(r.watchers, chatID)
		}
	}
}

// BroadcastChat pushes the event to every watcher of the chat.
func (r *Registry) BroadcastChat(chatID domain.ChatID, event string, payload any) {
	frame, err := marshalEvent(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.registry").Str("event", event).Msg("marshal event")
		return
	}
	r.mu.RLock()
	conns := make([]core.SignalConnection, 0, len(r.watchers[chatID]))
	for c := range r.watchers[chatID] {
		conns = append(conns, c)
	}
	r.mu.RUnlock()
	for _, c := range conns {
		if err := c.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.registry").Str("chat", string(chatID)).Str("event", event).Msg("broadcast dropped")
		}
	}
}

func marshalEvent(event string, payload any) (core.Frame, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		Payload any    `json:"payload,omitempty"`
	}{Type: event, Payload: payload})
}
