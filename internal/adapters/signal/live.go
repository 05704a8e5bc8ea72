package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/ksuvorov/livewire/internal/domain"
)

type livePayload struct {
	Type   string        `json:"type"`
	ChatID domain.ChatID `json:"chatId"`
	UserID domain.UserID `json:"userId,omitempty"`
	Muted  bool          `json:"isMuted,omitempty"`
}

func decodeLive(data []byte) (livePayload, bool) {
	var p livePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad live payload")
		return p, false
	}
	return p, true
}

// broadcastLiveState pushes the snapshot to the whole audience and to the
// chat's passive watchers. Snapshots are self-consistent, so delivery order
// between connections does not matter.
func (ctl *Controller) broadcastLiveState(state *domain.LiveRoomState) {
	seen := make(map[domain.UserID]struct{})
	deliver := func(id domain.UserID) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ctl.Registry.SendTo(id, "liveState", state)
	}
	deliver(state.HostID)
	for _, id := range state.Speakers {
		deliver(id)
	}
	for _, id := range state.Listeners {
		deliver(id)
	}
	ctl.Registry.BroadcastChat(state.ChatID, "liveState", state)
}

func (ctl *Controller) liveOp(c *wsConn, state *domain.LiveRoomState, err error) {
	if err != nil {
		ctl.sendError(c, err)
		return
	}
	ctl.broadcastLiveState(state)
	ctl.reply(c, "liveState", state)
}

func (ctl *Controller) handleStartLive(ctx context.Context, c *wsConn, data []byte) {
	if p, ok := decodeLive(data); ok {
		state, err := ctl.Live.Start(ctx, p.ChatID, c.userID)
		ctl.liveOp(c, state, err)
	}
}

func (ctl *Controller) handleStopLive(ctx context.Context, c *wsConn, data []byte) {
	if p, ok := decodeLive(data); ok {
		state, err := ctl.Live.Stop(ctx, p.ChatID, c.userID)
		ctl.liveOp(c, state, err)
	}
}

func (ctl *Controller) handleJoinLive(ctx context.Context, c *wsConn, data []byte) {
	if p, ok := decodeLive(data); ok {
		state, err := ctl.Live.Join(ctx, p.ChatID, c.userID)
		ctl.liveOp(c, state, err)
	}
}

func (ctl *Controller) handleLeaveLive(ctx context.Context, c *wsConn, data []byte) {
	if p, ok := decodeLive(data); ok {
		state, err := ctl.Live.Leave(ctx, p.ChatID, c.userID)
		ctl.liveOp(c, state, err)
	}
}

func (ctl *Controller) handleRaiseHand(ctx context.Context, c *wsConn, data []byte) {
	if p, ok := decodeLive(data); ok {
		state, err := ctl.Live.RaiseHand(ctx, p.ChatID, c.userID)
		ctl.liveOp(c, state, err)
	}
}

func (ctl *Controller) handleApproveSpeaker(ctx context.Context, c *wsConn, data []byte) {
	if p, ok := decodeLive(data); ok {
		state, err := ctl.Live.ApproveSpeaker(ctx, p.ChatID, c.userID, p.UserID)
		ctl.liveOp(c, state, err)
	}
}

func (ctl *Controller) handleRevokeSpeaker(ctx context.Context, c *wsConn, data []byte) {
	if p, ok := decodeLive(data); ok {
		state, err := ctl.Live.RevokeSpeaker(ctx, p.ChatID, c.userID, p.UserID)
		ctl.liveOp(c, state, err)
	}
}

func (ctl *Controller) handleToggleMute(ctx context.Context, c *wsConn, data []byte) {
	if p, ok := decodeLive(data); ok {
		state, err := ctl.Live.SetMute(ctx, p.ChatID, c.userID, p.UserID, p.Muted)
		ctl.liveOp(c, state, err)
	}
}

func (ctl *Controller) handleGetLiveRoomState(ctx context.Context, c *wsConn, data []byte) {
	p, ok := decodeLive(data)
	if !ok {
		return
	}
	state, err := ctl.Live.GetState(ctx, p.ChatID, c.userID)
	if err != nil {
		ctl.sendError(c, err)
		return
	}
	ctl.reply(c, "liveState", state)
}

// joinChat/leaveChat subscribe the connection to room-scoped pushes so that
// chat members who are not in the broadcast still see liveState updates.
func (ctl *Controller) handleJoinChat(c *wsConn, data []byte) {
	p, ok := decodeLive(data)
	if !ok || p.ChatID == "" {
		ctl.reply(c, "chatWatch", map[string]bool{"ok": false})
		return
	}
	ctl.Registry.Watch(p.ChatID, c)
	ctl.reply(c, "chatWatch", map[string]bool{"ok": true})
}

func (ctl *Controller) handleLeaveChat(c *wsConn, data []byte) {
	p, ok := decodeLive(data)
	if !ok || p.ChatID == "" {
		ctl.reply(c, "chatWatch", map[string]bool{"ok": false})
		return
	}
	ctl.Registry.Unwatch(p.ChatID, c)
	ctl.reply(c, "chatWatch", map[string]bool{"ok": true})
}
