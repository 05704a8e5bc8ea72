package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/ksuvorov/livewire/internal/domain"
)

type voicePayload struct {
	Type   string        `json:"type"`
	ChatID domain.ChatID `json:"chatId"`
}

type voiceEvent struct {
	ChatID domain.ChatID `json:"chatId"`
	UserID domain.UserID `json:"userId"`
}

func (ctl *Controller) handleJoinVoiceChat(ctx context.Context, c *wsConn, data []byte) {
	var p voicePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad joinVoiceChat payload")
		return
	}

	members, err := ctl.Voice.Join(ctx, p.ChatID, c.userID)
	if err != nil {
		ctl.sendError(c, err)
		return
	}

	for _, id := range members {
		if id != c.userID {
			ctl.Registry.SendTo(id, "voiceChatParticipantJoined", voiceEvent{p.ChatID, c.userID})
		}
	}
	ctl.reply(c, "voiceChatJoined", struct {
		ChatID       domain.ChatID   `json:"chatId"`
		Participants []domain.UserID `json:"participants"`
	}{p.ChatID, members})
}

func (ctl *Controller) handleLeaveVoiceChat(ctx context.Context, c *wsConn, data []byte) {
	var p voicePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leaveVoiceChat payload")
		return
	}

	remaining, err := ctl.Voice.Leave(ctx, p.ChatID, c.userID)
	if err != nil {
		ctl.sendError(c, err)
		return
	}

	for _, id := range remaining {
		ctl.Registry.SendTo(id, "voiceChatParticipantLeft", voiceEvent{p.ChatID, c.userID})
	}
	ctl.reply(c, "voiceChatLeft", struct {
		ChatID       domain.ChatID   `json:"chatId"`
		Participants []domain.UserID `json:"participants"`
	}{p.ChatID, remaining})
}
