package signal

import (
	"context"
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/ksuvorov/livewire/internal/domain"
)

// Direct-call signaling is forwarded without re-validating call state: the
// caller already holds an accepted call id, and re-checking every candidate
// would only add ring latency. Live-room signaling is validated on every
// frame because the audience changes mid-broadcast.

type callSDP struct {
	Type   string        `json:"type"`
	CallID domain.CallID `json:"callId"`
	ToUser domain.UserID `json:"toUserId"`
	SDP    string        `json:"sdp"`
}

type callCandidate struct {
	Type      string                  `json:"type"`
	CallID    domain.CallID           `json:"callId"`
	ToUser    domain.UserID           `json:"toUserId"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

func (ctl *Controller) handleCallSDP(c *wsConn, event string, data []byte) {
	var p callSDP
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("bad sdp payload")
		return
	}
	ctl.Registry.SendTo(p.ToUser, event, struct {
		CallID     domain.CallID `json:"callId"`
		FromUserID domain.UserID `json:"fromUserId"`
		SDP        string        `json:"sdp"`
	}{p.CallID, c.userID, p.SDP})
	ctl.reply(c, "ack", nil)
}

func (ctl *Controller) handleCallCandidate(c *wsConn, data []byte) {
	var p callCandidate
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		return
	}
	ctl.Registry.SendTo(p.ToUser, "webrtcIceCandidate", struct {
		CallID     domain.CallID           `json:"callId"`
		FromUserID domain.UserID           `json:"fromUserId"`
		Candidate  webrtc.ICECandidateInit `json:"candidate"`
	}{p.CallID, c.userID, p.Candidate})
	ctl.reply(c, "ack", nil)
}

type liveSDP struct {
	Type   string        `json:"type"`
	ChatID domain.ChatID `json:"chatId"`
	ToUser domain.UserID `json:"toUserId"`
	SDP    string        `json:"sdp"`
}

type liveCandidate struct {
	Type      string                  `json:"type"`
	ChatID    domain.ChatID           `json:"chatId"`
	ToUser    domain.UserID           `json:"toUserId"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

func (ctl *Controller) handleLiveSDP(ctx context.Context, c *wsConn, event string, data []byte) {
	var p liveSDP
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("bad live sdp payload")
		return
	}
	if err := ctl.Live.ValidateParticipants(ctx, p.ChatID, c.userID, p.ToUser); err != nil {
		ctl.sendError(c, err)
		return
	}
	ctl.Registry.SendTo(p.ToUser, event, struct {
		ChatID     domain.ChatID `json:"chatId"`
		FromUserID domain.UserID `json:"fromUserId"`
		SDP        string        `json:"sdp"`
	}{p.ChatID, c.userID, p.SDP})
	ctl.reply(c, "ack", nil)
}

func (ctl *Controller) handleLiveCandidate(ctx context.Context, c *wsConn, data []byte) {
	var p liveCandidate
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad live candidate payload")
		return
	}
	if err := ctl.Live.ValidateParticipants(ctx, p.ChatID, c.userID, p.ToUser); err != nil {
		ctl.sendError(c, err)
		return
	}
	ctl.Registry.SendTo(p.ToUser, "liveWebrtcIceCandidate", struct {
		ChatID     domain.ChatID           `json:"chatId"`
		FromUserID domain.UserID           `json:"fromUserId"`
		Candidate  webrtc.ICECandidateInit `json:"candidate"`
	}{p.ChatID, c.userID, p.Candidate})
	ctl.reply(c, "ack", nil)
}
