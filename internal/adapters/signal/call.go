package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/ksuvorov/livewire/internal/domain"
)

func (ctl *Controller) handleInitiateCall(ctx context.Context, c *wsConn, data []byte) {
	var p struct {
		Type    string        `json:"type"`
		ChatID  domain.ChatID `json:"chatId"`
		IsVideo bool          `json:"isVideo"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad initiateCall payload")
		return
	}

	res, err := ctl.Calls.Initiate(ctx, p.ChatID, c.userID, p.IsVideo)
	if err != nil {
		ctl.sendError(c, err)
		return
	}

	ctl.Registry.SendTo(res.TargetID, "incomingCall", res.Notification)
	ctl.reply(c, "callInitiated", struct {
		CallID   domain.CallID `json:"callId"`
		TargetID domain.UserID `json:"targetUserId"`
		Status   string        `json:"status"`
	}{res.Session.ID, res.TargetID, string(res.Session.Status)})
}

type callResponsePayload struct {
	CallID         domain.CallID   `json:"callId"`
	Status         string          `json:"status"`
	CallerID       domain.UserID   `json:"callerId"`
	ParticipantIDs []domain.UserID `json:"participantIds"`
}

func callResponseOf(s *domain.CallSession, status string) callResponsePayload {
	return callResponsePayload{
		CallID:         s.ID,
		Status:         status,
		CallerID:       s.CallerID,
		ParticipantIDs: s.ParticipantIDs[:],
	}
}

func (ctl *Controller) handleRespondToCall(c *wsConn, data []byte) {
	var p struct {
		Type   string            `json:"type"`
		CallID domain.CallID     `json:"callId"`
		Action domain.CallAction `json:"action"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad respondToCall payload")
		return
	}

	session, err := ctl.Calls.Respond(p.CallID, c.userID, p.Action)
	if err != nil {
		ctl.sendError(c, err)
		return
	}

	status := "rejected"
	if session.Status == domain.CallActive {
		status = string(domain.CallActive)
	}
	resp := callResponseOf(session, status)
	// The initiator learns the outcome; the responder's other devices see it
	// too so their ringing UI stops.
	ctl.Registry.SendTo(session.CallerID, "callResponse", resp)
	ctl.reply(c, "callResponse", resp)
}

func (ctl *Controller) handleEndCall(c *wsConn, data []byte) {
	var p struct {
		Type   string        `json:"type"`
		CallID domain.CallID `json:"callId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad endCall payload")
		return
	}

	session, err := ctl.Calls.End(p.CallID, c.userID)
	if err != nil {
		ctl.sendError(c, err)
		return
	}

	ended := struct {
		callResponsePayload
		EndedBy domain.UserID `json:"endedBy"`
	}{callResponseOf(session, "ended"), c.userID}

	for _, participant := range session.ParticipantIDs {
		if participant != c.userID {
			ctl.Registry.SendTo(participant, "callEnded", ended)
		}
	}
	ctl.reply(c, "callEnded", ended)
}
