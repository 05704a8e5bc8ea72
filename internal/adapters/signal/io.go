package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ksuvorov/livewire/internal/domain"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	pingPeriod := ctl.PingPeriod
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("user", string(c.userID)).Msg("readPump closing")
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "signal").Str("user", string(c.userID)).Msg("readPump read error")
				}
				return
			}
			ctl.dispatch(ctx, c, data)
		}
	}
}

func (ctl *Controller) dispatch(ctx context.Context, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "ping":
		ctl.reply(c, "pong", nil)
	case "initiateCall":
		ctl.handleInitiateCall(ctx, c, data)
	case "respondToCall":
		ctl.handleRespondToCall(c, data)
	case "endCall":
		ctl.handleEndCall(c, data)
	case "joinVoiceChat":
		ctl.handleJoinVoiceChat(ctx, c, data)
	case "leaveVoiceChat":
		ctl.handleLeaveVoiceChat(ctx, c, data)
	case "startLive":
		ctl.handleStartLive(ctx, c, data)
	case "stopLive":
		ctl.handleStopLive(ctx, c, data)
	case "joinLive":
		ctl.handleJoinLive(ctx, c, data)
	case "leaveLive":
		ctl.handleLeaveLive(ctx, c, data)
	case "raiseHand":
		ctl.handleRaiseHand(ctx, c, data)
	case "approveSpeaker":
		ctl.handleApproveSpeaker(ctx, c, data)
	case "revokeSpeaker":
		ctl.handleRevokeSpeaker(ctx, c, data)
	case "toggleMute":
		ctl.handleToggleMute(ctx, c, data)
	case "getLiveRoomState":
		ctl.handleGetLiveRoomState(ctx, c, data)
	case "joinChat":
		ctl.handleJoinChat(c, data)
	case "leaveChat":
		ctl.handleLeaveChat(c, data)
	case "webrtcOffer", "webrtcAnswer":
		ctl.handleCallSDP(c, env.Type, data)
	case "webrtcIceCandidate":
		ctl.handleCallCandidate(c, data)
	case "liveWebrtcOffer", "liveWebrtcAnswer":
		ctl.handleLiveSDP(ctx, c, env.Type, data)
	case "liveWebrtcIceCandidate":
		ctl.handleLiveCandidate(ctx, c, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

// reply sends a direct response to the requesting connection using the same
// envelope as registry pushes.
func (ctl *Controller) reply(c *wsConn, event string, payload any) {
	frame, err := json.Marshal(struct {
		Type    string `json:"type"`
		Payload any    `json:"payload,omitempty"`
	}{Type: event, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("reply marshal")
		return
	}
	if err := c.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", string(c.userID)).Str("event", event).Msg("reply dropped")
	}
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sendError maps a domain sentinel onto a structured wire error.
func (ctl *Controller) sendError(c *wsConn, err error) {
	ctl.reply(c, "error", wireError{Code: errorCode(err), Message: err.Error()})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidOperation):
		return "invalid_operation"
	case errors.Is(err, domain.ErrInvalidRoomType):
		return "invalid_room_type"
	case errors.Is(err, domain.ErrInvalidCallTarget):
		return "invalid_call_target"
	case errors.Is(err, domain.ErrNotAMember):
		return "not_a_member"
	case errors.Is(err, domain.ErrLiveNotActive):
		return "live_not_active"
	case errors.Is(err, domain.ErrAlreadySpeaking):
		return "already_speaking"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "internal"
	}
}
