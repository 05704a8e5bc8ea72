package domain

import "time"

type CallID string

type CallStatus string

const (
	CallInitiated CallStatus = "initiated"
	CallActive    CallStatus = "active"
	CallEnded     CallStatus = "ended"
)

type CallAction string

const (
	CallAccept CallAction = "accept"
	CallReject CallAction = "reject"
)

// CallSession is a live 1:1 call. ParticipantIDs is fixed at creation;
// a session is reachable only through its ID and is dropped from the
// registry on any terminal transition.
type CallSession struct {
	ID             CallID     `json:"id"`
	ChatID         ChatID     `json:"chatId"`
	CallerID       UserID     `json:"callerId"`
	ParticipantIDs [2]UserID  `json:"participantIds"`
	Status         CallStatus `json:"status"`
	IsVideo        bool       `json:"isVideo"`
	StartedAt      time.Time  `json:"startedAt"`
	EndedAt        time.Time  `json:"endedAt,omitzero"`
}

func (s *CallSession) HasParticipant(id UserID) bool {
	return s.ParticipantIDs[0] == id || s.ParticipantIDs[1] == id
}

// CallNotification is the push sent to the callee when a call starts ringing.
type CallNotification struct {
	CallID     CallID `json:"callId"`
	CallerID   UserID `json:"callerId"`
	CallerName string `json:"callerName"`
	ChatID     ChatID `json:"chatId"`
	ChatName   string `json:"chatName"`
	IsVideo    bool   `json:"isVideo"`
	Timestamp  int64  `json:"timestamp"`
}
