package domain

// LiveRoomState is the full picture of a broadcast room. A user appears in at
// most one of HostID/Speakers/Listeners; RaisedHands only ever holds listeners;
// Muted only ever holds speaking roles. The record survives stop/start so a
// restart finds its previous context.
//
// The mutating methods below are pure state transitions with no I/O; the
// live-room service serializes access and decides who may call them.
type LiveRoomState struct {
	ChatID      ChatID   `json:"chatId"`
	IsLive      bool     `json:"isLive"`
	HostID      UserID   `json:"hostId,omitempty"`
	Speakers    []UserID `json:"speakers"`
	Listeners   []UserID `json:"listeners"`
	RaisedHands []UserID `json:"raisedHands"`
	Muted       []UserID `json:"muted"`
	StartedAt   int64    `json:"startedAt"`
}

// Clone deep-copies the state so callers never share the engine's slices.
func (s *LiveRoomState) Clone() *LiveRoomState {
	out := *s
	out.Speakers = append([]UserID(nil), s.Speakers...)
	out.Listeners = append([]UserID(nil), s.Listeners...)
	out.RaisedHands = append([]UserID(nil), s.RaisedHands...)
	out.Muted = append([]UserID(nil), s.Muted...)
	return &out
}

// InAudience reports whether the user currently holds any role in the room.
func (s *LiveRoomState) InAudience(id UserID) bool {
	return s.HostID == id || contains(s.Speakers, id) || contains(s.Listeners, id)
}

func (s *LiveRoomState) IsSpeaking(id UserID) bool {
	return s.HostID == id || contains(s.Speakers, id)
}

// AddListener records the user as a listener unless they already hold a role.
func (s *LiveRoomState) AddListener(id UserID) {
	if s.InAudience(id) {
		return
	}
	s.Listeners = append(s.Listeners, id)
}

// RaiseHand puts the user in the speaker queue. Idempotent.
func (s *LiveRoomState) RaiseHand(id UserID) {
	s.Listeners = appendUnique(s.Listeners, id)
	s.RaisedHands = appendUnique(s.RaisedHands, id)
}

// PromoteSpeaker moves the user from the listening side to the speakers and
// clears any queued hand and mute flag.
func (s *LiveRoomState) PromoteSpeaker(id UserID) {
	s.Listeners = remove(s.Listeners, id)
	s.RaisedHands = remove(s.RaisedHands, id)
	s.Speakers = appendUnique(s.Speakers, id)
	s.Muted = remove(s.Muted, id)
}

// DemoteSpeaker moves the user back to the listeners and unmutes them.
func (s *LiveRoomState) DemoteSpeaker(id UserID) {
	s.Speakers = remove(s.Speakers, id)
	s.Listeners = appendUnique(s.Listeners, id)
	s.Muted = remove(s.Muted, id)
}

func (s *LiveRoomState) SetMuted(id UserID, muted bool) {
	if muted {
		s.Muted = appendUnique(s.Muted, id)
	} else {
		s.Muted = remove(s.Muted, id)
	}
}

// Leave removes the user from every set and, when the departing user was the
// host, runs host failover: the first remaining speaker wins; failing that the
// first listener is shifted off, promoted to speaker, unmuted and made host;
// with nobody left the room goes dark. The speakers-before-listeners order is
// deliberate: it favors continuity of an active speaker.
func (s *LiveRoomState) Leave(id UserID) {
	s.Listeners = remove(s.Listeners, id)
	s.Speakers = remove(s.Speakers, id)
	s.RaisedHands = remove(s.RaisedHands, id)
	s.Muted = remove(s.Muted, id)

	if s.HostID != id {
		return
	}
	switch {
	case len(s.Speakers) > 0:
		s.HostID = s.Speakers[0]
	case len(s.Listeners) > 0:
		promoted := s.Listeners[0]
		s.Listeners = s.Listeners[1:]
		s.HostID = promoted
		s.Speakers = appendUnique(s.Speakers, promoted)
		s.Muted = remove(s.Muted, promoted)
	default:
		s.IsLive = false
		s.HostID = ""
	}
}

func contains(ids []UserID, id UserID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []UserID, id UserID) []UserID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func appendUnique(ids []UserID, id UserID) []UserID {
	if contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
