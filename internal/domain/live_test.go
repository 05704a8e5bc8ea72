package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ksuvorov/livewire/internal/domain"
)

func liveState(host domain.UserID) *domain.LiveRoomState {
	return &domain.LiveRoomState{
		ChatID:      "g1",
		IsLive:      true,
		HostID:      host,
		Speakers:    []domain.UserID{host},
		Listeners:   []domain.UserID{},
		RaisedHands: []domain.UserID{},
		Muted:       []domain.UserID{},
	}
}

// Failover table: who inherits the host seat for each room shape.
func TestLeave_HostFailoverOrder(t *testing.T) {
	tests := []struct {
		name      string
		speakers  []domain.UserID
		listeners []domain.UserID
		wantHost  domain.UserID
		wantLive  bool
	}{
		{"speaker wins over listener", []domain.UserID{"s1", "s2"}, []domain.UserID{"l1"}, "s1", true},
		{"first speaker wins", []domain.UserID{"s2", "s1"}, nil, "s2", true},
		{"listener promoted when no speakers", nil, []domain.UserID{"l1", "l2"}, "l1", true},
		{"empty room goes dark", nil, nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := liveState("h")
			s.Speakers = append([]domain.UserID{}, tt.speakers...)
			s.Listeners = append([]domain.UserID{}, tt.listeners...)

			s.Leave("h")

			assert.Equal(t, tt.wantHost, s.HostID)
			assert.Equal(t, tt.wantLive, s.IsLive)
			if tt.wantHost != "" {
				assert.Contains(t, s.Speakers, tt.wantHost, "new host must hold a speaking role")
				assert.NotContains(t, s.Muted, tt.wantHost, "new host must not stay muted")
				assert.NotContains(t, s.Listeners, tt.wantHost)
			}
		})
	}
}

func TestLeave_PromotedListenerIsUnmuted(t *testing.T) {
	s := liveState("h")
	s.Listeners = []domain.UserID{"l1"}
	s.Speakers = []domain.UserID{}
	s.Muted = []domain.UserID{"l1"} // stale flag, must be cleared on promotion

	s.Leave("h")

	assert.Equal(t, domain.UserID("l1"), s.HostID)
	assert.Empty(t, s.Muted)
	assert.Empty(t, s.Listeners)
}

func TestLeave_NonHostKeepsHost(t *testing.T) {
	s := liveState("h")
	s.Listeners = []domain.UserID{"l1"}
	s.RaisedHands = []domain.UserID{"l1"}

	s.Leave("l1")

	assert.Equal(t, domain.UserID("h"), s.HostID)
	assert.True(t, s.IsLive)
	assert.Empty(t, s.Listeners)
	assert.Empty(t, s.RaisedHands)
}

func TestPromoteDemote_MutualExclusion(t *testing.T) {
	s := liveState("h")
	s.AddListener("u1")
	s.RaiseHand("u1")

	s.PromoteSpeaker("u1")
	assert.NotContains(t, s.Listeners, domain.UserID("u1"))
	assert.NotContains(t, s.RaisedHands, domain.UserID("u1"))
	assert.Contains(t, s.Speakers, domain.UserID("u1"))

	s.SetMuted("u1", true)
	s.DemoteSpeaker("u1")
	assert.Contains(t, s.Listeners, domain.UserID("u1"))
	assert.NotContains(t, s.Speakers, domain.UserID("u1"))
	assert.NotContains(t, s.Muted, domain.UserID("u1"))
}

func TestAddListener_RolesAreExclusive(t *testing.T) {
	s := liveState("h")

	s.AddListener("h") // host never becomes a listener
	assert.Empty(t, s.Listeners)

	s.AddListener("u1")
	s.AddListener("u1")
	assert.Equal(t, []domain.UserID{"u1"}, s.Listeners)
}

func TestClone_Isolation(t *testing.T) {
	s := liveState("h")
	s.AddListener("u1")

	c := s.Clone()
	c.Listeners[0] = "tampered"
	c.HostID = "tampered"

	assert.Equal(t, domain.UserID("h"), s.HostID)
	assert.Equal(t, []domain.UserID{"u1"}, s.Listeners)
}
