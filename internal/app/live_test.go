package app_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ksuvorov/livewire/internal/app"
	"github.com/ksuvorov/livewire/internal/domain"
)

const (
	groupID  = domain.ChatID("group-1")
	hostM    = domain.UserID("moderator-m")
	listener = domain.UserID("listener-l")
	guestG   = domain.UserID("guest-g")
)

// newLiveRooms wires a directory where M is a moderator and everyone else a
// guest member of groupID.
func newLiveRooms(t *testing.T) *app.LiveRooms {
	t.Helper()
	dir := new(MockDirectory)
	dir.On("GetChat", mock.Anything, groupID).
		Return(groupChat(groupID, hostM, listener, guestG), nil)
	dir.On("GetMemberRole", mock.Anything, groupID, hostM).
		Return(domain.RoleModerator, nil)
	dir.On("GetMemberRole", mock.Anything, groupID, mock.Anything).
		Return(domain.RoleGuest, nil)
	return app.NewLiveRooms(dir)
}

func TestStartLive_Idempotent(t *testing.T) {
	l := newLiveRooms(t)
	ctx := context.Background()

	first, err := l.Start(ctx, groupID, hostM)
	require.NoError(t, err)
	assert.True(t, first.IsLive)
	assert.Equal(t, hostM, first.HostID)
	assert.Equal(t, []domain.UserID{hostM}, first.Speakers)

	second, err := l.Start(ctx, groupID, hostM)
	require.NoError(t, err)
	assert.Equal(t, first.StartedAt, second.StartedAt)
	assert.Equal(t, first, second, "double start must return identical state")
}

func TestStartLive_Authorization(t *testing.T) {
	l := newLiveRooms(t)
	ctx := context.Background()

	_, err := l.Start(ctx, groupID, guestG)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	dir := new(MockDirectory)
	dir.On("GetChat", mock.Anything, chat1).Return(directChat(chat1, userA, userB), nil)
	direct := app.NewLiveRooms(dir)
	_, err = direct.Start(ctx, chat1, userA)
	assert.ErrorIs(t, err, domain.ErrInvalidRoomType)
}

func TestJoinAndRaiseHandAndApprove(t *testing.T) {
	l := newLiveRooms(t)
	ctx := context.Background()

	_, err := l.Start(ctx, groupID, hostM)
	require.NoError(t, err)

	state, err := l.Join(ctx, groupID, listener)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{listener}, state.Listeners)

	state, err = l.RaiseHand(ctx, groupID, listener)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{listener}, state.RaisedHands)

	state, err = l.ApproveSpeaker(ctx, groupID, hostM, listener)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{hostM, listener}, state.Speakers)
	assert.Empty(t, state.Listeners)
	assert.Empty(t, state.RaisedHands)
	assert.NotContains(t, state.Muted, listener)
}

func TestRaiseHand_SpeakersRefused(t *testing.T) {
	l := newLiveRooms(t)
	ctx := context.Background()

	_, err := l.Start(ctx, groupID, hostM)
	require.NoError(t, err)

	_, err = l.RaiseHand(ctx, groupID, hostM)
	assert.ErrorIs(t, err, domain.ErrAlreadySpeaking)
}

func TestHostFailover_SpeakerPromoted(t *testing.T) {
	l := newLiveRooms(t)
	ctx := context.Background()

	_, err := l.Start(ctx, groupID, hostM)
	require.NoError(t, err)
	_, err = l.Join(ctx, groupID, listener)
	require.NoError(t, err)
	_, err = l.RaiseHand(ctx, groupID, listener)
	require.NoError(t, err)
	_, err = l.ApproveSpeaker(ctx, groupID, hostM, listener)
	require.NoError(t, err)

	state, err := l.Leave(ctx, groupID, hostM)
	require.NoError(t, err)
	assert.True(t, state.IsLive)
	assert.Equal(t, listener, state.HostID, "first remaining speaker becomes host")
	assert.Equal(t, []domain.UserID{listener}, state.Speakers)
}

func TestHostFailover_ListenerPromotedAndUnmuted(t *testing.T) {
	l := newLiveRooms(t)
	ctx := context.Background()

	_, err := l.Start(ctx, groupID, hostM)
	require.NoError(t, err)
	_, err = l.Join(ctx, groupID, listener)
	require.NoError(t, err)
	_, err = l.Join(ctx, groupID, guestG)
	require.NoError(t, err)

	state, err := l.Leave(ctx, groupID, hostM)
	require.NoError(t, err)
	assert.True(t, state.IsLive)
	assert.Equal(t, listener, state.HostID, "first listener is shifted into the host seat")
	assert.Contains(t, state.Speakers, listener)
	assert.Equal(t, []domain.UserID{guestG}, state.Listeners)
	assert.NotContains(t, state.Muted, listener)
}

func TestHostFailover_NobodyLeft(t *testing.T) {
	l := newLiveRooms(t)
	ctx := context.Background()

	_, err := l.Start(ctx, groupID, hostM)
	require.NoError(t, err)

	state, err := l.Leave(ctx, groupID, hostM)
	require.NoError(t, err)
	assert.False(t, state.IsLive)
	assert.Empty(t, state.HostID)
}

func TestStopLive_PreservesSets(t *testing.T) {
	l := newLiveRooms(t)
	ctx := context.Background()

	_, err := l.Start(ctx, groupID, hostM)
	require.NoError(t, err)
	_, err = l.Join(ctx, groupID, listener)
	require.NoError(t, err)

	state, err := l.Stop(ctx, groupID, hostM)
	require.NoError(t, err)
	assert.False(t, state.IsLive)
	assert.Equal(t, []domain.UserID{listener}, state.Listeners, "stop keeps membership for a later restart")

	// Operations on a stopped room fail, but the snapshot is still readable.
	_, err = l.Join(ctx, groupID, guestG)
	assert.ErrorIs(t, err, domain.ErrLiveNotActive)
	got, err := l.GetState(ctx, groupID, listener)
	require.NoError(t, err)
	assert.False(t, got.IsLive)
}

func TestRevokeSpeaker_NeverTheHost(t *testing.T) {
	l := newLiveRooms(t)
	ctx := context.Background()

	_, err := l.Start(ctx, groupID, hostM)
	require.NoError(t, err)

	_, err = l.RevokeSpeaker(ctx, groupID, hostM, hostM)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestToggleMute_OnlySpeakingRoles(t *testing.T) {
	l := newLiveRooms(t)
	ctx := context.Background()

	_, err := l.Start(ctx, groupID, hostM)
	require.NoError(t, err)
	_, err = l.Join(ctx, groupID, listener)
	require.NoError(t, err)

	_, err = l.SetMute(ctx, groupID, hostM, listener, true)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	state, err := l.SetMute(ctx, groupID, hostM, hostM, true)
	require.NoError(t, err)
	assert.Contains(t, state.Muted, hostM)

	state, err = l.SetMute(ctx, groupID, hostM, hostM, false)
	require.NoError(t, err)
	assert.NotContains(t, state.Muted, hostM)
}

func TestValidateParticipants(t *testing.T) {
	l := newLiveRooms(t)
	ctx := context.Background()

	err := l.ValidateParticipants(ctx, groupID, hostM, listener)
	assert.ErrorIs(t, err, domain.ErrLiveNotActive)

	_, err = l.Start(ctx, groupID, hostM)
	require.NoError(t, err)
	_, err = l.Join(ctx, groupID, listener)
	require.NoError(t, err)

	assert.NoError(t, l.ValidateParticipants(ctx, groupID, hostM, listener))
	assert.ErrorIs(t, l.ValidateParticipants(ctx, groupID, guestG, listener), domain.ErrForbidden)
	assert.ErrorIs(t, l.ValidateParticipants(ctx, groupID, hostM, guestG), domain.ErrNotFound)
}

// Every mutation's snapshot must match what GetState reads back immediately.
func TestSnapshotRoundTrip(t *testing.T) {
	l := newLiveRooms(t)
	ctx := context.Background()

	check := func(state *domain.LiveRoomState, err error) {
		require.NoError(t, err)
		read, err := l.GetState(ctx, groupID, hostM)
		require.NoError(t, err)
		want, _ := json.Marshal(state)
		got, _ := json.Marshal(read)
		assert.JSONEq(t, string(want), string(got))
	}

	check(l.Start(ctx, groupID, hostM))
	check(l.Join(ctx, groupID, listener))
	check(l.RaiseHand(ctx, groupID, listener))
	check(l.ApproveSpeaker(ctx, groupID, hostM, listener))
	check(l.SetMute(ctx, groupID, hostM, listener, true))
	check(l.RevokeSpeaker(ctx, groupID, hostM, listener))
	check(l.Leave(ctx, groupID, listener))
	check(l.Stop(ctx, groupID, hostM))
}

// Mutating a returned snapshot must not leak into the engine's state.
func TestSnapshotsAreCopies(t *testing.T) {
	l := newLiveRooms(t)
	ctx := context.Background()

	state, err := l.Start(ctx, groupID, hostM)
	require.NoError(t, err)
	state.Speakers[0] = "tampered"
	state.HostID = "tampered"

	got, err := l.GetState(ctx, groupID, hostM)
	require.NoError(t, err)
	assert.Equal(t, hostM, got.HostID)
	assert.Equal(t, []domain.UserID{hostM}, got.Speakers)
}
