package action

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/ww-client/internal/werewolf"
)

func werewolfPlayer(id, nickname string, target *string, confirmed bool) werewolf.Player {
	role := werewolf.RoleWerewolf
	return werewolf.Player{
		ID:                   id,
		Nickname:             nickname,
		Role:                 &role,
		IsAlive:              true,
		NightActionTarget:    target,
		NightActionConfirmed: confirmed,
	}
}

func TestConsensus_ProposeBroadcastsUnconfirmed(t *testing.T) {
	sender := &recordSender{}
	c := NewConsensus("w1", sender)
	state := nightState(player("v", "Vic", true))

	require.NoError(t, c.Propose(context.Background(), state, "v"))
	assert.Equal(t, []submitCall{{werewolf.ActionKill, "v", false}}, sender.sent(),
		"proposals go out immediately so packmates see the pick")
}

func TestConsensus_ConfirmLocksOwnVoteOnly(t *testing.T) {
	sender := &recordSender{}
	c := NewConsensus("w1", sender)

	me := werewolfPlayer("w1", "Wolf", strptr("v"), false)
	c.Observe(&me)
	assert.False(t, c.Locked())

	require.NoError(t, c.Confirm(context.Background()))
	assert.Equal(t, []submitCall{{werewolf.ActionKill, "v", true}}, sender.sent())

	locked := werewolfPlayer("w1", "Wolf", strptr("v"), true)
	c.Observe(&locked)
	assert.True(t, c.Locked())
	assert.ErrorIs(t, c.Confirm(context.Background()), ErrLocked)
	assert.ErrorIs(t, c.Propose(context.Background(), nightState(), "v"), ErrLocked)
}

func TestConsensus_ConfirmWithoutProposalIsNoop(t *testing.T) {
	sender := &recordSender{}
	c := NewConsensus("w1", sender)

	me := werewolfPlayer("w1", "Wolf", nil, false)
	c.Observe(&me)

	assert.ErrorIs(t, c.Confirm(context.Background()), ErrNoTarget)
	assert.Empty(t, sender.sent())
}

func TestConsensus_ConfirmOnSkipProposalSendsSkip(t *testing.T) {
	sender := &recordSender{}
	c := NewConsensus("w1", sender)

	me := werewolfPlayer("w1", "Wolf", strptr(werewolf.SkipTarget), false)
	c.Observe(&me)

	require.NoError(t, c.Confirm(context.Background()))
	assert.Equal(t, []submitCall{{werewolf.ActionSkip, werewolf.SkipTarget, true}}, sender.sent())
}

func TestConsensus_UnlockReleasesOwnVote(t *testing.T) {
	sender := &recordSender{}
	c := NewConsensus("w1", sender)

	me := werewolfPlayer("w1", "Wolf", strptr("v"), true)
	c.Observe(&me)

	require.NoError(t, c.Unlock(context.Background()))
	assert.Equal(t, []submitCall{{werewolf.ActionKill, "v", false}}, sender.sent())
}

func TestIndicators_GroupsVisibleFactionVotes(t *testing.T) {
	state := nightState(
		werewolfPlayer("w1", "Zed", strptr("v"), true),
		werewolfPlayer("w2", "Amy", strptr("v"), false),
		werewolfPlayer("w3", "Kim", strptr(werewolf.SkipTarget), true),
		player("v", "Vic", true), // role hidden: no indicator
	)

	got := Indicators(state)
	require.Len(t, got, 2)

	// sorted by nickname within a candidate
	require.Len(t, got["v"], 2)
	assert.Equal(t, "Amy", got["v"][0].Nickname)
	assert.False(t, got["v"][0].Confirmed)
	assert.Equal(t, "Zed", got["v"][1].Nickname)
	assert.True(t, got["v"][1].Confirmed)

	require.Len(t, got[werewolf.SkipTarget], 1)
	assert.Equal(t, "w3", got[werewolf.SkipTarget][0].PlayerID)
}

func TestIndicators_SkipsDeadWolvesAndHiddenRoles(t *testing.T) {
	deadWolf := werewolfPlayer("w1", "Gone", strptr("v"), true)
	deadWolf.IsAlive = false

	seer := werewolf.RoleSeer
	state := nightState(
		deadWolf,
		werewolf.Player{ID: "s", Nickname: "Sue", Role: &seer, IsAlive: true, NightActionTarget: strptr("v")},
	)

	assert.Empty(t, Indicators(state))
}
