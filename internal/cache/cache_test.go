package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/ww-client/internal/werewolf"
)

func snap(phase werewolf.Phase, turn int) *werewolf.GameState {
	return &werewolf.GameState{
		RoomID:    "r1",
		Phase:     phase,
		TurnCount: turn,
		Players: map[string]werewolf.Player{
			"a": {ID: "a", Nickname: "Ann", IsAlive: true, IsOnline: true},
			"b": {ID: "b", Nickname: "Bob", IsAlive: true, IsOnline: true},
		},
	}
}

func TestCache_SetAndGetPerViewer(t *testing.T) {
	c := New()

	require.True(t, c.Set("r1", "a", snap(werewolf.PhaseNight, 1)))
	require.True(t, c.Set("r1", "b", snap(werewolf.PhaseDay, 2)))

	got := c.Get("r1", "a")
	require.NotNil(t, got)
	assert.Equal(t, werewolf.PhaseNight, got.Phase)

	got = c.Get("r1", "b")
	require.NotNil(t, got)
	assert.Equal(t, 2, got.TurnCount, "viewers never share an entry")

	assert.Nil(t, c.Get("r2", "a"))
}

func TestCache_StaleSnapshotRejected(t *testing.T) {
	c := New()

	require.True(t, c.Set("r1", "a", snap(werewolf.PhaseDay, 2)))

	// a late REST response from before the phase change
	assert.False(t, c.Set("r1", "a", snap(werewolf.PhaseNight, 1)))
	assert.Equal(t, 2, c.Get("r1", "a").TurnCount)

	// same turn, earlier phase loses too
	assert.False(t, c.Set("r1", "a", snap(werewolf.PhaseNight, 2)))
	assert.Equal(t, werewolf.PhaseDay, c.Get("r1", "a").Phase)

	// same turn, same phase: a refreshed copy wins
	assert.True(t, c.Set("r1", "a", snap(werewolf.PhaseDay, 2)))
}

func TestCache_SetOnlinePatchesOnlyPresence(t *testing.T) {
	c := New()
	orig := snap(werewolf.PhaseNight, 3)
	require.True(t, c.Set("r1", "a", orig))

	require.True(t, c.SetOnline("r1", "a", "b", false))

	got := c.Get("r1", "a")
	assert.False(t, got.Players["b"].IsOnline)
	assert.True(t, got.Players["b"].IsAlive, "patch must not touch other fields")
	assert.Equal(t, 3, got.TurnCount)
	assert.True(t, orig.Players["b"].IsOnline, "stored snapshots are immutable; the patch works on a copy")
}

func TestCache_SetOnlineDroppedWithoutSnapshotOrChange(t *testing.T) {
	c := New()

	assert.False(t, c.SetOnline("r1", "a", "b", false), "presence before first snapshot has nothing to patch")

	require.True(t, c.Set("r1", "a", snap(werewolf.PhaseNight, 1)))
	assert.False(t, c.SetOnline("r1", "a", "ghost", false))
	assert.False(t, c.SetOnline("r1", "a", "b", true), "no-op patch must not notify")
}

func TestCache_SubscribeAndCancel(t *testing.T) {
	c := New()

	var seen []int
	cancel := c.Subscribe("r1", "a", func(s *werewolf.GameState) {
		seen = append(seen, s.TurnCount)
	})

	c.Set("r1", "a", snap(werewolf.PhaseNight, 1))
	c.Set("r1", "a", snap(werewolf.PhaseNight, 0)) // stale, no callback
	c.SetOnline("r1", "a", "b", false)
	c.Set("r1", "other", snap(werewolf.PhaseNight, 5)) // different key

	assert.Equal(t, []int{1, 1}, seen)

	cancel()
	c.Set("r1", "a", snap(werewolf.PhaseDay, 2))
	assert.Equal(t, []int{1, 1}, seen, "cancelled subscriber must not fire")
}

func TestCache_Drop(t *testing.T) {
	c := New()
	require.True(t, c.Set("r1", "a", snap(werewolf.PhaseNight, 1)))

	c.Drop("r1", "a")
	assert.Nil(t, c.Get("r1", "a"))

	// after a drop any snapshot is fresh again
	assert.True(t, c.Set("r1", "a", snap(werewolf.PhaseWaiting, 0)))
}
