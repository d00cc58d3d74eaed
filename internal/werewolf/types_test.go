package werewolf

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupersedes(t *testing.T) {
	cases := []struct {
		name       string
		prev, next *GameState
		want       bool
	}{
		{"first snapshot always wins", nil, &GameState{Phase: PhaseWaiting}, true},
		{"higher turn wins", &GameState{Phase: PhaseDay, TurnCount: 2}, &GameState{Phase: PhaseNight, TurnCount: 3}, true},
		{"lower turn loses", &GameState{Phase: PhaseNight, TurnCount: 3}, &GameState{Phase: PhaseGameOver, TurnCount: 2}, false},
		{"same turn later phase wins", &GameState{Phase: PhaseNight, TurnCount: 1}, &GameState{Phase: PhaseDay, TurnCount: 1}, true},
		{"same turn earlier phase loses", &GameState{Phase: PhaseVoting, TurnCount: 1}, &GameState{Phase: PhaseDay, TurnCount: 1}, false},
		{"identical snapshot is accepted", &GameState{Phase: PhaseDay, TurnCount: 1}, &GameState{Phase: PhaseDay, TurnCount: 1}, true},
		{"game over beats everything in-turn", &GameState{Phase: PhaseVoting, TurnCount: 4}, &GameState{Phase: PhaseGameOver, TurnCount: 4}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.next.Supersedes(tc.prev))
		})
	}
}

func TestLinkTargetCanonicalEncoding(t *testing.T) {
	assert.Equal(t, LinkTarget("a", "b"), LinkTarget("b", "a"))
	assert.Equal(t, "a,b", LinkTarget("b", "a"))

	a, b, ok := SplitLinkTarget("a,b")
	require.True(t, ok)
	assert.Equal(t, "a", a)
	assert.Equal(t, "b", b)

	_, _, ok = SplitLinkTarget("justone")
	assert.False(t, ok)
	_, _, ok = SplitLinkTarget("a,")
	assert.False(t, ok)
	_, _, ok = SplitLinkTarget(SkipTarget)
	assert.False(t, ok)
}

func TestGameState_DecodesServerJSON(t *testing.T) {
	raw := `{
		"room_id": "r1",
		"phase": "NIGHT",
		"turn_count": 2,
		"voted_out_this_round": "p3",
		"players": {
			"p1": {
				"id": "p1",
				"nickname": "Willa",
				"role": "WITCH",
				"is_alive": true,
				"is_admin": true,
				"is_online": true,
				"witch_has_heal": true,
				"night_action_confirmed": false,
				"night_info": {
					"prompt": "The wolves chose a victim.",
					"actions_available": ["HEAL", "POISON"],
					"victim_id": "p2"
				}
			},
			"p2": {"id": "p2", "nickname": "Vic", "role": null, "is_alive": false}
		},
		"seer_reveals": {"p4": ["p1", "p2"]}
	}`

	var s GameState
	require.NoError(t, json.Unmarshal([]byte(raw), &s))

	assert.Equal(t, PhaseNight, s.Phase)
	assert.Equal(t, 2, s.TurnCount)
	require.NotNil(t, s.VotedOutThisRound)
	assert.Equal(t, "p3", *s.VotedOutThisRound)

	witch := s.Player("p1")
	require.NotNil(t, witch)
	require.NotNil(t, witch.Role)
	assert.Equal(t, RoleWitch, *witch.Role)
	assert.True(t, witch.WitchHasHeal)
	require.NotNil(t, witch.NightInfo)
	assert.Equal(t, "p2", witch.NightInfo.VictimID)
	assert.Equal(t, []string{"HEAL", "POISON"}, witch.NightInfo.ActionsAvailable)

	// hidden roles arrive as null, not as a zero value
	vic := s.Player("p2")
	require.NotNil(t, vic)
	assert.Nil(t, vic.Role)

	assert.Nil(t, s.Player("ghost"))
	assert.Equal(t, []string{"p1", "p2"}, s.SeerReveals["p4"])
}

func TestAlivePlayersExcludesDeadAndSpectators(t *testing.T) {
	s := &GameState{Players: map[string]Player{
		"a": {ID: "a", IsAlive: true},
		"d": {ID: "d", IsAlive: false},
		"s": {ID: "s", IsAlive: true, IsSpectator: true},
	}}

	got := s.AlivePlayers()
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}
