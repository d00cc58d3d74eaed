// Package werewolf holds the wire data model shared by the REST and
// WebSocket collaborators. Field names follow the server's JSON exactly.
package werewolf

// Phase is the server-driven game phase.
type Phase string

const (
	PhaseWaiting  Phase = "WAITING" // lobby
	PhaseNight    Phase = "NIGHT"
	PhaseDay      Phase = "DAY"
	PhaseVoting   Phase = "VOTING"
	PhaseGameOver Phase = "GAME_OVER"
)

// Role is a player role. The viewer only sees roles the server chose to
// reveal; everything else arrives as null.
type Role string

const (
	RoleVillager  Role = "VILLAGER"
	RoleWerewolf  Role = "WEREWOLF"
	RoleSeer      Role = "SEER"
	RoleDoctor    Role = "DOCTOR"
	RoleWitch     Role = "WITCH"
	RoleCupid     Role = "CUPID"
	RoleLycan     Role = "LYCAN"
	RoleTanner    Role = "TANNER"
	RoleSpectator Role = "SPECTATOR"
)

// Known winner values. Anything else must degrade to a generic game-over.
const (
	WinnersWerewolves = "WEREWOLVES"
	WinnersVillagers  = "VILLAGERS"
	WinnersLovers     = "LOVERS"
	WinnersTanner     = "TANNER"
)

// NightInfo is role-specific guidance the server attaches to the viewer's
// own player entry during NIGHT.
type NightInfo struct {
	Prompt           string   `json:"prompt,omitempty"`
	ActionsAvailable []string `json:"actions_available,omitempty"`
	VictimID         string   `json:"victim_id,omitempty"`
}

// Player is one entry of the viewer-scoped player map.
type Player struct {
	ID          string `json:"id"`
	Nickname    string `json:"nickname"`
	Role        *Role  `json:"role"`
	IsAlive     bool   `json:"is_alive"`
	IsSpectator bool   `json:"is_spectator"`
	IsAdmin     bool   `json:"is_admin"`
	IsOnline    bool   `json:"is_online"`

	VoteTarget *string `json:"vote_target,omitempty"`

	NightActionType      *string `json:"night_action_type,omitempty"`
	NightActionTarget    *string `json:"night_action_target,omitempty"`
	NightActionConfirmed bool    `json:"night_action_confirmed,omitempty"`
	HasNightAction       bool    `json:"has_night_action,omitempty"`

	WitchHasHeal   bool `json:"witch_has_heal,omitempty"`
	WitchHasPoison bool `json:"witch_has_poison,omitempty"`

	NightInfo *NightInfo `json:"night_info,omitempty"`
}

// Settings mirrors the server's game settings object.
type Settings struct {
	RoleDistribution     map[Role]int `json:"role_distribution,omitempty"`
	PhaseDurationSeconds int          `json:"phase_duration_seconds,omitempty"`
	TimerEnabled         bool         `json:"timer_enabled,omitempty"`
}

// GameState is one viewer-scoped snapshot of a room. Within one viewer's
// stream turn counters never decrease.
type GameState struct {
	RoomID            string              `json:"room_id"`
	Phase             Phase               `json:"phase"`
	Players           map[string]Player   `json:"players"`
	Settings          Settings            `json:"settings"`
	TurnCount         int                 `json:"turn_count"`
	PhaseStartTime    *float64            `json:"phase_start_time,omitempty"`
	VotedOutThisRound *string             `json:"voted_out_this_round,omitempty"`
	Winners           *string             `json:"winners,omitempty"`
	SeerReveals       map[string][]string `json:"seer_reveals,omitempty"`
}

// Player returns the entry for id, or nil.
func (s *GameState) Player(id string) *Player {
	if s == nil {
		return nil
	}
	p, ok := s.Players[id]
	if !ok {
		return nil
	}
	return &p
}

// AlivePlayers returns living, non-spectator players (valid action targets).
func (s *GameState) AlivePlayers() []Player {
	if s == nil {
		return nil
	}
	out := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.IsAlive && !p.IsSpectator {
			out = append(out, p)
		}
	}
	return out
}

// phaseRank orders phases within a single turn so two snapshots with equal
// turn counters still compare. GAME_OVER is terminal.
func phaseRank(p Phase) int {
	switch p {
	case PhaseWaiting:
		return 0
	case PhaseNight:
		return 1
	case PhaseDay:
		return 2
	case PhaseVoting:
		return 3
	case PhaseGameOver:
		return 4
	default:
		return 0
	}
}

// Supersedes reports whether s is at least as recent as prev by the
// snapshot's own ordering (turn counter first, then phase progression).
// Recency is decided by snapshot content, never by arrival time.
func (s *GameState) Supersedes(prev *GameState) bool {
	if s == nil {
		return false
	}
	if prev == nil {
		return true
	}
	if s.TurnCount != prev.TurnCount {
		return s.TurnCount > prev.TurnCount
	}
	return phaseRank(s.Phase) >= phaseRank(prev.Phase)
}
