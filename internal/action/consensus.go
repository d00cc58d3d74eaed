package action

import (
	"context"
	"sort"
	"sync"

	"example.com/ww-client/internal/werewolf"
)

// Consensus is the multi-party kill vote. Every eligible actor proposes
// and confirms independently; confirming locks only the actor's own vote.
// The server, not this client, decides when the pack has converged.
type Consensus struct {
	mu     sync.Mutex
	sender Sender

	selfID string
	me     *werewolf.Player
}

func NewConsensus(selfID string, sender Sender) *Consensus {
	return &Consensus{selfID: selfID, sender: sender}
}

func (c *Consensus) Observe(me *werewolf.Player) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.me = me
}

// Locked reports whether this actor's own vote is confirmed. Peers may
// still be choosing.
func (c *Consensus) Locked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.me != nil && c.me.NightActionConfirmed
}

// Target returns this actor's current vote as the server records it.
// Proposals are pushed to the server immediately so peers see them, which
// makes the authoritative record the only selection state there is.
func (c *Consensus) Target() (id string, confirmed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.me == nil || c.me.NightActionTarget == nil {
		return "", false
	}
	return *c.me.NightActionTarget, c.me.NightActionConfirmed
}

// Propose submits an unconfirmed vote so packmates see the pick live.
func (c *Consensus) Propose(ctx context.Context, state *werewolf.GameState, targetID string) error {
	c.mu.Lock()
	locked := c.me != nil && c.me.NightActionConfirmed
	c.mu.Unlock()

	if locked {
		return ErrLocked
	}
	if !validTarget(state, targetID) {
		return ErrInvalidTarget
	}
	return c.sender.SubmitAction(ctx, werewolf.ActionKill, targetID, false)
}

// Confirm locks this actor's own vote on the currently proposed target.
func (c *Consensus) Confirm(ctx context.Context) error {
	c.mu.Lock()
	if c.me != nil && c.me.NightActionConfirmed {
		c.mu.Unlock()
		return ErrLocked
	}
	var target string
	if c.me != nil && c.me.NightActionTarget != nil {
		target = *c.me.NightActionTarget
	}
	c.mu.Unlock()

	if target == "" || target == werewolf.SkipTarget {
		if target == werewolf.SkipTarget {
			return c.sender.SubmitAction(ctx, werewolf.ActionSkip, werewolf.SkipTarget, true)
		}
		return ErrNoTarget
	}
	return c.sender.SubmitAction(ctx, werewolf.ActionKill, target, true)
}

// Skip votes to take no victim tonight. Always sendable.
func (c *Consensus) Skip(ctx context.Context) error {
	return c.sender.SubmitAction(ctx, werewolf.ActionSkip, werewolf.SkipTarget, true)
}

// Unlock releases this actor's confirmed vote.
func (c *Consensus) Unlock(ctx context.Context) error {
	c.mu.Lock()
	if c.me == nil || !c.me.NightActionConfirmed || c.me.NightActionTarget == nil {
		c.mu.Unlock()
		return ErrNotLocked
	}
	target := *c.me.NightActionTarget
	c.mu.Unlock()

	return c.sender.SubmitAction(ctx, werewolf.ActionKill, target, false)
}

// Indicator marks one packmate's declared vote on a candidate tile.
type Indicator struct {
	PlayerID  string
	Nickname  string
	Confirmed bool
}

// Indicators groups the visible faction votes by candidate so the pack can
// converge without out-of-band chat. Actors voting SKIP land under the
// werewolf.SkipTarget key. Only roles the snapshot reveals to the viewer
// count, which is exactly the viewer's own faction.
func Indicators(state *werewolf.GameState) map[string][]Indicator {
	if state == nil {
		return nil
	}

	out := make(map[string][]Indicator)
	for _, p := range state.Players {
		if p.Role == nil || *p.Role != werewolf.RoleWerewolf || !p.IsAlive {
			continue
		}
		if p.NightActionTarget == nil {
			continue
		}
		target := *p.NightActionTarget
		out[target] = append(out[target], Indicator{
			PlayerID:  p.ID,
			Nickname:  p.Nickname,
			Confirmed: p.NightActionConfirmed,
		})
	}
	for _, group := range out {
		sort.Slice(group, func(i, j int) bool { return group[i].Nickname < group[j].Nickname })
	}
	return out
}
