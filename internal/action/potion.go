package action

import (
	"context"
	"sync"

	"example.com/ww-client/internal/werewolf"
)

// Potion is the two-resource machine (witch): one heal and one poison,
// each single-use, mutually exclusive per night. Heal auto-targets the
// server-announced victim; poison opens a secondary target picker.
type Potion struct {
	mu     sync.Mutex
	sender Sender

	me *werewolf.Player

	pickingPoison bool
	poisonTarget  string
}

func NewPotion(sender Sender) *Potion {
	return &Potion{sender: sender}
}

// Observe reconciles against the viewer's own record; a confirmed action
// discards the transient poison selection.
func (p *Potion) Observe(me *werewolf.Player) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.me = me
	if p.lockedLocked() {
		p.pickingPoison = false
		p.poisonTarget = ""
	}
}

func (p *Potion) Locked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lockedLocked()
}

func (p *Potion) lockedLocked() bool {
	// presence alone is not a lock: an unlock leaves the record in place
	// with only the confirmed flag dropped
	return p.me != nil && p.me.NightActionConfirmed && p.me.NightActionType != nil
}

// CanHeal: the heal charge is unspent, the server offered HEAL tonight,
// and there is a victim to save.
func (p *Potion) CanHeal() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.lockedLocked() &&
		p.me != nil && p.me.WitchHasHeal &&
		p.offeredLocked(werewolf.ActionHeal) &&
		p.victimLocked() != ""
}

// CanPoison: the poison charge is unspent and the server offered POISON.
func (p *Potion) CanPoison() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.lockedLocked() &&
		p.me != nil && p.me.WitchHasPoison &&
		p.offeredLocked(werewolf.ActionPoison)
}

func (p *Potion) offeredLocked(a werewolf.ActionType) bool {
	if p.me == nil || p.me.NightInfo == nil {
		return false
	}
	for _, avail := range p.me.NightInfo.ActionsAvailable {
		if avail == string(a) {
			return true
		}
	}
	return false
}

func (p *Potion) victimLocked() string {
	if p.me == nil || p.me.NightInfo == nil {
		return ""
	}
	return p.me.NightInfo.VictimID
}

// Victim returns tonight's kill target the heal would save, if known.
func (p *Potion) Victim() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.victimLocked()
}

// Heal spends the heal charge. With an empty targetID the server-supplied
// victim id is used; without one there is nothing to heal.
func (p *Potion) Heal(ctx context.Context, targetID string) error {
	p.mu.Lock()
	if p.lockedLocked() {
		p.mu.Unlock()
		return ErrLocked
	}
	canHeal := p.me != nil && p.me.WitchHasHeal && p.offeredLocked(werewolf.ActionHeal)
	if targetID == "" {
		targetID = p.victimLocked()
	}
	p.mu.Unlock()

	if !canHeal || targetID == "" {
		return ErrNoTarget
	}
	return p.sender.SubmitAction(ctx, werewolf.ActionHeal, targetID, true)
}

// OpenPoison enters the eliminate sub-flow with its own target picker.
func (p *Potion) OpenPoison() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lockedLocked() {
		return ErrLocked
	}
	p.pickingPoison = true
	return nil
}

// ClosePoison backs out of the eliminate sub-flow, dropping the selection.
func (p *Potion) ClosePoison() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pickingPoison = false
	p.poisonTarget = ""
}

// PickingPoison reports whether the secondary picker subview is open.
func (p *Potion) PickingPoison() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pickingPoison
}

// TogglePoisonTarget selects or deselects the victim-to-be.
func (p *Potion) TogglePoisonTarget(state *werewolf.GameState, targetID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lockedLocked() {
		return ErrLocked
	}
	if !p.pickingPoison {
		return ErrNoTarget
	}
	if p.poisonTarget == targetID {
		p.poisonTarget = ""
		return nil
	}
	if !validTarget(state, targetID) {
		return ErrInvalidTarget
	}
	p.poisonTarget = targetID
	return nil
}

// PoisonTarget returns the transient poison selection.
func (p *Potion) PoisonTarget() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.poisonTarget
}

// ConfirmPoison spends the poison charge on the selected target.
func (p *Potion) ConfirmPoison(ctx context.Context) error {
	p.mu.Lock()
	if p.lockedLocked() {
		p.mu.Unlock()
		return ErrLocked
	}
	canPoison := p.me != nil && p.me.WitchHasPoison && p.offeredLocked(werewolf.ActionPoison)
	target := p.poisonTarget
	p.mu.Unlock()

	if !canPoison || target == "" {
		return ErrNoTarget
	}
	return p.sender.SubmitAction(ctx, werewolf.ActionPoison, target, true)
}

// Skip keeps both charges for another night. Always sendable.
func (p *Potion) Skip(ctx context.Context) error {
	return p.sender.SubmitAction(ctx, werewolf.ActionSkip, werewolf.SkipTarget, true)
}

// Unlock releases the confirmed potion action.
func (p *Potion) Unlock(ctx context.Context) error {
	p.mu.Lock()
	if !p.lockedLocked() || p.me.NightActionTarget == nil {
		p.mu.Unlock()
		return ErrNotLocked
	}
	actionType := werewolf.ActionType(*p.me.NightActionType)
	target := *p.me.NightActionTarget
	p.mu.Unlock()

	return p.sender.SubmitAction(ctx, actionType, target, false)
}
