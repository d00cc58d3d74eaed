package action

import (
	"context"
	"sync"

	"example.com/ww-client/internal/werewolf"
)

// PairLink is the cupid machine: pick exactly two players to entangle.
// The pair is transmitted jointly as one order-insensitive action.
type PairLink struct {
	mu     sync.Mutex
	sender Sender

	me       *werewolf.Player
	selected []string // at most two
}

func NewPairLink(sender Sender) *PairLink {
	return &PairLink{sender: sender}
}

func (l *PairLink) Observe(me *werewolf.Player) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.me = me
	if l.lockedLocked() {
		l.selected = nil
	}
}

func (l *PairLink) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lockedLocked()
}

func (l *PairLink) lockedLocked() bool {
	// the pair stays on the record after an unlock; only confirmed locks
	return l.me != nil && l.me.NightActionConfirmed && l.me.NightActionTarget != nil
}

// Targets returns what should render: the confirmed pair when the server
// holds one, the local accumulation otherwise.
func (l *PairLink) Targets() (ids []string, confirmed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lockedLocked() {
		if a, b, ok := werewolf.SplitLinkTarget(*l.me.NightActionTarget); ok {
			return []string{a, b}, true
		}
		return nil, true
	}
	return append([]string(nil), l.selected...), false
}

// Toggle adds or removes a target. Selection caps at two; a third pick is
// rejected until something is deselected.
func (l *PairLink) Toggle(state *werewolf.GameState, targetID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lockedLocked() {
		return ErrLocked
	}
	for i, id := range l.selected {
		if id == targetID {
			l.selected = append(l.selected[:i], l.selected[i+1:]...)
			return nil
		}
	}
	if len(l.selected) >= 2 {
		return ErrInvalidTarget
	}
	if !validTarget(state, targetID) {
		return ErrInvalidTarget
	}
	l.selected = append(l.selected, targetID)
	return nil
}

// CanConfirm is true only at exactly two targets.
func (l *PairLink) CanConfirm() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.lockedLocked() && len(l.selected) == 2
}

// Confirm sends both ids as a single joint request.
func (l *PairLink) Confirm(ctx context.Context) error {
	l.mu.Lock()
	if l.lockedLocked() {
		l.mu.Unlock()
		return ErrLocked
	}
	if len(l.selected) != 2 {
		l.mu.Unlock()
		return ErrNoTarget
	}
	target := werewolf.LinkTarget(l.selected[0], l.selected[1])
	l.mu.Unlock()

	return l.sender.SubmitAction(ctx, werewolf.ActionLink, target, true)
}

// Skip leaves no one entangled. Always sendable.
func (l *PairLink) Skip(ctx context.Context) error {
	return l.sender.SubmitAction(ctx, werewolf.ActionSkip, werewolf.SkipTarget, true)
}

// Unlock releases the confirmed pair.
func (l *PairLink) Unlock(ctx context.Context) error {
	l.mu.Lock()
	if !l.lockedLocked() {
		l.mu.Unlock()
		return ErrNotLocked
	}
	target := *l.me.NightActionTarget
	l.mu.Unlock()

	return l.sender.SubmitAction(ctx, werewolf.ActionLink, target, false)
}
