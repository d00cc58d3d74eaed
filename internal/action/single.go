package action

import (
	"context"
	"sync"

	"example.com/ww-client/internal/werewolf"
)

// Single is the one-target machine (seer check, doctor save, lone kill).
// Confirm sends immediately; SKIP is always a legal terminal submission
// and is distinct from "nothing selected yet".
type Single struct {
	mu     sync.Mutex
	action werewolf.ActionType
	sender Sender

	me       *werewolf.Player // viewer's own latest entry
	selected string           // local proposal, "" == none
}

func NewSingle(actionType werewolf.ActionType, sender Sender) *Single {
	return &Single{action: actionType, sender: sender}
}

// Observe reconciles against the viewer's own record. Once the server
// holds a confirmed action, the local proposal is discarded.
func (s *Single) Observe(me *werewolf.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.me = me
	if s.lockedLocked() {
		s.selected = ""
	}
}

// Locked reports whether the server holds this player's action as final.
// The server keeps the target set on an unconfirmed record, so presence
// alone never locks; only the confirmed flag does.
func (s *Single) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockedLocked()
}

func (s *Single) lockedLocked() bool {
	return s.me != nil && s.me.NightActionConfirmed && s.me.NightActionTarget != nil
}

// Target returns what should render, confirmed record first.
func (s *Single) Target() (id string, confirmed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lockedLocked() {
		return *s.me.NightActionTarget, true
	}
	return s.selected, false
}

// Toggle selects the target, or deselects it when already selected.
func (s *Single) Toggle(state *werewolf.GameState, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lockedLocked() {
		return ErrLocked
	}
	if s.selected == targetID {
		s.selected = ""
		return nil
	}
	if !validTarget(state, targetID) {
		return ErrInvalidTarget
	}
	s.selected = targetID
	return nil
}

// Confirm submits the selection as final. With nothing selected it is a
// local no-op error.
func (s *Single) Confirm(ctx context.Context) error {
	s.mu.Lock()
	if s.lockedLocked() {
		s.mu.Unlock()
		return ErrLocked
	}
	target := s.selected
	s.mu.Unlock()

	if target == "" {
		return ErrNoTarget
	}
	return s.sender.SubmitAction(ctx, s.action, target, true)
}

// Skip declines the action. Always sendable, whatever else is selected.
func (s *Single) Skip(ctx context.Context) error {
	return s.sender.SubmitAction(ctx, werewolf.ActionSkip, werewolf.SkipTarget, true)
}

// Unlock re-submits the confirmed record with confirmed=false so the
// server releases it and target selection re-enables.
func (s *Single) Unlock(ctx context.Context) error {
	s.mu.Lock()
	if !s.lockedLocked() {
		s.mu.Unlock()
		return ErrNotLocked
	}
	target := *s.me.NightActionTarget
	s.mu.Unlock()

	return s.sender.SubmitAction(ctx, s.action, target, false)
}
