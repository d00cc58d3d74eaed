// Package action holds the per-role night-action state machines. Each one
// tracks a transient local selection and reconciles it against the
// viewer's own confirmed record in the snapshot: confirmed beats proposed,
// proposed beats nothing. Player intent only flows outward through a
// Sender; it never touches the state cache directly.
package action

import (
	"context"
	"errors"

	"example.com/ww-client/internal/werewolf"
)

// Sender carries a submit to the rule engine for one (room, player).
type Sender interface {
	SubmitAction(ctx context.Context, actionType werewolf.ActionType, targetID string, confirmed bool) error
}

var (
	// ErrNoTarget: the action requires a target and none is selected.
	// Submitting anyway must be a local no-op, never sent.
	ErrNoTarget = errors.New("action: no target selected")

	// ErrLocked: the server holds a confirmed record; target changes are
	// disabled until an explicit unlock.
	ErrLocked = errors.New("action: locked by confirmed record")

	// ErrInvalidTarget: dead or spectator players cannot be targeted.
	ErrInvalidTarget = errors.New("action: target is not a living player")

	// ErrNotLocked: unlock is only meaningful with a confirmed record.
	ErrNotLocked = errors.New("action: nothing to unlock")
)

// validTarget reports whether id may be targeted: a living non-spectator.
func validTarget(state *werewolf.GameState, id string) bool {
	p := state.Player(id)
	return p != nil && p.IsAlive && !p.IsSpectator
}
