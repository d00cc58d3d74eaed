// Package reconcile decouples "state is known" from "state is shown": the
// display buffer keeps the old board on screen while a dramatic reveal
// plays, then converges to the latest authoritative snapshot.
package reconcile

import (
	"log/slog"
	"sync"
	"time"

	"example.com/ww-client/internal/werewolf"
)

// EngineConfig wires one engine for one (room, viewer) stream.
type EngineConfig struct {
	HoldDelay time.Duration // board hold during a dramatic transition
	Sequencer *Sequencer    // optional; receives derived announcements
	OnDisplay func(*werewolf.GameState)
	Log       *slog.Logger
}

const defaultHoldDelay = 1500 * time.Millisecond

// Engine owns the DisplayedState for one stream. Offer it every accepted
// authoritative snapshot; it decides when the board may show it.
type Engine struct {
	mu        sync.Mutex
	holdDelay time.Duration
	seq       *Sequencer
	onDisplay func(*werewolf.GameState)
	log       *slog.Logger

	latest    *werewolf.GameState // newest authoritative snapshot seen
	displayed *werewolf.GameState // what the board shows

	gen    int64 // invalidates pending hold timers
	timer  *time.Timer
	closed bool

	// set under lock by displayLocked, drained by pendingNotifyLocked so
	// the observer never runs while the engine lock is held
	notifyPending *werewolf.GameState
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.HoldDelay <= 0 {
		cfg.HoldDelay = defaultHoldDelay
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Engine{
		holdDelay: cfg.HoldDelay,
		seq:       cfg.Sequencer,
		onDisplay: cfg.OnDisplay,
		log:       cfg.Log,
	}
}

// Offer hands the engine a new authoritative snapshot. Snapshots older
// than the newest seen (by their own turn counter/phase) are ignored.
// Same-phase changes propagate immediately (live vote counts); dramatic
// transitions derive the announcement first and hold the board until the
// overlay covers it. A newer snapshot arriving mid-hold is never lost:
// the timer always applies the latest one.
func (e *Engine) Offer(next *werewolf.GameState) {
	if next == nil {
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	// Subscriber callbacks can deliver inverted when two cache setters
	// race; recency comes from the snapshot itself, never arrival order.
	prevRaw := e.latest
	if !next.Supersedes(prevRaw) {
		e.mu.Unlock()
		return
	}
	e.latest = next

	// Announcements compare consecutive raw snapshots, not the displayed
	// board, so a transition overtaken mid-hold still gets its reveal.
	var ann *Announcement
	if prevRaw != nil && prevRaw.Phase != next.Phase {
		ann = Derive(prevRaw, next)
	}

	base := e.displayed
	switch {
	case base == nil:
		// first load: nothing to hold back
		e.displayLocked(next)
	case base.Phase == next.Phase:
		e.cancelTimerLocked()
		e.displayLocked(next)
	case IsDramatic(base.Phase, next.Phase):
		e.scheduleLocked()
	default:
		e.cancelTimerLocked()
		e.displayLocked(next)
	}

	seq := e.seq
	notify := e.pendingNotifyLocked()
	e.mu.Unlock()

	if ann != nil && seq != nil {
		if !seq.Publish(*ann) {
			e.log.Debug("announcement dropped, one already active",
				"title", ann.Title)
		}
	}
	if notify != nil {
		notify()
	}
}

// Displayed returns what the board currently shows.
func (e *Engine) Displayed() *werewolf.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.displayed
}

// Latest returns the newest authoritative snapshot seen, shown or not.
func (e *Engine) Latest() *werewolf.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latest
}

// Close cancels the pending hold timer and detaches the engine; stale
// callbacks must not mutate state for a torn-down room.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.cancelTimerLocked()
	e.mu.Unlock()

	if e.seq != nil {
		e.seq.Close()
	}
}

// scheduleLocked (re)arms the hold timer. Only one may be outstanding; a
// fresh snapshot restarts the hold so the overlay has time to cover the
// board.
func (e *Engine) scheduleLocked() {
	e.cancelTimerLocked()
	e.gen++
	gen := e.gen
	e.timer = time.AfterFunc(e.holdDelay, func() { e.applyHeld(gen) })
}

func (e *Engine) applyHeld(gen int64) {
	e.mu.Lock()
	if e.closed || gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.displayLocked(e.latest)
	notify := e.pendingNotifyLocked()
	e.mu.Unlock()

	if notify != nil {
		notify()
	}
}

func (e *Engine) cancelTimerLocked() {
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Engine) displayLocked(snap *werewolf.GameState) {
	e.displayed = snap
	e.notifyPending = snap
}

func (e *Engine) pendingNotifyLocked() func() {
	if e.notifyPending == nil || e.onDisplay == nil {
		return nil
	}
	snap := e.notifyPending
	e.notifyPending = nil
	fn := e.onDisplay
	return func() { fn(snap) }
}
