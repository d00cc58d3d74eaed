package reconcile

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"example.com/ww-client/internal/werewolf"
)

// Tone classifies an announcement for presentation (color, sound).
type Tone string

const (
	ToneAlarm   Tone = "alarm"
	ToneCalm    Tone = "calm"
	ToneLove    Tone = "love"
	ToneSpecial Tone = "special"
	ToneNeutral Tone = "neutral"
)

// Announcement is a one-shot staged narrative reveal.
type Announcement struct {
	Title    string
	Subtitle string
	Tone     Tone
}

// IsDramatic reports whether the prev→next phase change warrants a staged
// reveal before the board updates.
func IsDramatic(prev, next werewolf.Phase) bool {
	if prev == next {
		return false
	}
	switch {
	case prev == werewolf.PhaseNight && next == werewolf.PhaseDay:
		return true
	case prev == werewolf.PhaseDay &&
		next != werewolf.PhaseDay &&
		next != werewolf.PhaseWaiting &&
		next != werewolf.PhaseGameOver:
		return true
	case next == werewolf.PhaseGameOver:
		return true
	}
	return false
}

// Derive builds the announcement for a dramatic transition between two
// consecutive snapshots. Returns nil for non-dramatic changes.
func Derive(prev, next *werewolf.GameState) *Announcement {
	if prev == nil || next == nil || !IsDramatic(prev.Phase, next.Phase) {
		return nil
	}

	switch {
	case prev.Phase == werewolf.PhaseNight && next.Phase == werewolf.PhaseDay:
		return morningAnnouncement(prev, next)
	case next.Phase == werewolf.PhaseGameOver:
		return gameOverAnnouncement(next)
	default: // DAY -> night side
		return executionAnnouncement(next)
	}
}

func morningAnnouncement(prev, next *werewolf.GameState) *Announcement {
	var dead []string
	for id, p := range next.Players {
		was, ok := prev.Players[id]
		if ok && was.IsAlive && !p.IsAlive {
			dead = append(dead, p.Nickname)
		}
	}
	sort.Strings(dead)

	a := &Announcement{Title: "Morning Breaks..."}
	if len(dead) == 0 {
		a.Subtitle = "...and it was a peaceful night."
		a.Tone = ToneCalm
		return a
	}
	a.Subtitle = fmt.Sprintf("...and %s was found dead.", strings.Join(dead, ", "))
	a.Tone = ToneAlarm
	return a
}

func executionAnnouncement(next *werewolf.GameState) *Announcement {
	a := &Announcement{Title: "The Village Has Spoken"}
	if next.VotedOutThisRound != nil {
		if victim := next.Player(*next.VotedOutThisRound); victim != nil {
			a.Subtitle = fmt.Sprintf("%s was executed.", victim.Nickname)
			a.Tone = ToneAlarm
			return a
		}
	}
	a.Subtitle = "No one was executed."
	a.Tone = ToneNeutral
	return a
}

func gameOverAnnouncement(next *werewolf.GameState) *Announcement {
	a := &Announcement{Subtitle: "The game has ended."}

	winners := ""
	if next.Winners != nil {
		winners = *next.Winners
	}
	switch winners {
	case werewolf.WinnersWerewolves:
		a.Title, a.Tone = "Werewolves Win!", ToneAlarm
	case werewolf.WinnersVillagers:
		a.Title, a.Tone = "Villagers Win!", ToneCalm
	case werewolf.WinnersLovers:
		a.Title, a.Tone = "Lovers Win!", ToneLove
	case werewolf.WinnersTanner:
		a.Title, a.Tone = "Tanner Wins!", ToneSpecial
	default:
		// unknown winner values must not error out
		a.Title, a.Tone = "Game Over", ToneNeutral
	}
	return a
}

// Stage is where an active announcement is in its choreography.
type Stage string

const (
	StageIntro  Stage = "intro"  // title holds alone
	StageReveal Stage = "reveal" // subtitle shown
)

// SequencerConfig sets the announcement timings. Zero values fall back to
// the tuned defaults.
type SequencerConfig struct {
	Intro  time.Duration // title hold before the subtitle reveal
	Total  time.Duration // full duration until self-clear
	Notify func(a Announcement, stage Stage, done bool)
}

const (
	defaultIntro = 2500 * time.Millisecond
	defaultTotal = 6500 * time.Millisecond
)

// Sequencer runs at most one announcement at a time. A publish while one
// is mid-sequence is dropped, never queued.
type Sequencer struct {
	mu     sync.Mutex
	intro  time.Duration
	total  time.Duration
	notify func(Announcement, Stage, bool)

	gen    int64 // invalidates outstanding timers
	active *Announcement
	stage  Stage
	timers []*time.Timer
	closed bool
}

func NewSequencer(cfg SequencerConfig) *Sequencer {
	if cfg.Intro <= 0 {
		cfg.Intro = defaultIntro
	}
	if cfg.Total <= cfg.Intro {
		cfg.Total = defaultTotal
	}
	return &Sequencer{intro: cfg.Intro, total: cfg.Total, notify: cfg.Notify}
}

// Publish starts the announcement. Returns false when dropped (one is
// already running, or the sequencer is closed).
func (s *Sequencer) Publish(a Announcement) bool {
	s.mu.Lock()
	if s.closed || s.active != nil {
		s.mu.Unlock()
		return false
	}

	s.gen++
	gen := s.gen
	s.active = &a
	s.stage = StageIntro
	s.timers = []*time.Timer{
		time.AfterFunc(s.intro, func() { s.advance(gen, StageReveal) }),
		time.AfterFunc(s.total, func() { s.clear(gen) }),
	}
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(a, StageIntro, false)
	}
	return true
}

// Active returns the running announcement and its stage, or nil.
func (s *Sequencer) Active() (*Announcement, Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil, ""
	}
	a := *s.active
	return &a, s.stage
}

// Close cancels any running announcement; used on teardown or room change
// so stale timers cannot fire for a different room.
func (s *Sequencer) Close() {
	s.mu.Lock()
	s.closed = true
	s.gen++
	s.stopTimersLocked()
	s.active = nil
	s.mu.Unlock()
}

func (s *Sequencer) advance(gen int64, stage Stage) {
	s.mu.Lock()
	if s.closed || gen != s.gen || s.active == nil {
		s.mu.Unlock()
		return
	}
	s.stage = stage
	a := *s.active
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(a, stage, false)
	}
}

func (s *Sequencer) clear(gen int64) {
	s.mu.Lock()
	if s.closed || gen != s.gen || s.active == nil {
		s.mu.Unlock()
		return
	}
	a := *s.active
	stage := s.stage
	s.active = nil
	s.stopTimersLocked()
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(a, stage, true)
	}
}

func (s *Sequencer) stopTimersLocked() {
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}
