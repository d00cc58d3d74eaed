package reconcile

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/ww-client/internal/werewolf"
)

func snapshot(phase werewolf.Phase, turn int, players map[string]werewolf.Player) *werewolf.GameState {
	return &werewolf.GameState{
		RoomID:    "r1",
		Phase:     phase,
		TurnCount: turn,
		Players:   players,
	}
}

func alive(id, nickname string) werewolf.Player {
	return werewolf.Player{ID: id, Nickname: nickname, IsAlive: true}
}

func dead(id, nickname string) werewolf.Player {
	return werewolf.Player{ID: id, Nickname: nickname, IsAlive: false}
}

func strptr(s string) *string { return &s }

func TestDerive_Scenarios(t *testing.T) {
	cases := []struct {
		name         string
		prev, next   *werewolf.GameState
		wantNil      bool
		wantTitle    string
		wantSubtitle string
		wantTone     Tone
	}{
		{
			name: "night to day with a death names the victim, alarm",
			prev: snapshot(werewolf.PhaseNight, 1, map[string]werewolf.Player{
				"x": alive("x", "Xavier"), "y": alive("y", "Yara"),
			}),
			next: snapshot(werewolf.PhaseDay, 1, map[string]werewolf.Player{
				"x": dead("x", "Xavier"), "y": alive("y", "Yara"),
			}),
			wantTitle:    "Morning Breaks...",
			wantSubtitle: "...and Xavier was found dead.",
			wantTone:     ToneAlarm,
		},
		{
			name: "night to day without deaths is peaceful, calm",
			prev: snapshot(werewolf.PhaseNight, 1, map[string]werewolf.Player{
				"x": alive("x", "Xavier"),
			}),
			next: snapshot(werewolf.PhaseDay, 1, map[string]werewolf.Player{
				"x": alive("x", "Xavier"),
			}),
			wantTitle:    "Morning Breaks...",
			wantSubtitle: "...and it was a peaceful night.",
			wantTone:     ToneCalm,
		},
		{
			name: "day to night without vote-out",
			prev: snapshot(werewolf.PhaseDay, 1, nil),
			next: snapshot(werewolf.PhaseNight, 2, map[string]werewolf.Player{
				"x": alive("x", "Xavier"),
			}),
			wantTitle:    "The Village Has Spoken",
			wantSubtitle: "No one was executed.",
			wantTone:     ToneNeutral,
		},
		{
			name: "day to night with execution names the executed, alarm",
			prev: snapshot(werewolf.PhaseDay, 1, nil),
			next: func() *werewolf.GameState {
				s := snapshot(werewolf.PhaseNight, 2, map[string]werewolf.Player{
					"x": dead("x", "Xavier"),
				})
				s.VotedOutThisRound = strptr("x")
				return s
			}(),
			wantTitle:    "The Village Has Spoken",
			wantSubtitle: "Xavier was executed.",
			wantTone:     ToneAlarm,
		},
		{
			name: "game over maps known winners",
			prev: snapshot(werewolf.PhaseDay, 3, nil),
			next: func() *werewolf.GameState {
				s := snapshot(werewolf.PhaseGameOver, 3, nil)
				s.Winners = strptr(werewolf.WinnersWerewolves)
				return s
			}(),
			wantTitle:    "Werewolves Win!",
			wantSubtitle: "The game has ended.",
			wantTone:     ToneAlarm,
		},
		{
			name: "game over with unknown winner degrades gracefully",
			prev: snapshot(werewolf.PhaseNight, 3, nil),
			next: func() *werewolf.GameState {
				s := snapshot(werewolf.PhaseGameOver, 3, nil)
				s.Winners = strptr("ALIENS")
				return s
			}(),
			wantTitle:    "Game Over",
			wantSubtitle: "The game has ended.",
			wantTone:     ToneNeutral,
		},
		{
			name:    "waiting to night is not dramatic",
			prev:    snapshot(werewolf.PhaseWaiting, 0, nil),
			next:    snapshot(werewolf.PhaseNight, 1, nil),
			wantNil: true,
		},
		{
			name:    "day to waiting (game aborted) is not dramatic",
			prev:    snapshot(werewolf.PhaseDay, 2, nil),
			next:    snapshot(werewolf.PhaseWaiting, 0, nil),
			wantNil: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Derive(tc.prev, tc.next)
			if tc.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.wantTitle, got.Title)
			assert.Equal(t, tc.wantSubtitle, got.Subtitle)
			assert.Equal(t, tc.wantTone, got.Tone)
		})
	}
}

func TestDerive_MultipleDeathsSortedByName(t *testing.T) {
	prev := snapshot(werewolf.PhaseNight, 1, map[string]werewolf.Player{
		"a": alive("a", "Zoe"), "b": alive("b", "Ann"), "c": alive("c", "Mia"),
	})
	next := snapshot(werewolf.PhaseDay, 1, map[string]werewolf.Player{
		"a": dead("a", "Zoe"), "b": dead("b", "Ann"), "c": alive("c", "Mia"),
	})

	got := Derive(prev, next)
	require.NotNil(t, got)
	assert.Equal(t, "...and Ann, Zoe was found dead.", got.Subtitle)
	assert.Equal(t, ToneAlarm, got.Tone)
}

type announceLog struct {
	mu     sync.Mutex
	events []string
}

func (l *announceLog) notify(a Announcement, stage Stage, done bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if done {
		l.events = append(l.events, a.Title+":done")
		return
	}
	l.events = append(l.events, a.Title+":"+string(stage))
}

func (l *announceLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func TestSequencer_RunsIntroRevealClear(t *testing.T) {
	log := &announceLog{}
	seq := NewSequencer(SequencerConfig{
		Intro:  10 * time.Millisecond,
		Total:  30 * time.Millisecond,
		Notify: log.notify,
	})
	defer seq.Close()

	require.True(t, seq.Publish(Announcement{Title: "Morning"}))

	a, stage := seq.Active()
	require.NotNil(t, a)
	assert.Equal(t, StageIntro, stage)

	time.Sleep(60 * time.Millisecond)

	a, _ = seq.Active()
	assert.Nil(t, a, "announcement must self-clear")
	assert.Equal(t, []string{"Morning:intro", "Morning:reveal", "Morning:done"}, log.snapshot())
}

func TestSequencer_SecondPublishDroppedWhileActive(t *testing.T) {
	seq := NewSequencer(SequencerConfig{Intro: 20 * time.Millisecond, Total: 60 * time.Millisecond})
	defer seq.Close()

	require.True(t, seq.Publish(Announcement{Title: "First"}))
	assert.False(t, seq.Publish(Announcement{Title: "Second"}), "superseded announcement must be dropped, not queued")

	a, _ := seq.Active()
	require.NotNil(t, a)
	assert.Equal(t, "First", a.Title)

	time.Sleep(90 * time.Millisecond)
	require.True(t, seq.Publish(Announcement{Title: "Third"}), "free again after self-clear")
}

func TestSequencer_CloseCancelsTimers(t *testing.T) {
	log := &announceLog{}
	seq := NewSequencer(SequencerConfig{
		Intro:  10 * time.Millisecond,
		Total:  30 * time.Millisecond,
		Notify: log.notify,
	})

	require.True(t, seq.Publish(Announcement{Title: "Morning"}))
	seq.Close()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"Morning:intro"}, log.snapshot(), "no stage callbacks after teardown")

	assert.False(t, seq.Publish(Announcement{Title: "Late"}), "closed sequencer accepts nothing")
}
