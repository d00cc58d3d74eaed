// wwcli joins a werewolf room from the terminal and follows it live:
// phase changes, staged announcements and presence notices.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"example.com/ww-client/internal/app"
	"example.com/ww-client/internal/config"
	"example.com/ww-client/internal/reconcile"
	"example.com/ww-client/internal/socket"
	"example.com/ww-client/internal/werewolf"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: wwcli <room-id> [nickname]")
		os.Exit(2)
	}
	roomID := os.Args[1]
	nickname := ""
	if len(os.Args) > 2 {
		nickname = os.Args[2]
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	} else {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}
	log := slog.New(handler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, roomID, nickname); err != nil && ctx.Err() == nil {
		log.Error("exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger, roomID, nickname string) error {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.Join(ctx, roomID, nickname)
	if err != nil {
		return err
	}
	log.Info("joined", "room", roomID, "player", sess.PlayerID, "nickname", sess.Nickname)

	room, err := a.OpenRoom(sess, roomID, app.RoomOptions{
		OnDisplay: func(s *werewolf.GameState) {
			printBoard(s, sess.PlayerID)
		},
		OnAnnounce: func(an reconcile.Announcement, stage reconcile.Stage, done bool) {
			switch {
			case done:
				// overlay cleared
			case stage == reconcile.StageIntro:
				fmt.Printf("\n  == %s ==\n", an.Title)
			case stage == reconcile.StageReveal:
				fmt.Printf("  %s  [%s]\n\n", an.Subtitle, an.Tone)
			}
		},
		OnNotice: func(n socket.Notice) {
			fmt.Printf("  (%s) %s\n", n.Level, n.Text)
		},
	})
	if err != nil {
		return err
	}
	defer room.Close()

	return room.Run(ctx)
}

func printBoard(s *werewolf.GameState, selfID string) {
	fmt.Printf("\n[%s] turn %d\n", s.Phase, s.TurnCount)

	players := make([]werewolf.Player, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Nickname < players[j].Nickname })

	for _, p := range players {
		mark := " "
		if !p.IsAlive {
			mark = "x"
		}
		self := ""
		if p.ID == selfID {
			self = " (you)"
			if p.Role != nil {
				self = fmt.Sprintf(" (you: %s)", *p.Role)
			}
		}
		online := ""
		if !p.IsOnline {
			online = " [offline]"
		}
		fmt.Printf("  %s %s%s%s\n", mark, p.Nickname, self, online)
	}

	if s.Phase == werewolf.PhaseGameOver && s.Winners != nil {
		fmt.Printf("  winners: %s\n", *s.Winners)
	}
}
