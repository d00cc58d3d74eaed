package app

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"example.com/ww-client/internal/action"
	"example.com/ww-client/internal/reconcile"
	"example.com/ww-client/internal/session"
	"example.com/ww-client/internal/socket"
	"example.com/ww-client/internal/werewolf"
)

func newPlayerID() string {
	return uuid.NewString()
}

// RoomOptions are the observer hooks for one stay in a room.
type RoomOptions struct {
	OnDisplay  func(*werewolf.GameState)
	OnAnnounce func(a reconcile.Announcement, stage reconcile.Stage, done bool)
	OnNotice   func(socket.Notice)
}

// Room couples the connection, reconciliation and announcement layers for
// one (room, player) stay. Close cancels every pending timer so nothing
// stale fires after a room change.
type Room struct {
	app     *App
	roomID  string
	Session session.Session

	conn   *socket.Conn
	engine *reconcile.Engine
	seq    *reconcile.Sequencer
	unsub  func()
}

// OpenRoom builds the realtime pipeline: socket pushes land in the cache,
// cache changes feed the display engine, the engine derives announcements.
func (a *App) OpenRoom(sess session.Session, roomID string, opts RoomOptions) (*Room, error) {
	seq := reconcile.NewSequencer(reconcile.SequencerConfig{
		Intro:  a.cfg.Reveal.AnnounceIntro,
		Total:  a.cfg.Reveal.AnnounceTotal,
		Notify: opts.OnAnnounce,
	})
	engine := reconcile.NewEngine(reconcile.EngineConfig{
		HoldDelay: a.cfg.Reveal.HoldDelay,
		Sequencer: seq,
		OnDisplay: opts.OnDisplay,
		Log:       a.log,
	})
	unsub := a.Cache.Subscribe(roomID, sess.PlayerID, engine.Offer)

	conn, err := socket.Dial(socket.Config{
		BaseURL:        a.cfg.Socket.BaseURL,
		RoomID:         roomID,
		PlayerID:       sess.PlayerID,
		BackoffInitial: a.cfg.Socket.BackoffInitial,
		BackoffMax:     a.cfg.Socket.BackoffMax,
		WriteTimeout:   a.cfg.Socket.WriteTimeout,
		Cache:          a.Cache,
		Fetcher:        a.API,
		OnNotice:       opts.OnNotice,
		Log:            a.log,
	})
	if err != nil {
		unsub()
		engine.Close()
		return nil, err
	}

	// seed the engine with whatever the cache already has (Join primes it)
	if snap := a.Cache.Get(roomID, sess.PlayerID); snap != nil {
		engine.Offer(snap)
	}

	return &Room{
		app:     a,
		roomID:  roomID,
		Session: sess,
		conn:    conn,
		engine:  engine,
		seq:     seq,
		unsub:   unsub,
	}, nil
}

// errRunDone marks a clean connection stop. The read loop cannot see a
// context cancel while blocked, so the watcher goroutine needs the group
// context cancelled either way to be released.
var errRunDone = errors.New("room: run finished")

// Run drives the connection until ctx ends or Close is called.
func (r *Room) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := r.conn.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return errRunDone
	})

	g.Go(func() error {
		<-gctx.Done()
		r.conn.Close()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errRunDone) {
		return err
	}
	return nil
}

func (r *Room) Close() {
	r.conn.Close()
	r.unsub()
	r.engine.Close() // also closes the sequencer
}

// Displayed is what the board should render right now.
func (r *Room) Displayed() *werewolf.GameState {
	return r.engine.Displayed()
}

// Latest is the newest authoritative snapshot, shown or not.
func (r *Room) Latest() *werewolf.GameState {
	return r.engine.Latest()
}

// Announcement returns the active staged reveal, if any.
func (r *Room) Announcement() (*reconcile.Announcement, reconcile.Stage) {
	return r.seq.Active()
}

func (r *Room) ConnState() socket.State {
	return r.conn.State()
}

// Sender exposes the outbound action path for the night machines.
func (r *Room) Sender() action.Sender {
	return &roomSender{room: r}
}

type roomSender struct {
	room *Room
}

func (s *roomSender) SubmitAction(ctx context.Context, actionType werewolf.ActionType, targetID string, confirmed bool) error {
	r := s.room
	state, err := r.app.API.SubmitAction(ctx, r.roomID, r.Session.PlayerID, actionType, targetID, confirmed)
	return r.app.apply(r.roomID, r.Session.PlayerID, state, err)
}

// Vote submits a day vote for this player.
func (r *Room) Vote(ctx context.Context, targetID string) error {
	return r.app.Vote(ctx, r.roomID, r.Session.PlayerID, targetID)
}
