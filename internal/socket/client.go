// Package socket owns one WebSocket channel per (room, player): connect,
// heartbeat, automatic reconnect with capped backoff, and dispatch of the
// typed message stream into the state cache.
package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"

	"example.com/ww-client/internal/werewolf"
)

// State is the channel lifecycle.
type State string

const (
	StateConnecting   State = "CONNECTING"
	StateOpen         State = "OPEN"
	StateReconnecting State = "RECONNECTING"
	StateClosed       State = "CLOSED"
)

// Fetcher re-pulls the full snapshot after every (re)connect. Missed
// pushes are never replayed, so this is what prevents divergence.
type Fetcher interface {
	GetRoom(ctx context.Context, roomID, viewerID string) (*werewolf.GameState, error)
}

// StateCache is the slice of the cache the connection writes to.
type StateCache interface {
	Set(roomID, viewerID string, snap *werewolf.GameState) bool
	SetOnline(roomID, viewerID, playerID string, online bool) bool
}

type Config struct {
	BaseURL  string // ws:// base; /ws/{room}/{player} is appended
	RoomID   string
	PlayerID string

	BackoffInitial time.Duration
	BackoffMax     time.Duration
	WriteTimeout   time.Duration

	Cache    StateCache
	Fetcher  Fetcher
	OnNotice func(Notice) // transient user-visible notices
	Log      *slog.Logger

	Dialer *websocket.Dialer // tests override; nil => default
}

// Conn is one live channel. Create with Dial, stop with Close or by
// cancelling the context passed to Run.
type Conn struct {
	cfg Config
	log *slog.Logger
	url string

	mu     sync.Mutex
	state  State
	ws     *websocket.Conn
	closed bool

	sendCh chan []byte
}

func Dial(cfg Config) (*Conn, error) {
	if cfg.RoomID == "" || cfg.PlayerID == "" {
		return nil, errors.New("socket: room and player ids are required")
	}
	if cfg.Cache == nil || cfg.Fetcher == nil {
		return nil, errors.New("socket: cache and fetcher are required")
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = time.Second
	}
	if cfg.BackoffMax < cfg.BackoffInitial {
		cfg.BackoffMax = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}

	wsURL := fmt.Sprintf("%s/ws/%s/%s",
		cfg.BaseURL, url.PathEscape(cfg.RoomID), url.PathEscape(cfg.PlayerID))

	return &Conn{
		cfg:    cfg,
		log:    cfg.Log.With("room", cfg.RoomID),
		url:    wsURL,
		state:  StateConnecting,
		sendCh: make(chan []byte, 64),
	}, nil
}

func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send queues an envelope. Full buffer drops the frame rather than block
// the caller; the next snapshot fetch repairs anything lost.
func (c *Conn) Send(env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	select {
	case c.sendCh <- b:
		return nil
	default:
		return errors.New("socket: send buffer full")
	}
}

// Close stops the connection for good; Run returns.
func (c *Conn) Close() {
	c.mu.Lock()
	c.closed = true
	c.state = StateClosed
	ws := c.ws
	c.mu.Unlock()

	if ws != nil {
		_ = ws.Close()
	}
}

// Run drives the connect/read/reconnect loop until ctx is cancelled or
// Close is called. Reconnects use exponential backoff doubling from
// BackoffInitial up to BackoffMax, with no attempt limit.
func (c *Conn) Run(ctx context.Context) error {
	attempt := 0
	everOpen := false

	for {
		if c.isClosed() || ctx.Err() != nil {
			c.setState(StateClosed)
			return ctx.Err()
		}

		ws, _, err := c.cfg.Dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			c.log.Warn("dial failed", "err", err, "attempt", attempt)
			if !c.sleep(ctx, c.backoff(attempt)) {
				c.setState(StateClosed)
				return ctx.Err()
			}
			attempt++
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = ws.Close()
			return nil
		}
		c.ws = ws
		c.state = StateOpen
		c.mu.Unlock()

		if everOpen {
			c.notice(Notice{Level: NoticeInfo, Text: "Connection restored"})
		}
		everOpen = true
		attempt = 0

		// The channel does not replay missed pushes; always re-fetch the
		// latest snapshot or the view diverges permanently.
		c.refetch(ctx)

		writerStop := make(chan struct{})
		writerDone := make(chan struct{})
		go c.writeLoop(ws, writerStop, writerDone)

		readErr := c.readLoop(ws)
		close(writerStop)
		_ = ws.Close()
		<-writerDone

		c.mu.Lock()
		c.ws = nil
		closed := c.closed
		if !closed {
			c.state = StateReconnecting
		}
		c.mu.Unlock()

		if closed || ctx.Err() != nil {
			c.setState(StateClosed)
			return ctx.Err()
		}

		// one notice per drop, however many retries follow
		c.log.Warn("connection lost", "err", readErr)
		c.notice(Notice{Level: NoticeWarning, Text: "Connection lost, reconnecting..."})

		if !c.sleep(ctx, c.backoff(attempt)) {
			c.setState(StateClosed)
			return ctx.Err()
		}
		attempt++
	}
}

func (c *Conn) readLoop(ws *websocket.Conn) error {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		c.dispatch(data)
	}
}

func (c *Conn) writeLoop(ws *websocket.Conn, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case msg := <-c.sendCh:
			_ = ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// dispatch handles one frame. Malformed frames are logged and dropped;
// they must never kill the stream.
func (c *Conn) dispatch(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Warn("malformed frame dropped", "err", err)
		return
	}

	switch env.Type {
	case MsgStateUpdate:
		var snap werewolf.GameState
		if err := json.Unmarshal(env.Payload, &snap); err != nil {
			c.log.Warn("bad state payload dropped", "err", err)
			return
		}
		c.cfg.Cache.Set(c.cfg.RoomID, c.cfg.PlayerID, &snap)

	case MsgPlayerDisconnected, MsgPlayerReconnected:
		var p PresencePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.log.Warn("bad presence payload dropped", "err", err)
			return
		}
		online := env.Type == MsgPlayerReconnected
		c.cfg.Cache.SetOnline(c.cfg.RoomID, c.cfg.PlayerID, p.PlayerID, online)
		if online {
			c.notice(Notice{Level: NoticeInfo, Text: p.Nickname + " reconnected"})
		} else {
			c.notice(Notice{Level: NoticeWarning, Text: p.Nickname + " disconnected"})
		}

	case MsgPing:
		// reply in the same tick; the server treats silence as inactivity
		_ = c.Send(Envelope{Type: MsgPong})

	case MsgError:
		var p ErrorPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.log.Warn("bad error payload dropped", "err", err)
			return
		}
		c.notice(Notice{Level: NoticeError, Text: p.Message})

	default:
		c.log.Debug("unknown message type dropped", "type", env.Type)
	}
}

// refetch pulls the latest snapshot with bounded retries. The cache keeps
// whichever of fetch and concurrent pushes is most recent.
func (c *Conn) refetch(ctx context.Context) {
	b := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		snap, err := c.cfg.Fetcher.GetRoom(ctx, c.cfg.RoomID, c.cfg.PlayerID)
		if err != nil {
			return retry.RetryableError(err)
		}
		c.cfg.Cache.Set(c.cfg.RoomID, c.cfg.PlayerID, snap)
		return nil
	})
	if err != nil {
		c.log.Error("snapshot refetch failed", "err", err)
		c.notice(Notice{Level: NoticeError, Text: "Could not refresh room state"})
	}
}

func (c *Conn) backoff(attempt int) time.Duration {
	d := c.cfg.BackoffInitial
	for i := 0; i < attempt && d < c.cfg.BackoffMax; i++ {
		d *= 2
	}
	if d > c.cfg.BackoffMax {
		d = c.cfg.BackoffMax
	}
	return d
}

func (c *Conn) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed || s == StateClosed {
		c.state = s
	}
}

func (c *Conn) notice(n Notice) {
	if c.cfg.OnNotice != nil {
		c.cfg.OnNotice(n)
	}
}
