// Package app wires config, stores and the realtime layers into a usable
// client, the way main would otherwise have to.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/ww-client/internal/cache"
	"example.com/ww-client/internal/config"
	"example.com/ww-client/internal/rest"
	"example.com/ww-client/internal/session"
	"example.com/ww-client/internal/werewolf"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	rdb *redis.Client // only with the redis session backend

	API      *rest.Client
	Sessions session.Store
	Cache    *cache.Cache
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	a := &App{
		cfg:   cfg,
		log:   log,
		API:   rest.NewClient(cfg.API.BaseURL, cfg.API.Timeout),
		Cache: cache.New(),
	}

	switch cfg.Session.Backend {
	case "memory":
		a.Sessions = session.NewMemoryStore()
	case "file":
		a.Sessions = session.NewFileStore(cfg.Session.File)
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Session.RedisAddr,
			DB:   cfg.Session.RedisDB,
		})

		// fail fast
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping (%s db=%d): %w", cfg.Session.RedisAddr, cfg.Session.RedisDB, err)
		}
		a.rdb = rdb
		a.Sessions = session.NewRedisStore(rdb, cfg.Session.RedisTTL)
	default:
		return nil, fmt.Errorf("unsupported session backend %q", cfg.Session.Backend)
	}

	return a, nil
}

func (a *App) Close() error {
	// best-effort
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	return nil
}

// Join resumes the stored identity for the room when the server still
// knows it, otherwise joins fresh and persists the new identity.
func (a *App) Join(ctx context.Context, roomID, nickname string) (session.Session, error) {
	if sess, ok, err := a.Sessions.Get(ctx, roomID); err == nil && ok {
		state, err := a.API.GetRoom(ctx, roomID, sess.PlayerID)
		if err == nil && state.Player(sess.PlayerID) != nil {
			a.Cache.Set(roomID, sess.PlayerID, state)
			return sess, nil
		}
		// room restarted or we were kicked; drop the stale identity
		_ = a.Sessions.Delete(ctx, roomID)
	}

	if nickname == "" {
		if def, err := a.Sessions.DefaultNickname(ctx); err == nil && def != "" {
			nickname = def
		}
	}
	if nickname == "" {
		return session.Session{}, fmt.Errorf("join %s: nickname is required", roomID)
	}

	sess := session.Session{PlayerID: newPlayerID(), Nickname: nickname}
	state, err := a.API.Join(ctx, roomID, sess.Nickname, sess.PlayerID)
	if err != nil {
		return session.Session{}, fmt.Errorf("join %s: %w", roomID, err)
	}

	a.Cache.Set(roomID, sess.PlayerID, state)
	if err := a.Sessions.Put(ctx, roomID, sess); err != nil {
		a.log.Warn("session not persisted", "room", roomID, "err", err)
	}
	_ = a.Sessions.SetDefaultNickname(ctx, nickname)
	return sess, nil
}

// Leave forgets the room identity and cached state.
func (a *App) Leave(ctx context.Context, roomID, playerID string) {
	_ = a.Sessions.Delete(ctx, roomID)
	a.Cache.Drop(roomID, playerID)
}

// apply feeds a mutation's returned snapshot into the cache; the cache
// keeps it only if it is newest.
func (a *App) apply(roomID, viewerID string, state *werewolf.GameState, err error) error {
	if err != nil {
		return err
	}
	a.Cache.Set(roomID, viewerID, state)
	return nil
}

func (a *App) CreateRoom(ctx context.Context) (*werewolf.GameState, error) {
	return a.API.CreateRoom(ctx)
}

func (a *App) StartGame(ctx context.Context, roomID, playerID string, settings *werewolf.Settings) error {
	state, err := a.API.StartGame(ctx, roomID, playerID, settings)
	return a.apply(roomID, playerID, state, err)
}

func (a *App) UpdateSettings(ctx context.Context, roomID, playerID string, settings werewolf.Settings) error {
	state, err := a.API.UpdateSettings(ctx, roomID, playerID, settings)
	return a.apply(roomID, playerID, state, err)
}

func (a *App) Vote(ctx context.Context, roomID, playerID, targetID string) error {
	state, err := a.API.SubmitVote(ctx, roomID, playerID, targetID)
	return a.apply(roomID, playerID, state, err)
}

func (a *App) EndGame(ctx context.Context, roomID, playerID string) error {
	state, err := a.API.EndGame(ctx, roomID, playerID)
	return a.apply(roomID, playerID, state, err)
}

func (a *App) RestartGame(ctx context.Context, roomID, playerID string) error {
	state, err := a.API.RestartGame(ctx, roomID, playerID)
	return a.apply(roomID, playerID, state, err)
}

func (a *App) KickPlayer(ctx context.Context, roomID, playerID, targetID string) error {
	state, err := a.API.KickPlayer(ctx, roomID, playerID, targetID)
	return a.apply(roomID, playerID, state, err)
}
