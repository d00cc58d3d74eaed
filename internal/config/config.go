package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config describes all runtime settings for the client.
//
// Best practice for Go clients:
//   - load config once in main
//   - validate
//   - pass further via DI (no global variables)
type Config struct {
	Env string // dev|stage|prod

	Log struct {
		Format string // text|json
	}

	API struct {
		BaseURL string
		Timeout time.Duration
	}

	Socket struct {
		BaseURL        string // ws:// or wss:// base, room/player appended
		BackoffInitial time.Duration
		BackoffMax     time.Duration
		WriteTimeout   time.Duration
	}

	Reveal struct {
		HoldDelay     time.Duration // board keeps the old phase this long on dramatic transitions
		AnnounceIntro time.Duration
		AnnounceTotal time.Duration
	}

	Session struct {
		Backend string // memory|file|redis
		File    string

		RedisAddr string
		RedisDB   int
		RedisTTL  time.Duration
	}
}

func LoadFromEnv() (Config, error) {
	var c Config

	c.Env = envString("APP_ENV", "dev")
	c.Log.Format = envString("LOG_FORMAT", "text")

	c.API.BaseURL = envString("API_BASE_URL", "http://localhost:8000")
	c.API.Timeout = envDuration("API_TIMEOUT", 10*time.Second)

	c.Socket.BaseURL = envString("WS_BASE_URL", "ws://localhost:8000")
	c.Socket.BackoffInitial = envDuration("WS_BACKOFF_INITIAL", time.Second)
	c.Socket.BackoffMax = envDuration("WS_BACKOFF_MAX", 30*time.Second)
	c.Socket.WriteTimeout = envDuration("WS_WRITE_TIMEOUT", 5*time.Second)

	c.Reveal.HoldDelay = envDuration("REVEAL_HOLD_DELAY", 1500*time.Millisecond)
	c.Reveal.AnnounceIntro = envDuration("ANNOUNCE_INTRO", 2500*time.Millisecond)
	c.Reveal.AnnounceTotal = envDuration("ANNOUNCE_TOTAL", 6500*time.Millisecond)

	c.Session.Backend = envString("SESSION_BACKEND", "file")
	c.Session.File = envString("SESSION_FILE", defaultSessionFile())
	c.Session.RedisAddr = envString("REDIS_ADDR", "localhost:6379")
	c.Session.RedisDB = envInt("REDIS_DB", 0)
	c.Session.RedisTTL = envDuration("SESSION_TTL", 0) // 0 => no expiry

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("API_BASE_URL is empty")
	}
	if c.Socket.BaseURL == "" {
		return errors.New("WS_BASE_URL is empty")
	}
	if !strings.HasPrefix(c.Socket.BaseURL, "ws://") && !strings.HasPrefix(c.Socket.BaseURL, "wss://") {
		return fmt.Errorf("WS_BASE_URL=%q must start with ws:// or wss://", c.Socket.BaseURL)
	}
	if c.Socket.BackoffInitial <= 0 || c.Socket.BackoffMax < c.Socket.BackoffInitial {
		return fmt.Errorf("bad backoff window: initial=%s max=%s", c.Socket.BackoffInitial, c.Socket.BackoffMax)
	}
	if c.Reveal.AnnounceTotal < c.Reveal.AnnounceIntro {
		return fmt.Errorf("ANNOUNCE_TOTAL=%s is shorter than ANNOUNCE_INTRO=%s", c.Reveal.AnnounceTotal, c.Reveal.AnnounceIntro)
	}
	switch c.Session.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND=%q (want memory|file|redis)", c.Session.Backend)
	}
	if c.Session.Backend == "file" && c.Session.File == "" {
		return errors.New("SESSION_FILE is empty")
	}
	if c.Session.Backend == "redis" && c.Session.RedisAddr == "" {
		return errors.New("REDIS_ADDR is empty")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unsupported LOG_FORMAT=%q (want text|json)", c.Log.Format)
	}
	return nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "ww-sessions.json"
	}
	return dir + "/ww-client/sessions.json"
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
