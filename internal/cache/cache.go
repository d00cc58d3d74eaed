// Package cache is the single source of truth for the last-known
// authoritative snapshot per (room, viewer) pair.
package cache

import (
	"sync"

	"example.com/ww-client/internal/werewolf"
)

// Key identifies one viewer's stream. Two viewers of the same room hold
// different (redacted) snapshots and must never share an entry.
type Key struct {
	RoomID   string
	ViewerID string
}

// Cache owns the authoritative snapshots. Stored snapshots are treated as
// immutable; patches replace the entry with an adjusted copy.
type Cache struct {
	mu      sync.Mutex
	states  map[Key]*werewolf.GameState
	subs    map[Key]map[int]func(*werewolf.GameState)
	nextSub int
}

func New() *Cache {
	return &Cache{
		states: make(map[Key]*werewolf.GameState),
		subs:   make(map[Key]map[int]func(*werewolf.GameState)),
	}
}

// Get returns the last-known snapshot, or nil.
func (c *Cache) Get(roomID, viewerID string) *werewolf.GameState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[Key{roomID, viewerID}]
}

// Set replaces the entire snapshot for the key. Snapshots older than the
// stored one by their own turn counter/phase are discarded: a push racing
// a REST fetch converges on the most recent data, not the last to arrive.
// Returns whether the snapshot was accepted.
func (c *Cache) Set(roomID, viewerID string, snap *werewolf.GameState) bool {
	if snap == nil {
		return false
	}
	k := Key{roomID, viewerID}

	c.mu.Lock()
	if prev := c.states[k]; !snap.Supersedes(prev) {
		c.mu.Unlock()
		return false
	}
	c.states[k] = snap
	fns := c.subscribersLocked(k)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
	return true
}

// SetOnline is the narrow presence patch: it flips one player's online
// flag without a snapshot round-trip and must never regress anything else.
// A patch before the first snapshot is dropped.
func (c *Cache) SetOnline(roomID, viewerID, playerID string, online bool) bool {
	k := Key{roomID, viewerID}

	c.mu.Lock()
	prev := c.states[k]
	if prev == nil {
		c.mu.Unlock()
		return false
	}
	p, ok := prev.Players[playerID]
	if !ok || p.IsOnline == online {
		c.mu.Unlock()
		return false
	}

	next := *prev
	next.Players = make(map[string]werewolf.Player, len(prev.Players))
	for id, pl := range prev.Players {
		next.Players[id] = pl
	}
	p.IsOnline = online
	next.Players[playerID] = p

	c.states[k] = &next
	fns := c.subscribersLocked(k)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(&next)
	}
	return true
}

// Drop forgets a key, e.g. when leaving a room.
func (c *Cache) Drop(roomID, viewerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, Key{roomID, viewerID})
}

// Subscribe registers fn for every accepted change on the key and returns
// a cancel func. Callbacks run on the mutating goroutine, in order.
func (c *Cache) Subscribe(roomID, viewerID string, fn func(*werewolf.GameState)) func() {
	k := Key{roomID, viewerID}

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	if c.subs[k] == nil {
		c.subs[k] = make(map[int]func(*werewolf.GameState))
	}
	c.subs[k][id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs[k], id)
	}
}

func (c *Cache) subscribersLocked(k Key) []func(*werewolf.GameState) {
	fns := make([]func(*werewolf.GameState), 0, len(c.subs[k]))
	for _, fn := range c.subs[k] {
		fns = append(fns, fn)
	}
	return fns
}
