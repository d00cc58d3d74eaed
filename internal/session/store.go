// Package session keeps per-room player identity so a reload or restart
// rejoins as the same player instead of creating a new one.
package session

import (
	"context"
	"sync"
)

// Session is the identity a device holds for one room. Never shared
// across rooms.
type Session struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
}

// Store is the contract for session persistence. In-memory for tests,
// file for a single device, Redis when several hosts share identity.
type Store interface {
	Get(ctx context.Context, roomID string) (Session, bool, error)
	Put(ctx context.Context, roomID string, s Session) error
	Delete(ctx context.Context, roomID string) error

	// DefaultNickname is remembered across rooms to prefill the join form.
	DefaultNickname(ctx context.Context) (string, error)
	SetDefaultNickname(ctx context.Context, nickname string) error
}

type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	nickname string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
	}
}

func (s *MemoryStore) Get(ctx context.Context, roomID string) (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[roomID]
	return sess, ok, nil
}

func (s *MemoryStore) Put(ctx context.Context, roomID string, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[roomID] = sess
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, roomID)
	return nil
}

func (s *MemoryStore) DefaultNickname(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nickname, nil
}

func (s *MemoryStore) SetDefaultNickname(ctx context.Context, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nickname = nickname
	return nil
}
