package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists sessions as one JSON document. It is what makes a
// browser-style "survive reload" possible for a native client.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type fileDoc struct {
	Sessions        map[string]Session `json:"sessions"`
	DefaultNickname string             `json:"default_nickname"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get(ctx context.Context, roomID string) (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return Session{}, false, err
	}
	sess, ok := doc.Sessions[roomID]
	return sess, ok, nil
}

func (s *FileStore) Put(ctx context.Context, roomID string, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return err
	}
	doc.Sessions[roomID] = sess
	return s.saveLocked(doc)
}

func (s *FileStore) Delete(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return err
	}
	delete(doc.Sessions, roomID)
	return s.saveLocked(doc)
}

func (s *FileStore) DefaultNickname(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return "", err
	}
	return doc.DefaultNickname, nil
}

func (s *FileStore) SetDefaultNickname(ctx context.Context, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return err
	}
	doc.DefaultNickname = nickname
	return s.saveLocked(doc)
}

func (s *FileStore) loadLocked() (fileDoc, error) {
	doc := fileDoc{Sessions: make(map[string]Session)}

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read sessions: %w", err)
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		// A corrupt file must not brick the client; start over.
		return fileDoc{Sessions: make(map[string]Session)}, nil
	}
	if doc.Sessions == nil {
		doc.Sessions = make(map[string]Session)
	}
	return doc, nil
}

func (s *FileStore) saveLocked(doc fileDoc) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir sessions dir: %w", err)
	}

	// write-then-rename so a crash never leaves a half-written file
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write sessions: %w", err)
	}
	return os.Rename(tmp, s.path)
}
