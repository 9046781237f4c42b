package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Profile is the denormalized user snapshot kept between runs.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// State is what a Store persists.  The access token is never part of it.
type State struct {
	RefreshToken string   `json:"refreshToken,omitempty"`
	User         *Profile `json:"user,omitempty"`
}

// Empty reports whether s holds no session.
func (s State) Empty() bool { return s.RefreshToken == "" }

// Store is durable client storage for the refresh token and profile.
type Store interface {
	Load() (State, error)
	Save(State) error
	Clear() error
}

// MemoryStore keeps state for the life of the process.  Useful in tests.
type MemoryStore struct {
	mu sync.Mutex
	s  State
}

func (m *MemoryStore) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

func (m *MemoryStore) Save(s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
	return nil
}

func (m *MemoryStore) Clear() error { return m.Save(State{}) }

// FileStore persists state as JSON readable only by the owner.
type FileStore struct {
	Path string
}

// DefaultFileStore stores state under the user's config directory.
func DefaultFileStore() (*FileStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &FileStore{Path: filepath.Join(dir, "taskflow", "session.json")}, nil
}

// Load returns an empty State when the file does not exist.
func (f *FileStore) Load() (State, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, err
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return State{}, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return s, nil
}

// Save writes through a temp file and rename so a crash never leaves a
// truncated session behind.
func (f *FileStore) Save(s State) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
