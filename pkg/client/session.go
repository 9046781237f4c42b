package client

import "sync"

// Session owns the client's credentials.  The access token lives only in
// memory; the refresh token and profile go to the Store.
type Session struct {
	mu     sync.RWMutex
	access string
	store  Store
}

// NewSession returns a session backed by store.  A nil store keeps
// everything in memory.
func NewSession(store Store) *Session {
	if store == nil {
		store = &MemoryStore{}
	}
	return &Session{store: store}
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *Session) setAccessToken(t string) {
	s.mu.Lock()
	s.access = t
	s.mu.Unlock()
}

// RefreshToken returns the persisted refresh token, or "".
func (s *Session) RefreshToken() (string, error) {
	st, err := s.store.Load()
	return st.RefreshToken, err
}

// Profile returns the persisted profile snapshot, if any.
func (s *Session) Profile() (*Profile, error) {
	st, err := s.store.Load()
	return st.User, err
}

// Resumable reports whether a refresh token is stored, so requests can
// start without logging in again.
func (s *Session) Resumable() bool {
	rt, err := s.RefreshToken()
	return err == nil && rt != ""
}

// begin records a fresh login.
func (s *Session) begin(access, refresh string, p Profile) error {
	s.setAccessToken(access)
	return s.store.Save(State{RefreshToken: refresh, User: &p})
}

// rotate replaces the stored refresh token and keeps the profile.
func (s *Session) rotate(refresh string) error {
	st, err := s.store.Load()
	if err != nil {
		return err
	}
	st.RefreshToken = refresh
	return s.store.Save(st)
}

// Clear forgets both tokens and the profile.
func (s *Session) Clear() error {
	s.setAccessToken("")
	return s.store.Clear()
}
