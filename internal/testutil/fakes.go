// Package testutil provides in-memory stores and an assembled test server
// for the service, handler and client tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/taskflow/internal/model"
	"github.com/iliyamo/taskflow/internal/queue"
	"github.com/iliyamo/taskflow/internal/repository"
)

// MemUsers is an in-memory service.UserStore with the same error contract
// as repository.UserRepo.
type MemUsers struct {
	mu    sync.Mutex
	users map[string]model.User
}

func NewMemUsers() *MemUsers { return &MemUsers{users: map[string]model.User{}} }

func (m *MemUsers) Create(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = model.NormalizeEmail(u.Email)
	for _, x := range m.users {
		if x.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return nil
}

func (m *MemUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = model.NormalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *MemUsers) GetByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *MemUsers) EmailTaken(_ context.Context, email, exceptID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = model.NormalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email && u.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemUsers) List(context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemUsers) Update(_ context.Context, id string, upd model.UserUpdate) error {
	return m.modify(id, func(u *model.User) {
		if upd.Role != nil {
			u.Role = *upd.Role
		}
		if upd.IsActive != nil {
			u.IsActive = *upd.IsActive
		}
	})
}

func (m *MemUsers) UpdateProfile(_ context.Context, id, name, email string) error {
	email = model.NormalizeEmail(email)
	m.mu.Lock()
	for _, u := range m.users {
		if u.Email == email && u.ID != id {
			m.mu.Unlock()
			return repository.ErrEmailExists
		}
	}
	m.mu.Unlock()
	return m.modify(id, func(u *model.User) {
		u.Name = name
		u.Email = email
	})
}

func (m *MemUsers) UpdatePassword(_ context.Context, id, hash string) error {
	return m.modify(id, func(u *model.User) { u.PasswordHash = hash })
}

func (m *MemUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MemUsers) modify(id string, fn func(*model.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return nil
}

// MemLedger is an in-memory service.RefreshLedger.  ExistsCalls counts
// lookups so tests can assert that a forged token never reached the store.
type MemLedger struct {
	mu          sync.Mutex
	rows        map[string]model.RefreshToken
	nextID      uint64
	ExistsCalls int
}

func NewMemLedger() *MemLedger { return &MemLedger{rows: map[string]model.RefreshToken{}} }

func (l *MemLedger) Store(_ context.Context, userID, tokenHash string, exp time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.rows[tokenHash] = model.RefreshToken{
		ID:        l.nextID,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: exp,
		CreatedAt: time.Now(),
	}
	return nil
}

func (l *MemLedger) Exists(_ context.Context, tokenHash string, now time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ExistsCalls++
	row, ok := l.rows[tokenHash]
	return ok && row.ExpiresAt.After(now), nil
}

func (l *MemLedger) Delete(_ context.Context, tokenHash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rows, tokenHash)
	return nil
}

func (l *MemLedger) DeleteAllForUser(_ context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for h, row := range l.rows {
		if row.UserID == userID {
			delete(l.rows, h)
			n++
		}
	}
	return n, nil
}

func (l *MemLedger) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for h, row := range l.rows {
		if !row.ExpiresAt.After(now) {
			delete(l.rows, h)
			n++
		}
	}
	return n, nil
}

// Len returns the number of rows, expired or not.
func (l *MemLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows)
}

// Lookups returns ExistsCalls under the lock.
func (l *MemLedger) Lookups() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ExistsCalls
}

// Events records published events.
type Events struct {
	mu     sync.Mutex
	events []queue.AuthEvent
}

func (e *Events) Publish(_ context.Context, ev queue.AuthEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

// Types returns the recorded event types in publish order.
func (e *Events) Types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Type
	}
	return out
}
