package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/taskflow/internal/model"
	"github.com/iliyamo/taskflow/internal/repository"
)

// MemTeams is an in-memory service.TeamStore.  Members resolves names and
// emails through Users when it is set.
type MemTeams struct {
	mu      sync.Mutex
	teams   map[string]model.Team
	members map[string][]model.TeamMember
	Users   *MemUsers
}

func NewMemTeams(users *MemUsers) *MemTeams {
	return &MemTeams{teams: map[string]model.Team{}, members: map[string][]model.TeamMember{}, Users: users}
}

func (m *MemTeams) Create(_ context.Context, t model.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	m.teams[t.ID] = t
	return nil
}

func (m *MemTeams) GetByID(_ context.Context, id string) (model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok {
		return model.Team{}, repository.ErrNotFound
	}
	return t, nil
}

func (m *MemTeams) List(context.Context) ([]model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Team, 0, len(m.teams))
	for _, t := range m.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemTeams) Members(_ context.Context, id string) ([]model.TeamMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.TeamMember{}, m.members[id]...), nil
}

func (m *MemTeams) AddMember(ctx context.Context, teamID, userID string) error {
	tm := model.TeamMember{UserID: userID, JoinedAt: time.Now().UTC()}
	if m.Users != nil {
		if u, err := m.Users.GetByID(ctx, userID); err == nil {
			tm.Name, tm.Email, tm.Role = u.Name, u.Email, u.Role
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.members[teamID] {
		if x.UserID == userID {
			return repository.ErrAlreadyMember
		}
	}
	m.members[teamID] = append(m.members[teamID], tm)
	return nil
}

func (m *MemTeams) RemoveMember(_ context.Context, teamID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.members[teamID]
	for i, x := range list {
		if x.UserID == userID {
			m.members[teamID] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemTeams) IsMember(_ context.Context, teamID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isMember(teamID, userID), nil
}

func (m *MemTeams) isMember(teamID, userID string) bool {
	for _, x := range m.members[teamID] {
		if x.UserID == userID {
			return true
		}
	}
	return false
}

// MemTasks is an in-memory service.TaskStore.  Visibility filtering uses
// the memberships recorded in Teams, like the SQL subquery does.
type MemTasks struct {
	mu    sync.Mutex
	tasks map[string]model.Task
	Teams *MemTeams
}

func NewMemTasks(teams *MemTeams) *MemTasks {
	return &MemTasks{tasks: map[string]model.Task{}, Teams: teams}
}

func (m *MemTasks) Create(_ context.Context, t model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
	return nil
}

func (m *MemTasks) GetByID(_ context.Context, id string) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return model.Task{}, repository.ErrNotFound
	}
	return t, nil
}

func (m *MemTasks) List(_ context.Context, f model.TaskFilter) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Task{}
	for _, t := range m.tasks {
		if m.matches(t, f) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemTasks) matches(t model.Task, f model.TaskFilter) bool {
	if f.VisibleTo != "" && !t.Involves(f.VisibleTo) {
		if t.TeamID == nil || m.Teams == nil {
			return false
		}
		m.Teams.mu.Lock()
		ok := m.Teams.isMember(*t.TeamID, f.VisibleTo)
		m.Teams.mu.Unlock()
		if !ok {
			return false
		}
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.TeamID != "" && (t.TeamID == nil || *t.TeamID != f.TeamID) {
		return false
	}
	if q := strings.ToLower(f.Query); q != "" &&
		!strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
		return false
	}
	if f.OverdueAt != nil && (t.DueDate == nil || !t.DueDate.Before(*f.OverdueAt) || t.Status == model.StatusDone) {
		return false
	}
	return true
}

func (m *MemTasks) Update(_ context.Context, id string, upd model.TaskUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return repository.ErrNotFound
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.Priority != nil {
		t.Priority = *upd.Priority
	}
	if upd.DueDate != nil {
		d := upd.DueDate.UTC()
		t.DueDate = &d
	}
	if upd.AssigneeID != nil {
		a := *upd.AssigneeID
		t.AssigneeID = &a
	}
	switch {
	case upd.ClearTeam:
		t.TeamID = nil
	case upd.TeamID != nil:
		tm := *upd.TeamID
		t.TeamID = &tm
	}
	t.UpdatedAt = time.Now().UTC()
	m.tasks[id] = t
	return nil
}

func (m *MemTasks) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

// MemNotifications is an in-memory service.NotificationStore.
type MemNotifications struct {
	mu    sync.Mutex
	notes []model.Notification
}

func (m *MemNotifications) Create(_ context.Context, n model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, n)
	return nil
}

// ListForUser returns userID's notifications, newest first.
func (m *MemNotifications) ListForUser(_ context.Context, userID string) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Notification{}
	for i := len(m.notes) - 1; i >= 0; i-- {
		if m.notes[i].UserID == userID {
			out = append(out, m.notes[i])
		}
	}
	return out, nil
}

func (m *MemNotifications) MarkRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notes {
		if m.notes[i].ID == id && m.notes[i].UserID == userID {
			m.notes[i].IsRead = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *MemNotifications) MarkAllRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.notes {
		if m.notes[i].UserID == userID && !m.notes[i].IsRead {
			m.notes[i].IsRead = true
			n++
		}
	}
	return n, nil
}

// Types returns the notification types sent to userID in send order.
func (m *MemNotifications) Types(userID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, n := range m.notes {
		if n.UserID == userID {
			out = append(out, n.Type)
		}
	}
	return out
}
