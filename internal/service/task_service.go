package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskflow/internal/model"
	"github.com/iliyamo/taskflow/internal/repository"
)

// WorkDeps bundles the collaborators of the task, team and notification
// services.
type WorkDeps struct {
	Tasks  TaskStore
	Teams  TeamStore
	Notes  NotificationStore
	Users  UserStore
	Logger echo.Logger // optional, receives failed notification writes
	Now    func() time.Time
}

func (d *WorkDeps) defaults() {
	if d.Now == nil {
		d.Now = time.Now
	}
}

// TaskService enforces task visibility and mutation rules.  Admins see and
// change every task.  Members see tasks they created, are assigned to or
// that belong to one of their teams; they fully edit and delete only tasks
// they created and may change just the status of the others they can see.
// A task a member cannot see is reported as not found.
type TaskService struct {
	d WorkDeps
}

func NewTaskService(d WorkDeps) *TaskService {
	d.defaults()
	return &TaskService{d: d}
}

// NewTask is the input of Create.  Empty status and priority default to
// Todo and Medium.
type NewTask struct {
	Title       string
	Description string
	Status      model.TaskStatus
	Priority    model.TaskPriority
	DueDate     *time.Time
	AssigneeID  *string
	TeamID      *string
}

func (s *TaskService) Create(ctx context.Context, actor model.Principal, in NewTask) (model.Task, error) {
	now := s.d.Now().UTC()
	if in.DueDate != nil && in.DueDate.Before(now) {
		return model.Task{}, ErrDueDateInPast
	}
	if err := s.checkRefs(ctx, actor, in.AssigneeID, in.TeamID); err != nil {
		return model.Task{}, err
	}
	t := model.Task{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedBy:   actor.ID,
		AssigneeID:  in.AssigneeID,
		TeamID:      in.TeamID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Status == "" {
		t.Status = model.StatusTodo
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if err := s.d.Tasks.Create(ctx, t); err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	if t.AssigneeID != nil && *t.AssigneeID != actor.ID {
		s.notify(ctx, *t.AssigneeID, model.NotifyTaskAssigned, "You have been assigned a new task: "+t.Title)
	}
	return t, nil
}

// List returns the tasks matching f that actor may see.
func (s *TaskService) List(ctx context.Context, actor model.Principal, f model.TaskFilter) ([]model.Task, error) {
	f.VisibleTo = ""
	if !actor.IsAdmin() {
		f.VisibleTo = actor.ID
	}
	return s.d.Tasks.List(ctx, f)
}

// Overdue lists visible tasks past their due date that are not done.
func (s *TaskService) Overdue(ctx context.Context, actor model.Principal) ([]model.Task, error) {
	now := s.d.Now().UTC()
	return s.List(ctx, actor, model.TaskFilter{OverdueAt: &now})
}

func (s *TaskService) Get(ctx context.Context, actor model.Principal, id string) (model.Task, error) {
	t, err := s.d.Tasks.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Task{}, ErrTaskNotFound
	}
	if err != nil {
		return model.Task{}, err
	}
	ok, err := s.visible(ctx, actor, t)
	if err != nil {
		return model.Task{}, err
	}
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	return t, nil
}

// Update applies upd to task id on behalf of actor.
func (s *TaskService) Update(ctx context.Context, actor model.Principal, id string, upd model.TaskUpdate) (model.Task, error) {
	if upd.Empty() {
		return model.Task{}, ErrNoFieldsToUpdate
	}
	before, err := s.Get(ctx, actor, id)
	if err != nil {
		return model.Task{}, err
	}
	if !owns(actor, before) && !upd.StatusOnly() {
		return model.Task{}, ErrTaskForbidden
	}
	if upd.DueDate != nil && upd.DueDate.Before(s.d.Now()) {
		return model.Task{}, ErrDueDateInPast
	}
	if err := s.checkRefs(ctx, actor, upd.AssigneeID, upd.TeamID); err != nil {
		return model.Task{}, err
	}
	if err := s.d.Tasks.Update(ctx, id, upd); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Task{}, ErrTaskNotFound
		}
		return model.Task{}, fmt.Errorf("update task: %w", err)
	}
	after, err := s.d.Tasks.GetByID(ctx, id)
	if err != nil {
		return model.Task{}, fmt.Errorf("reload task: %w", err)
	}

	if a := after.AssigneeID; a != nil && *a != actor.ID && (before.AssigneeID == nil || *before.AssigneeID != *a) {
		s.notify(ctx, *a, model.NotifyTaskAssigned, "You have been assigned a task: "+after.Title)
	}
	if after.Status == model.StatusDone && before.Status != model.StatusDone && after.CreatedBy != actor.ID {
		s.notify(ctx, after.CreatedBy, model.NotifyTaskCompleted, "Task completed: "+after.Title)
	}
	return after, nil
}

// AssignTeam moves task id into team teamID.
func (s *TaskService) AssignTeam(ctx context.Context, actor model.Principal, id, teamID string) (model.Task, error) {
	return s.Update(ctx, actor, id, model.TaskUpdate{TeamID: &teamID})
}

func (s *TaskService) UnassignTeam(ctx context.Context, actor model.Principal, id string) (model.Task, error) {
	return s.Update(ctx, actor, id, model.TaskUpdate{ClearTeam: true})
}

// Delete removes task id.  Only its creator or an admin may delete it.
func (s *TaskService) Delete(ctx context.Context, actor model.Principal, id string) error {
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if !owns(actor, t) {
		return ErrTaskForbidden
	}
	if err := s.d.Tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func owns(actor model.Principal, t model.Task) bool {
	return actor.IsAdmin() || t.CreatedBy == actor.ID
}

func (s *TaskService) visible(ctx context.Context, actor model.Principal, t model.Task) (bool, error) {
	if actor.IsAdmin() || t.Involves(actor.ID) {
		return true, nil
	}
	if t.TeamID == nil {
		return false, nil
	}
	return s.d.Teams.IsMember(ctx, *t.TeamID, actor.ID)
}

// checkRefs verifies that the assignee and team exist.  Members may only
// file tasks under teams they belong to.
func (s *TaskService) checkRefs(ctx context.Context, actor model.Principal, assigneeID, teamID *string) error {
	if assigneeID != nil {
		if _, err := s.d.Users.GetByID(ctx, *assigneeID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAssigneeNotFound
			}
			return fmt.Errorf("lookup assignee: %w", err)
		}
	}
	if teamID != nil {
		if _, err := s.d.Teams.GetByID(ctx, *teamID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("lookup team: %w", err)
		}
		if !actor.IsAdmin() {
			ok, err := s.d.Teams.IsMember(ctx, *teamID, actor.ID)
			if err != nil {
				return fmt.Errorf("check membership: %w", err)
			}
			if !ok {
				return ErrNotTeamMember
			}
		}
	}
	return nil
}

// notify stores an in-app notification.  A failed write is logged and
// never fails the operation that triggered it.
func (s *TaskService) notify(ctx context.Context, userID, typ, msg string) {
	notify(ctx, s.d, userID, typ, msg)
}

func notify(ctx context.Context, d WorkDeps, userID, typ, msg string) {
	if d.Notes == nil {
		return
	}
	n := model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   msg,
		Type:      typ,
		CreatedAt: d.Now().UTC(),
	}
	if err := d.Notes.Create(ctx, n); err != nil && d.Logger != nil {
		d.Logger.Warnf("notification for %s: %v", userID, err)
	}
}
