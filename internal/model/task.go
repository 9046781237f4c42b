package model

import (
    "strings"
    "time"
)

// TaskStatus is the workflow column a task sits in.
type TaskStatus string

const (
    StatusTodo       TaskStatus = "Todo"
    StatusInProgress TaskStatus = "In Progress"
    StatusDone       TaskStatus = "Done"
)

// ParseTaskStatus matches s case-insensitively against the known statuses.
func ParseTaskStatus(s string) (TaskStatus, bool) {
    for _, st := range []TaskStatus{StatusTodo, StatusInProgress, StatusDone} {
        if strings.EqualFold(strings.TrimSpace(s), string(st)) {
            return st, true
        }
    }
    return "", false
}

type TaskPriority string

const (
    PriorityLow    TaskPriority = "Low"
    PriorityMedium TaskPriority = "Medium"
    PriorityHigh   TaskPriority = "High"
)

func ParseTaskPriority(s string) (TaskPriority, bool) {
    for _, p := range []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh} {
        if strings.EqualFold(strings.TrimSpace(s), string(p)) {
            return p, true
        }
    }
    return "", false
}

// Task is a row of the `tasks` table.  AssigneeID and TeamID are optional.
type Task struct {
    ID          string
    Title       string
    Description string
    Status      TaskStatus
    Priority    TaskPriority
    DueDate     *time.Time
    CreatedBy   string
    AssigneeID  *string
    TeamID      *string
    CreatedAt   time.Time
    UpdatedAt   time.Time
}

// Involves reports whether userID created the task or is assigned to it.
func (t Task) Involves(userID string) bool {
    return t.CreatedBy == userID || (t.AssigneeID != nil && *t.AssigneeID == userID)
}

// TaskUpdate lists the editable fields of a task.  Nil fields are left
// unchanged; ClearTeam detaches the task from its team.
type TaskUpdate struct {
    Title       *string
    Description *string
    Status      *TaskStatus
    Priority    *TaskPriority
    DueDate     *time.Time
    AssigneeID  *string
    TeamID      *string
    ClearTeam   bool
}

func (u TaskUpdate) Empty() bool {
    return u.Title == nil && u.Description == nil && u.Status == nil && u.Priority == nil &&
        u.DueDate == nil && u.AssigneeID == nil && u.TeamID == nil && !u.ClearTeam
}

// StatusOnly reports whether the update touches nothing but the status.
func (u TaskUpdate) StatusOnly() bool {
    s := u
    s.Status = nil
    return u.Status != nil && s.Empty()
}

// TaskFilter narrows a task listing.  An empty VisibleTo lists every task;
// otherwise only tasks the user created, is assigned to or whose team the
// user belongs to are returned.
type TaskFilter struct {
    VisibleTo   string
    Status      TaskStatus
    Priority    TaskPriority
    TeamID      string
    Query       string     // substring of title or description
    OverdueAt   *time.Time // due before this instant and not done
}
