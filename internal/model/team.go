package model

import "time"

// Team groups users so tasks can be shared between them.
type Team struct {
    ID          string    // teams.id
    Name        string    // teams.name
    Description string    // teams.description
    CreatedBy   string    // teams.created_by
    CreatedAt   time.Time // teams.created_at
}

// TeamMember is a user as listed in a team, with the join time.
type TeamMember struct {
    UserID   string
    Name     string
    Email    string
    Role     Role
    JoinedAt time.Time
}

// Notification types.
const (
    NotifyTaskAssigned  = "task_assigned"
    NotifyTaskCompleted = "task_completed"
    NotifyTeamAdded     = "team_added"
)

// Notification is an in-app message for one user.
type Notification struct {
    ID        string
    UserID    string
    Message   string
    Type      string
    IsRead    bool
    CreatedAt time.Time
}
