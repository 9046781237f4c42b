package service

import (
	"context"
	"time"

	"github.com/iliyamo/taskflow/internal/model"
)

// UserStore is the credential store.  *repository.UserRepo implements it.
type UserStore interface {
	Create(ctx context.Context, u model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	EmailTaken(ctx context.Context, email, exceptID string) (bool, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id string, upd model.UserUpdate) error
	UpdateProfile(ctx context.Context, id, name, email string) error
	UpdatePassword(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}

// RefreshLedger records currently valid refresh tokens by hash.
// *repository.TokenRepo implements it.
type RefreshLedger interface {
	Store(ctx context.Context, userID, tokenHash string, exp time.Time) error
	Exists(ctx context.Context, tokenHash string, now time.Time) (bool, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuthRecorder counts auth outcomes.  *metrics.Metrics implements it.
type AuthRecorder interface {
	AuthOutcome(op, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) AuthOutcome(string, string) {}

// TaskStore persists tasks.  *repository.TaskRepo implements it.
type TaskStore interface {
	Create(ctx context.Context, t model.Task) error
	GetByID(ctx context.Context, id string) (model.Task, error)
	List(ctx context.Context, f model.TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, id string, upd model.TaskUpdate) error
	Delete(ctx context.Context, id string) error
}

// TeamStore persists teams and memberships.  *repository.TeamRepo
// implements it.
type TeamStore interface {
	Create(ctx context.Context, t model.Team) error
	GetByID(ctx context.Context, id string) (model.Team, error)
	List(ctx context.Context) ([]model.Team, error)
	Members(ctx context.Context, id string) ([]model.TeamMember, error)
	AddMember(ctx context.Context, teamID, userID string) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
}

// NotificationStore persists in-app notifications.
// *repository.NotificationRepo implements it.
type NotificationStore interface {
	Create(ctx context.Context, n model.Notification) error
	ListForUser(ctx context.Context, userID string) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}
