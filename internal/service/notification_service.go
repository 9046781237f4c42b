package service

import (
	"context"
	"errors"

	"github.com/iliyamo/taskflow/internal/model"
	"github.com/iliyamo/taskflow/internal/repository"
)

// NotificationService exposes a user's own notifications.
type NotificationService struct {
	notes NotificationStore
}

func NewNotificationService(notes NotificationStore) *NotificationService {
	return &NotificationService{notes: notes}
}

func (s *NotificationService) List(ctx context.Context, actor model.Principal) ([]model.Notification, error) {
	return s.notes.ListForUser(ctx, actor.ID)
}

// MarkRead flags one notification as read.  Notifications of other users
// are reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, actor model.Principal, id string) error {
	err := s.notes.MarkRead(ctx, id, actor.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotificationNotFound
	}
	return err
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor model.Principal) (int64, error) {
	return s.notes.MarkAllRead(ctx, actor.ID)
}
