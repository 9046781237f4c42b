package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/taskflow/internal/model"
	"github.com/iliyamo/taskflow/internal/queue"
	"github.com/iliyamo/taskflow/internal/repository"
)

// UserService covers admin account management and self-service profile
// changes.  A role change, a deactivation or a password change revokes every
// refresh token of that user, so a stale role in outstanding access tokens
// lives at most one access TTL.
type UserService struct {
	d AuthDeps
}

func NewUserService(d AuthDeps) *UserService {
	d.defaults()
	return &UserService{d: d}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.d.Users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (model.User, error) {
	u, err := s.d.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// Update changes role and/or active flag of user id on behalf of actor.
func (s *UserService) Update(ctx context.Context, actor model.Principal, id string, upd model.UserUpdate) (model.User, error) {
	if upd.Empty() {
		return model.User{}, ErrNoFieldsToUpdate
	}
	before, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if err := s.d.Users.Update(ctx, id, upd); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("update user: %w", err)
	}

	roleChanged := upd.Role != nil && *upd.Role != before.Role
	deactivated := upd.IsActive != nil && !*upd.IsActive && before.IsActive
	if roleChanged || deactivated {
		if _, err := s.d.Tokens.DeleteAllForUser(ctx, id); err != nil {
			return model.User{}, fmt.Errorf("revoke sessions: %w", err)
		}
	}

	after, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	s.publish(queue.EventUserUpdated, after, actor.ID)
	return after, nil
}

// Delete removes user id.  An admin cannot delete their own account; ids
// are compared case-insensitively like the users.id column collation.
func (s *UserService) Delete(ctx context.Context, actor model.Principal, id string) error {
	if strings.EqualFold(strings.TrimSpace(id), actor.ID) {
		return ErrSelfDelete
	}
	if err := s.d.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	publishAsync(s.d.Events, newEvent(queue.EventUserDeleted, id, "", "", actor.ID, s.d.Now()))
	return nil
}

// UpdateProfile changes the caller's own name and email.
func (s *UserService) UpdateProfile(ctx context.Context, p model.Principal, name, email string) (model.User, error) {
	taken, err := s.d.Users.EmailTaken(ctx, email, p.ID)
	if err != nil {
		return model.User{}, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return model.User{}, ErrEmailInUse
	}
	if err := s.d.Users.UpdateProfile(ctx, p.ID, name, email); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return model.User{}, ErrEmailInUse
		case errors.Is(err, repository.ErrNotFound):
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("update profile: %w", err)
	}
	u, err := s.Get(ctx, p.ID)
	if err != nil {
		return model.User{}, err
	}
	s.publish(queue.EventUserProfileUpdated, u, "")
	return u, nil
}

// ChangePassword replaces the caller's password after verifying the current
// one and revokes all of the caller's refresh tokens.
func (s *UserService) ChangePassword(ctx context.Context, p model.Principal, current, next string) error {
	u, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	if !s.d.Hasher.Verify(u.PasswordHash, current) {
		return ErrWrongPassword
	}
	if s.d.Hasher.Verify(u.PasswordHash, next) {
		return ErrSamePassword
	}
	hash, err := s.d.Hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.d.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if _, err := s.d.Tokens.DeleteAllForUser(ctx, u.ID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.publish(queue.EventUserPasswordChanged, u, "")
	return nil
}

func (s *UserService) publish(typ string, u model.User, actorID string) {
	publishAsync(s.d.Events, newEvent(typ, u.ID, u.Email, string(u.Role), actorID, s.d.Now()))
}
