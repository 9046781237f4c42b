package service

import "errors"

var (
	ErrEmailInUse          = errors.New("email already in use")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = errors.New("user not found")
	ErrSelfDelete          = errors.New("cannot delete your own account")
	ErrNoFieldsToUpdate    = errors.New("no fields to update")
	ErrWrongPassword       = errors.New("current password is incorrect")
	ErrSamePassword        = errors.New("new password must be different from current password")

	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskForbidden        = errors.New("not allowed to modify this task")
	ErrDueDateInPast        = errors.New("due date cannot be in the past")
	ErrAssigneeNotFound     = errors.New("assignee not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrNotTeamMember        = errors.New("not a member of this team")
	ErrAlreadyInTeam        = errors.New("user already in team")
	ErrNotificationNotFound = errors.New("notification not found")
)
