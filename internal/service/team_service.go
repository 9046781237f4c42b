package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/taskflow/internal/model"
	"github.com/iliyamo/taskflow/internal/repository"
)

// TeamService manages teams.  Route guards keep creation and membership
// changes admin only; reading a team's tasks requires membership unless
// the actor is an admin.
type TeamService struct {
	d WorkDeps
}

func NewTeamService(d WorkDeps) *TeamService {
	d.defaults()
	return &TeamService{d: d}
}

func (s *TeamService) Create(ctx context.Context, actor model.Principal, name, description string) (model.Team, error) {
	t := model.Team{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedBy:   actor.ID,
		CreatedAt:   s.d.Now().UTC(),
	}
	if err := s.d.Teams.Create(ctx, t); err != nil {
		return model.Team{}, fmt.Errorf("create team: %w", err)
	}
	return t, nil
}

func (s *TeamService) List(ctx context.Context) ([]model.Team, error) {
	return s.d.Teams.List(ctx)
}

// Get returns team id with its members.
func (s *TeamService) Get(ctx context.Context, id string) (model.Team, []model.TeamMember, error) {
	t, err := s.team(ctx, id)
	if err != nil {
		return model.Team{}, nil, err
	}
	members, err := s.d.Teams.Members(ctx, id)
	if err != nil {
		return model.Team{}, nil, fmt.Errorf("list members: %w", err)
	}
	return t, members, nil
}

// AddMember puts userID into team id and notifies the user.
func (s *TeamService) AddMember(ctx context.Context, id, userID string) error {
	t, err := s.team(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.d.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if err := s.d.Teams.AddMember(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrAlreadyMember) {
			return ErrAlreadyInTeam
		}
		return fmt.Errorf("add member: %w", err)
	}
	notify(ctx, s.d, userID, model.NotifyTeamAdded, "You have been added to the team: "+t.Name)
	return nil
}

func (s *TeamService) RemoveMember(ctx context.Context, id, userID string) error {
	if _, err := s.team(ctx, id); err != nil {
		return err
	}
	return s.d.Teams.RemoveMember(ctx, id, userID)
}

// Tasks lists the tasks filed under team id.
func (s *TeamService) Tasks(ctx context.Context, actor model.Principal, id string) ([]model.Task, error) {
	if _, err := s.team(ctx, id); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		ok, err := s.d.Teams.IsMember(ctx, id, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("check membership: %w", err)
		}
		if !ok {
			return nil, ErrNotTeamMember
		}
	}
	return s.d.Tasks.List(ctx, model.TaskFilter{TeamID: id})
}

func (s *TeamService) team(ctx context.Context, id string) (model.Team, error) {
	t, err := s.d.Teams.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Team{}, ErrTeamNotFound
	}
	return t, err
}
