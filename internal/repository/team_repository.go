package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/taskflow/internal/model"
)

// ErrAlreadyMember is returned when a user is added to a team twice.
var ErrAlreadyMember = errors.New("already a team member")

type TeamRepo struct{ DB *sql.DB }

func NewTeamRepo(db *sql.DB) *TeamRepo { return &TeamRepo{DB: db} }

func (r *TeamRepo) Create(ctx context.Context, t model.Team) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO teams (id,name,description,created_by) VALUES (?,?,?,?)",
		t.ID, t.Name, t.Description, t.CreatedBy)
	return err
}

func (r *TeamRepo) GetByID(ctx context.Context, id string) (model.Team, error) {
	var (
		t       model.Team
		creator sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,description,created_by,created_at FROM teams WHERE id=? LIMIT 1", id).
		Scan(&t.ID, &t.Name, &t.Description, &creator, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Team{}, ErrNotFound
	}
	t.CreatedBy = creator.String
	return t, err
}

// List returns all teams, newest first.
func (r *TeamRepo) List(ctx context.Context) ([]model.Team, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,description,created_by,created_at FROM teams ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []model.Team{}
	for rows.Next() {
		var (
			t       model.Team
			creator sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &creator, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.CreatedBy = creator.String
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// Members lists the users of team id in join order.
func (r *TeamRepo) Members(ctx context.Context, id string) ([]model.TeamMember, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT u.id,u.name,u.email,u.role,tm.joined_at
		FROM team_members tm
		JOIN users u ON u.id=tm.user_id
		WHERE tm.team_id=?
		ORDER BY tm.joined_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []model.TeamMember{}
	for rows.Next() {
		var (
			m    model.TeamMember
			role string
		)
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Role = model.Role(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember inserts a membership row; the primary key rejects duplicates.
func (r *TeamRepo) AddMember(ctx context.Context, teamID, userID string) error {
	_, err := r.DB.ExecContext(ctx, "INSERT INTO team_members (team_id,user_id) VALUES (?,?)", teamID, userID)
	if isDuplicate(err) {
		return ErrAlreadyMember
	}
	return err
}

// RemoveMember deletes a membership.  Removing a non-member is not an error.
func (r *TeamRepo) RemoveMember(ctx context.Context, teamID, userID string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM team_members WHERE team_id=? AND user_id=?", teamID, userID)
	return err
}

func (r *TeamRepo) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM team_members WHERE team_id=? AND user_id=? LIMIT 1", teamID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
