package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/taskflow/internal/model"
)

const taskColumns = "id,title,description,status,priority,due_date,created_by,assignee_id,team_id,created_at,updated_at"

type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

func scanTask(row rowScanner) (model.Task, error) {
	var (
		t                model.Task
		status, priority string
		due              sql.NullTime
		assignee, team   sql.NullString
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &priority, &due,
		&t.CreatedBy, &assignee, &team, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, err
	}
	t.Status = model.TaskStatus(status)
	t.Priority = model.TaskPriority(priority)
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	t.AssigneeID = nullString(assignee)
	t.TeamID = nullString(team)
	return t, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Create inserts a task whose ID is already set.
func (r *TaskRepo) Create(ctx context.Context, t model.Task) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO tasks (id,title,description,status,priority,due_date,created_by,assignee_id,team_id) VALUES (?,?,?,?,?,?,?,?,?)",
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), nullable(utcPtr(t.DueDate)),
		t.CreatedBy, nullable(t.AssigneeID), nullable(t.TeamID))
	return err
}

func (r *TaskRepo) GetByID(ctx context.Context, id string) (model.Task, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id=? LIMIT 1", id)
	return scanTask(row)
}

// List returns the tasks matching f, newest first.
func (r *TaskRepo) List(ctx context.Context, f model.TaskFilter) ([]model.Task, error) {
	var (
		conds []string
		args  []any
	)
	if f.VisibleTo != "" {
		conds = append(conds, "(created_by=? OR assignee_id=? OR team_id IN (SELECT team_id FROM team_members WHERE user_id=?))")
		args = append(args, f.VisibleTo, f.VisibleTo, f.VisibleTo)
	}
	if f.Status != "" {
		conds = append(conds, "status=?")
		args = append(args, string(f.Status))
	}
	if f.Priority != "" {
		conds = append(conds, "priority=?")
		args = append(args, string(f.Priority))
	}
	if f.TeamID != "" {
		conds = append(conds, "team_id=?")
		args = append(args, f.TeamID)
	}
	if f.Query != "" {
		like := "%" + escapeLike(f.Query) + "%"
		conds = append(conds, "(title LIKE ? OR description LIKE ?)")
		args = append(args, like, like)
	}
	if f.OverdueAt != nil {
		conds = append(conds, "due_date<? AND status<>?")
		args = append(args, f.OverdueAt.UTC(), string(model.StatusDone))
	}

	q := "SELECT " + taskColumns + " FROM tasks"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	rows, err := r.DB.QueryContext(ctx, q+" ORDER BY created_at DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update applies the non-nil fields of upd to task id.
func (r *TaskRepo) Update(ctx context.Context, id string, upd model.TaskUpdate) error {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+"=?")
		args = append(args, v)
	}
	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.Status != nil {
		set("status", string(*upd.Status))
	}
	if upd.Priority != nil {
		set("priority", string(*upd.Priority))
	}
	if upd.DueDate != nil {
		set("due_date", upd.DueDate.UTC())
	}
	if upd.AssigneeID != nil {
		set("assignee_id", *upd.AssigneeID)
	}
	switch {
	case upd.ClearTeam:
		sets = append(sets, "team_id=NULL")
	case upd.TeamID != nil:
		set("team_id", *upd.TeamID)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ",")+",updated_at=UTC_TIMESTAMP() WHERE id=?", args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tasks WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
