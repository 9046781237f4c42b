package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/taskflow/internal/model"
)

const userColumns = "id,name,email,password_hash,role,is_active,created_at,updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u    model.User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	u.Role = model.Role(role)
	return u, err
}

// Create inserts a user whose ID and password hash are already set.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id,name,email,password_hash,role,is_active) VALUES (?,?,?,?,?,?)",
		u.ID, u.Name, model.NormalizeEmail(u.Email), u.PasswordHash, string(u.Role), u.IsActive)
	if isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", model.NormalizeEmail(email))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// EmailTaken reports whether another user than exceptID owns email.
func (r *UserRepo) EmailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE email=? AND id<>? LIMIT 1",
		model.NormalizeEmail(email), exceptID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// List returns all users, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update applies the non-nil fields of upd to user id.
func (r *UserRepo) Update(ctx context.Context, id string, upd model.UserUpdate) error {
	var (
		sets []string
		args []any
	)
	if upd.Role != nil {
		sets = append(sets, "role=?")
		args = append(args, string(*upd.Role))
	}
	if upd.IsActive != nil {
		sets = append(sets, "is_active=?")
		args = append(args, *upd.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ",")+",updated_at=UTC_TIMESTAMP() WHERE id=?", args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateProfile changes the self-editable name and email of user id.
func (r *UserRepo) UpdateProfile(ctx context.Context, id, name, email string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?,email=?,updated_at=UTC_TIMESTAMP() WHERE id=?",
		name, model.NormalizeEmail(email), id)
	if isDuplicate(err) {
		return ErrEmailExists
	}
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdatePassword stores a new password hash for user id.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?,updated_at=UTC_TIMESTAMP() WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes user id.  Refresh tokens cascade through the foreign key.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow maps a zero-row UPDATE/DELETE to ErrNotFound.  The DSN enables
// CLIENT_FOUND_ROWS so an UPDATE that changes nothing still counts its row.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
