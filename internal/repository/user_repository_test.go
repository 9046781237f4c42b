package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/taskflow/internal/model"
	"github.com/iliyamo/taskflow/internal/repository"
)

var userCols = []string{"id", "name", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}

func newMock(t *testing.T) (sqlmock.Sqlmock, *repository.UserRepo, *repository.TokenRepo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return mock, repository.NewUserRepo(db), repository.NewTokenRepo(db)
}

func TestUserRepo_Create(t *testing.T) {
	u := model.User{ID: "u1", Name: "alice", Email: "Alice@X.io", PasswordHash: "h", Role: model.RoleMember, IsActive: true}

	tests := []struct {
		name    string
		execErr error
		wantErr error
	}{
		{name: "inserted"},
		{name: "duplicate email", execErr: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, wantErr: repository.ErrEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, users, _ := newMock(t)
			exp := mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id,name,email,password_hash,role,is_active) VALUES (?,?,?,?,?,?)")).
				WithArgs("u1", "alice", "alice@x.io", "h", "member", true)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err := users.Create(context.Background(), u)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestUserRepo_GetByEmail(t *testing.T) {
	mock, users, _ := newMock(t)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=? LIMIT 1")).
		WithArgs("alice@x.io").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "alice", "alice@x.io", "h", "admin", true, created, created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=? LIMIT 1")).
		WithArgs("bob@x.io").
		WillReturnRows(sqlmock.NewRows(userCols))

	u, err := users.GetByEmail(context.Background(), "  ALICE@x.io ")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.Equal(t, created, u.CreatedAt)

	_, err = users.GetByEmail(context.Background(), "bob@x.io")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepo_EmailTaken(t *testing.T) {
	mock, users, _ := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE email=? AND id<>? LIMIT 1")).
		WithArgs("a@x.io", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE email=? AND id<>? LIMIT 1")).
		WithArgs("b@x.io", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	taken, err := users.EmailTaken(context.Background(), "a@x.io", "u1")
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = users.EmailTaken(context.Background(), "b@x.io", "u1")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestUserRepo_Update(t *testing.T) {
	admin := model.RoleAdmin
	inactive := false

	t.Run("both fields", func(t *testing.T) {
		mock, users, _ := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role=?,is_active=?,updated_at=UTC_TIMESTAMP() WHERE id=?")).
			WithArgs("admin", false, "u1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, users.Update(context.Background(), "u1", model.UserUpdate{Role: &admin, IsActive: &inactive}))
	})

	t.Run("missing user", func(t *testing.T) {
		mock, users, _ := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role=?,updated_at=UTC_TIMESTAMP() WHERE id=?")).
			WithArgs("admin", "nope").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := users.Update(context.Background(), "nope", model.UserUpdate{Role: &admin})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("nothing to set", func(t *testing.T) {
		_, users, _ := newMock(t)
		assert.NoError(t, users.Update(context.Background(), "u1", model.UserUpdate{}))
	})
}

func TestUserRepo_UpdateProfile_Duplicate(t *testing.T) {
	mock, users, _ := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET name=?,email=?,updated_at=UTC_TIMESTAMP() WHERE id=?")).
		WithArgs("Alice", "bob@x.io", "u1").
		WillReturnError(&mysql.MySQLError{Number: 1062})

	err := users.UpdateProfile(context.Background(), "u1", "Alice", "Bob@x.io")
	assert.ErrorIs(t, err, repository.ErrEmailExists)
}

func TestUserRepo_List(t *testing.T) {
	mock, users, _ := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u2", "bob", "bob@x.io", "h", "member", true, now, now).
			AddRow("u1", "alice", "alice@x.io", "h", "admin", false, now.Add(-time.Hour), now))

	list, err := users.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "u2", list[0].ID)
	assert.False(t, list[1].IsActive)
}

func TestUserRepo_Delete(t *testing.T) {
	mock, users, _ := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=?")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=?")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, users.Delete(context.Background(), "u1"))
	assert.ErrorIs(t, users.Delete(context.Background(), "u1"), repository.ErrNotFound)
}
