package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/taskflow/internal/model"
	"github.com/iliyamo/taskflow/internal/service"
	"github.com/iliyamo/taskflow/internal/testutil"
)

func TestUserService_UpdateRevokesSessions(t *testing.T) {
	member := model.RoleMember
	admin := model.RoleAdmin
	inactive := false
	active := true

	tests := []struct {
		name       string
		upd        model.UserUpdate
		wantRevoke bool
	}{
		{name: "demotion", upd: model.UserUpdate{Role: &member}, wantRevoke: true},
		{name: "deactivation", upd: model.UserUpdate{IsActive: &inactive}, wantRevoke: true},
		{name: "unchanged role", upd: model.UserUpdate{Role: &admin}, wantRevoke: false},
		{name: "already active", upd: model.UserUpdate{IsActive: &active}, wantRevoke: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewEnv(t)
			ctx := context.Background()
			actor := register(t, env, "root@x.io", model.RoleAdmin)
			target := register(t, env, "bob@x.io", model.RoleAdmin)

			u, err := env.User.Update(ctx, actor.User.Principal(), target.User.ID, tt.upd)
			require.NoError(t, err)
			if tt.upd.Role != nil {
				assert.Equal(t, *tt.upd.Role, u.Role)
			}

			_, err = env.Auth.Refresh(ctx, target.RefreshToken.Token)
			if tt.wantRevoke {
				assert.ErrorIs(t, err, service.ErrInvalidRefreshToken)
			} else {
				assert.NoError(t, err)
			}

			// the acting admin keeps their session
			_, err = env.Auth.Refresh(ctx, actor.RefreshToken.Token)
			assert.NoError(t, err)
		})
	}
}

func TestUserService_UpdateErrors(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	actor := register(t, env, "root@x.io", model.RoleAdmin)
	member := model.RoleMember

	_, err := env.User.Update(ctx, actor.User.Principal(), actor.User.ID, model.UserUpdate{})
	assert.ErrorIs(t, err, service.ErrNoFieldsToUpdate)

	_, err = env.User.Update(ctx, actor.User.Principal(), "00000000-0000-0000-0000-000000000000", model.UserUpdate{Role: &member})
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestUserService_Delete(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	actor := register(t, env, "root@x.io", model.RoleAdmin)
	target := register(t, env, "bob@x.io", model.RoleMember)

	assert.ErrorIs(t, env.User.Delete(ctx, actor.User.Principal(), actor.User.ID), service.ErrSelfDelete)
	assert.ErrorIs(t, env.User.Delete(ctx, actor.User.Principal(), strings.ToUpper(actor.User.ID)), service.ErrSelfDelete)

	require.NoError(t, env.User.Delete(ctx, actor.User.Principal(), target.User.ID))
	_, err := env.User.Get(ctx, target.User.ID)
	assert.ErrorIs(t, err, service.ErrUserNotFound)

	assert.ErrorIs(t, env.User.Delete(ctx, actor.User.Principal(), target.User.ID), service.ErrUserNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	alice := register(t, env, "alice@x.io", model.RoleMember)
	register(t, env, "bob@x.io", model.RoleMember)

	_, err := env.User.UpdateProfile(ctx, alice.User.Principal(), "Alice", "BOB@x.io")
	assert.ErrorIs(t, err, service.ErrEmailInUse)

	// keeping one's own email is not a conflict
	u, err := env.User.UpdateProfile(ctx, alice.User.Principal(), "Alice A.", "alice@x.io")
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", u.Name)
	assert.Equal(t, "alice@x.io", u.Email)
}

func TestUserService_ChangePassword(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	alice := register(t, env, "alice@x.io", model.RoleMember)
	p := alice.User.Principal()

	assert.ErrorIs(t, env.User.ChangePassword(ctx, p, "wrong-pass", "new-secret1"), service.ErrWrongPassword)
	assert.ErrorIs(t, env.User.ChangePassword(ctx, p, "secret123", "secret123"), service.ErrSamePassword)

	require.NoError(t, env.User.ChangePassword(ctx, p, "secret123", "new-secret1"))

	_, err := env.Auth.Refresh(ctx, alice.RefreshToken.Token)
	assert.ErrorIs(t, err, service.ErrInvalidRefreshToken, "password change signs out every session")

	_, err = env.Auth.Login(ctx, service.LoginInput{Email: "alice@x.io", Password: "secret123"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = env.Auth.Login(ctx, service.LoginInput{Email: "alice@x.io", Password: "new-secret1"})
	assert.NoError(t, err)
}
