package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/taskflow/internal/testutil"
)

func TestProfile_GetAndUpdate(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := registerUser(t, env, "alice@example.com", "member")
	registerUser(t, env, "bob@example.com", "member")

	for _, path := range []string{"/api/profile", "/api/users/me"} {
		rec := testutil.Do(t, env.Echo, http.MethodGet, path, nil, alice.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code, path)
		var out struct {
			Profile adminUserBody `json:"profile"`
		}
		testutil.DecodeJSON(t, rec, &out)
		assert.Equal(t, alice.User.ID, out.Profile.ID)
	}

	rec := testutil.Do(t, env.Echo, http.MethodPut, "/api/profile",
		map[string]string{"name": "Alice", "email": "bob@example.com"}, alice.AccessToken)
	testutil.AssertError(t, rec, http.StatusConflict, "Email already in use")

	rec = testutil.Do(t, env.Echo, http.MethodPut, "/api/profile",
		map[string]string{"name": "", "email": "alice@example.com"}, alice.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.Do(t, env.Echo, http.MethodPut, "/api/users/me",
		map[string]string{"name": "Alice Liddell", "email": "Alice.L@Example.com"}, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Message string        `json:"message"`
		Profile adminUserBody `json:"profile"`
	}
	testutil.DecodeJSON(t, rec, &out)
	assert.Equal(t, "Profile updated successfully", out.Message)
	assert.Equal(t, "Alice Liddell", out.Profile.Name)
	assert.Equal(t, "alice.l@example.com", out.Profile.Email)
}

func TestProfile_ChangePassword(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := registerUser(t, env, "alice@example.com", "member")

	tests := []struct {
		name    string
		body    map[string]string
		status  int
		message string
	}{
		{name: "wrong current", body: map[string]string{"currentPassword": "nope-nope", "newPassword": "Another123"}, status: http.StatusUnauthorized, message: "Current password is incorrect"},
		{name: "same password", body: map[string]string{"currentPassword": "Secret123", "newPassword": "Secret123"}, status: http.StatusBadRequest, message: "New password must be different from current password"},
		{name: "too short", body: map[string]string{"currentPassword": "Secret123", "newPassword": "short"}, status: http.StatusBadRequest, message: "Validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.Do(t, env.Echo, http.MethodPut, "/api/profile/password", tt.body, alice.AccessToken)
			testutil.AssertError(t, rec, tt.status, tt.message)
		})
	}

	rec := testutil.Do(t, env.Echo, http.MethodPut, "/api/users/me/password",
		map[string]string{"currentPassword": "Secret123", "newPassword": "Another123"}, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.Do(t, env.Echo, http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": alice.RefreshToken}, "")
	testutil.AssertError(t, rec, http.StatusForbidden, "Invalid refresh token")

	rec = testutil.Do(t, env.Echo, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "alice@example.com", "password": "Another123"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
