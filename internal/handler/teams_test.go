package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/taskflow/internal/testutil"
)

func createTeam(t *testing.T, env *testutil.Env, token, name string) string {
	t.Helper()
	rec := testutil.Do(t, env.Echo, http.MethodPost, "/api/teams", map[string]string{"name": name}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		ID string `json:"id"`
	}
	testutil.DecodeJSON(t, rec, &out)
	return out.ID
}

func TestTeams_AdminOnlyMutations(t *testing.T) {
	env := testutil.NewEnv(t)
	root := registerUser(t, env, "root@example.com", "admin")
	alice := registerUser(t, env, "alice@example.com", "member")
	teamID := createTeam(t, env, root.AccessToken, "core")

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/api/teams", map[string]string{"name": "rogue"}},
		{http.MethodPost, "/api/teams/" + teamID + "/members", map[string]string{"userId": alice.User.ID}},
		{http.MethodDelete, "/api/teams/" + teamID + "/members/" + root.User.ID, nil},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := testutil.Do(t, env.Echo, tt.method, tt.path, tt.body, alice.AccessToken)
			testutil.AssertError(t, rec, http.StatusForbidden, "Admin access required")
		})
	}

	rec := testutil.Do(t, env.Echo, http.MethodGet, "/api/teams", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Teams []struct {
			Name string `json:"name"`
		} `json:"teams"`
	}
	testutil.DecodeJSON(t, rec, &list)
	require.Len(t, list.Teams, 1)
	assert.Equal(t, "core", list.Teams[0].Name)
}

func TestTeams_MembershipAndTasks(t *testing.T) {
	env := testutil.NewEnv(t)
	root := registerUser(t, env, "root@example.com", "admin")
	alice := registerUser(t, env, "alice@example.com", "member")
	bob := registerUser(t, env, "bob@example.com", "member")
	teamID := createTeam(t, env, root.AccessToken, "core")

	rec := testutil.Do(t, env.Echo, http.MethodPost, "/api/teams/"+teamID+"/members", map[string]string{"userId": alice.User.ID}, root.AccessToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = testutil.Do(t, env.Echo, http.MethodPost, "/api/teams/"+teamID+"/members", map[string]string{"userId": alice.User.ID}, root.AccessToken)
	testutil.AssertError(t, rec, http.StatusConflict, "User already in team")
	rec = testutil.Do(t, env.Echo, http.MethodPost, "/api/teams/"+teamID+"/members", map[string]string{"userId": "00000000-0000-0000-0000-000000000000"}, root.AccessToken)
	testutil.AssertError(t, rec, http.StatusNotFound, "User not found")

	rec = testutil.Do(t, env.Echo, http.MethodGet, "/api/teams/"+teamID, nil, bob.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Members []struct {
			Email string `json:"email"`
		} `json:"members"`
	}
	testutil.DecodeJSON(t, rec, &detail)
	require.Len(t, detail.Members, 1)
	assert.Equal(t, "alice@example.com", detail.Members[0].Email)

	task := createTask(t, env, alice.AccessToken, map[string]any{"title": "team work"})
	rec = testutil.Do(t, env.Echo, http.MethodPatch, "/api/tasks/"+task.ID+"/assign-team", map[string]string{"team_id": teamID}, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = testutil.Do(t, env.Echo, http.MethodGet, "/api/teams/"+teamID+"/tasks", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks taskList
	testutil.DecodeJSON(t, rec, &tasks)
	require.Len(t, tasks.Tasks, 1)

	rec = testutil.Do(t, env.Echo, http.MethodGet, "/api/teams/"+teamID+"/tasks", nil, bob.AccessToken)
	testutil.AssertError(t, rec, http.StatusForbidden, "You are not a member of this team")

	// filing under a team requires membership
	rec = testutil.Do(t, env.Echo, http.MethodPost, "/api/tasks", map[string]any{"title": "x", "team_id": teamID}, bob.AccessToken)
	testutil.AssertError(t, rec, http.StatusForbidden, "You are not a member of this team")

	rec = testutil.Do(t, env.Echo, http.MethodPatch, "/api/tasks/"+task.ID+"/unassign-team", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.Do(t, env.Echo, http.MethodDelete, "/api/teams/"+teamID+"/members/"+alice.User.ID, nil, root.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.Do(t, env.Echo, http.MethodGet, "/api/teams/00000000-0000-0000-0000-000000000000", nil, root.AccessToken)
	testutil.AssertError(t, rec, http.StatusNotFound, "Team not found")
}

func TestNotifications_MarkRead(t *testing.T) {
	env := testutil.NewEnv(t)
	root := registerUser(t, env, "root@example.com", "admin")
	alice := registerUser(t, env, "alice@example.com", "member")
	for _, name := range []string{"a", "b"} {
		teamID := createTeam(t, env, root.AccessToken, name)
		rec := testutil.Do(t, env.Echo, http.MethodPost, "/api/teams/"+teamID+"/members", map[string]string{"userId": alice.User.ID}, root.AccessToken)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := testutil.Do(t, env.Echo, http.MethodGet, "/api/notifications", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var notes struct {
		Notifications []struct {
			ID      string `json:"id"`
			Message string `json:"message"`
		} `json:"notifications"`
	}
	testutil.DecodeJSON(t, rec, &notes)
	require.Len(t, notes.Notifications, 2)
	assert.Equal(t, "You have been added to the team: b", notes.Notifications[0].Message)

	first := notes.Notifications[0].ID
	rec = testutil.Do(t, env.Echo, http.MethodPatch, "/api/notifications/"+first+"/read", nil, root.AccessToken)
	testutil.AssertError(t, rec, http.StatusNotFound, "Notification not found")

	rec = testutil.Do(t, env.Echo, http.MethodPatch, "/api/notifications/"+first+"/read", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.Do(t, env.Echo, http.MethodPatch, "/api/notifications/read-all", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var all struct {
		Updated int `json:"updated"`
	}
	testutil.DecodeJSON(t, rec, &all)
	assert.Equal(t, 1, all.Updated)
}
