package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/taskflow/internal/handler"
	"github.com/iliyamo/taskflow/internal/middleware"
	"github.com/iliyamo/taskflow/internal/model"
	"github.com/iliyamo/taskflow/internal/testutil"
)

var (
	member = model.Principal{ID: "8d4f2f3e-1111-4c5e-9a3f-000000000001", Email: "m@x.io", Role: model.RoleMember}
	admin  = model.Principal{ID: "8d4f2f3e-1111-4c5e-9a3f-000000000002", Email: "a@x.io", Role: model.RoleAdmin}
)

// newEcho mounts an echo handler that reports the principal it saw.
func newEcho(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.GET("/protected", func(c echo.Context) error {
		p, ok := middleware.CurrentPrincipal(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		fromCtx, _ := middleware.PrincipalFromContext(c.Request().Context())
		return c.JSON(http.StatusOK, echo.Map{"id": p.ID, "role": p.Role, "ctx_id": fromCtx.ID})
	}, mw...)
	return e
}

func TestAuthenticate(t *testing.T) {
	issuedAt := time.Now().Add(-time.Hour)
	stale := testutil.NewIssuer(t).WithClock(func() time.Time { return issuedAt })
	expired, err := stale.IssueAccessToken(member)
	require.NoError(t, err)

	iss := testutil.NewIssuer(t)
	valid, err := iss.IssueAccessToken(member)
	require.NoError(t, err)
	refresh, err := iss.IssueRefreshToken(member)
	require.NoError(t, err)

	e := newEcho(middleware.Authenticate(iss))

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{name: "no header", status: http.StatusUnauthorized, message: "Access token required"},
		{name: "wrong scheme", header: "Basic " + valid.Token, status: http.StatusUnauthorized, message: "Access token required"},
		{name: "empty bearer", header: "Bearer ", status: http.StatusUnauthorized, message: "Access token required"},
		{name: "expired", header: "Bearer " + expired.Token, status: http.StatusUnauthorized, message: "Token expired"},
		{name: "garbage", header: "Bearer abc.def.ghi", status: http.StatusUnauthorized, message: "Invalid token"},
		{name: "refresh token", header: "Bearer " + refresh.Token, status: http.StatusUnauthorized, message: "Invalid token"},
		{name: "valid", header: "Bearer " + valid.Token, status: http.StatusOK},
		{name: "lower-case scheme", header: "bearer " + valid.Token, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if tt.message != "" {
				testutil.AssertError(t, rec, tt.status, tt.message)
				return
			}
			require.Equal(t, tt.status, rec.Code)
			var body map[string]string
			testutil.DecodeJSON(t, rec, &body)
			assert.Equal(t, member.ID, body["id"])
			assert.Equal(t, member.ID, body["ctx_id"])
			assert.Equal(t, "member", body["role"])
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	iss := testutil.NewIssuer(t)
	e := newEcho(middleware.Authenticate(iss), middleware.RequireAdmin())

	memberTok, err := iss.IssueAccessToken(member)
	require.NoError(t, err)
	adminTok, err := iss.IssueAccessToken(admin)
	require.NoError(t, err)

	rec := testutil.Do(t, e, http.MethodGet, "/protected", nil, memberTok.Token)
	testutil.AssertError(t, rec, http.StatusForbidden, "Admin access required")

	rec = testutil.Do(t, e, http.MethodGet, "/protected", nil, adminTok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// authentication failures win over authorization
	rec = testutil.Do(t, e, http.MethodGet, "/protected", nil, "")
	testutil.AssertError(t, rec, http.StatusUnauthorized, "Access token required")
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	e := newEcho(middleware.RequireRole(model.RoleAdmin, model.RoleMember))

	rec := testutil.Do(t, e, http.MethodGet, "/protected", nil, "")
	testutil.AssertError(t, rec, http.StatusUnauthorized, "Access token required")
}
