package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/taskflow/internal/handler"    // handlers that implement each endpoint
	"github.com/iliyamo/taskflow/internal/metrics"    // Prometheus exposition
	"github.com/iliyamo/taskflow/internal/middleware" // authentication, authorization and rate limiting
)

// RegisterRoutes registers routes that do not require authentication:
// the health check and, when metrics are enabled, the Prometheus endpoint.
func RegisterRoutes(e *echo.Echo, m *metrics.Metrics) {
	e.GET("/health", handler.Health)
	if m != nil {
		e.GET("/metrics", m.Handler())
	}
}

// RegisterAuth registers the /api/auth endpoints.  Register, login, refresh
// and logout need no session and are covered by the rate limiter; /me is
// the only authenticated route in the group.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, v middleware.AccessVerifier, limit echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	if limit != nil {
		g.Use(limit)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout takes the refresh token in the body and needs no access token,
	// so a client with an expired access token can still sign out.
	g.POST("/logout", a.Logout)

	g.GET("/me", a.Me, middleware.Authenticate(v))
}

// RegisterUsers registers the admin user management endpoints.  The
// authorization guard always runs after authentication.  The self-service
// /api/users/me routes are registered on the same prefix but only require
// a valid access token; echo prefers the static "me" segment over ":id".
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, p *handler.ProfileHandler, v middleware.AccessVerifier) {
	g := e.Group("/api/users", middleware.Authenticate(v))

	g.GET("/me", p.Get)
	g.PUT("/me", p.Update)
	g.PUT("/me/password", p.ChangePassword)

	admin := g.Group("", middleware.RequireAdmin())
	admin.GET("", u.List)
	admin.GET("/:id", u.Get)
	admin.PUT("/:id", u.Update)
	admin.DELETE("/:id", u.Delete)
}

// RegisterProfile exposes the self-service endpoints under /api/profile.
func RegisterProfile(e *echo.Echo, p *handler.ProfileHandler, v middleware.AccessVerifier) {
	g := e.Group("/api/profile", middleware.Authenticate(v))
	g.GET("", p.Get)
	g.PUT("", p.Update)
	g.PUT("/password", p.ChangePassword)
}

// RegisterTasks registers /api/tasks.  Every route needs a valid access
// token; the static search and overdue segments win over ":id".
func RegisterTasks(e *echo.Echo, t *handler.TaskHandler, v middleware.AccessVerifier) {
	g := e.Group("/api/tasks", middleware.Authenticate(v))
	g.POST("", t.Create)
	g.GET("", t.List)
	g.GET("/search", t.Search)
	g.GET("/overdue", t.Overdue)
	g.GET("/:id", t.Get)
	g.PUT("/:id", t.Update)
	g.DELETE("/:id", t.Delete)
	g.PATCH("/:id/assign-team", t.AssignTeam)
	g.PATCH("/:id/unassign-team", t.UnassignTeam)
}

// RegisterTeams registers /api/teams.  Reads are open to any signed-in
// user; creating teams and changing membership is admin only.
func RegisterTeams(e *echo.Echo, t *handler.TeamHandler, v middleware.AccessVerifier) {
	g := e.Group("/api/teams", middleware.Authenticate(v))
	g.GET("", t.List)
	g.GET("/:id", t.Get)
	g.GET("/:id/tasks", t.Tasks)

	admin := g.Group("", middleware.RequireAdmin())
	admin.POST("", t.Create)
	admin.POST("/:id/members", t.AddMember)
	admin.DELETE("/:id/members/:userId", t.RemoveMember)
}

func RegisterNotifications(e *echo.Echo, n *handler.NotificationHandler, v middleware.AccessVerifier) {
	g := e.Group("/api/notifications", middleware.Authenticate(v))
	g.GET("", n.List)
	g.PATCH("/read-all", n.MarkAllRead)
	g.PATCH("/:id/read", n.MarkRead)
}
