package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/taskflow/internal/apperror"
    "github.com/iliyamo/taskflow/internal/model"
)

// RequireRole returns a middleware that admits only principals holding one
// of roles.  It must be registered after Authenticate; a request without a
// principal is treated as unauthenticated, not as forbidden.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
    allowed := make(map[model.Role]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    deny := func() error { return apperror.Domain(http.StatusForbidden, "Forbidden") }
    if len(allowed) == 1 && allowed[model.RoleAdmin] {
        deny = func() error { return apperror.AdminRequired() }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            p, ok := CurrentPrincipal(c)
            if !ok {
                return apperror.AccessTokenRequired()
            }
            if !allowed[p.Role] {
                return deny()
            }
            return next(c)
        }
    }
}

// RequireAdmin restricts a route to the admin role.
func RequireAdmin() echo.MiddlewareFunc { return RequireRole(model.RoleAdmin) }
