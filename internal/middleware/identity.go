package middleware

// identity.go carries the authenticated principal from Authenticate to the
// handlers.  It is stored on the echo context and on the request context so
// code below the HTTP layer can read it without echo.

import (
    "context"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/taskflow/internal/model"
)

type principalKey struct{}

const echoPrincipalKey = "principal"

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
    return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
    p, ok := ctx.Value(principalKey{}).(model.Principal)
    return p, ok
}

// CurrentPrincipal returns the principal Authenticate attached to c.
func CurrentPrincipal(c echo.Context) (model.Principal, bool) {
    p, ok := c.Get(echoPrincipalKey).(model.Principal)
    return p, ok
}

func setPrincipal(c echo.Context, p model.Principal) {
    c.Set(echoPrincipalKey, p)
    c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
}
