package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "errors"  // errors.Is distinguishes expired from invalid tokens
    "strings" // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/taskflow/internal/apperror"
    "github.com/iliyamo/taskflow/internal/model"
    "github.com/iliyamo/taskflow/internal/utils"
)

// AccessVerifier validates access tokens.  *utils.TokenIssuer implements it.
type AccessVerifier interface {
    VerifyAccessToken(raw string) (model.Principal, error)
}

// Authenticate returns an Echo middleware that validates a Bearer access
// token and attaches the embedded principal to the request.  Verification is
// a pure signature and expiry check; the store is never consulted.
func Authenticate(v AccessVerifier) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
            if !ok {
                return apperror.AccessTokenRequired()
            }
            p, err := v.VerifyAccessToken(raw)
            if err != nil {
                if errors.Is(err, utils.ErrTokenExpired) {
                    return apperror.TokenExpired()
                }
                return apperror.InvalidToken()
            }
            setPrincipal(c, p)
            return next(c)
        }
    }
}

// bearerToken extracts the credential of an "Authorization: Bearer <token>"
// header.  The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
    scheme, token, found := strings.Cut(header, " ")
    if !found || !strings.EqualFold(scheme, "Bearer") {
        return "", false
    }
    token = strings.TrimSpace(token)
    return token, token != ""
}
