package handler

import (
    "context"  // provides context with cancellation for DB calls
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/taskflow/internal/apperror"
    "github.com/iliyamo/taskflow/internal/middleware"
    "github.com/iliyamo/taskflow/internal/model"
    "github.com/iliyamo/taskflow/internal/service"
)

// requestTimeout bounds the store work of a single auth request.
const requestTimeout = 5 * time.Second

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler {
    return &AuthHandler{Auth: a}
}

// ----- DTOs -----

type registerReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
    Role     string `json:"role"` // admin | member
    Name     string `json:"name"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refreshToken"`
}

// userResp is the public view of a user; it has no password hash field.
type userResp struct {
    ID    string `json:"id"`
    Name  string `json:"name"`
    Email string `json:"email"`
    Role  string `json:"role"`
}
type authResp struct {
    User                  userResp  `json:"user"`
    AccessToken           string    `json:"accessToken"`
    AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
    RefreshToken          string    `json:"refreshToken"`
    RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}
type refreshResp struct {
    AccessToken           string     `json:"accessToken"`
    AccessTokenExpiresAt  time.Time  `json:"accessTokenExpiresAt"`
    RefreshToken          string     `json:"refreshToken,omitempty"`
    RefreshTokenExpiresAt *time.Time `json:"refreshTokenExpiresAt,omitempty"`
}

func toUserResp(u model.User) userResp {
    return userResp{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

func toAuthResp(r *service.AuthResult) authResp {
    return authResp{
        User:                  toUserResp(r.User),
        AccessToken:           r.AccessToken.Token,
        AccessTokenExpiresAt:  r.AccessToken.ExpiresAt,
        RefreshToken:          r.RefreshToken.Token,
        RefreshTokenExpiresAt: r.RefreshToken.ExpiresAt,
    }
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// Register: create user and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := bind(c, &req); err != nil {
        return err
    }
    var fe fieldErrors
    fe.email("email", req.Email)
    fe.password("password", req.Password)
    role := fe.role("role", req.Role)
    if err := fe.err(); err != nil {
        return err
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    res, err := h.Auth.Register(ctx, service.RegisterInput{
        Email:    req.Email,
        Password: req.Password,
        Name:     strings.TrimSpace(req.Name),
        Role:     role,
    })
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, toAuthResp(res))
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bind(c, &req); err != nil {
        return err
    }
    var fe fieldErrors
    fe.email("email", req.Email)
    fe.required("password", req.Password, "Password is required")
    if err := fe.err(); err != nil {
        return err
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    res, err := h.Auth.Login(ctx, service.LoginInput{Email: req.Email, Password: req.Password})
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, toAuthResp(res))
}

// Refresh: exchange a refresh token for a new access token.
func (h *AuthHandler) Refresh(c echo.Context) error {
    raw, err := refreshTokenFrom(c)
    if err != nil {
        return err
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    res, err := h.Auth.Refresh(ctx, raw)
    if err != nil {
        return err
    }
    out := refreshResp{AccessToken: res.AccessToken.Token, AccessTokenExpiresAt: res.AccessToken.ExpiresAt}
    if res.RefreshToken != nil {
        out.RefreshToken = res.RefreshToken.Token
        out.RefreshTokenExpiresAt = &res.RefreshToken.ExpiresAt
    }
    return c.JSON(http.StatusOK, out)
}

// Logout: forget the given refresh token.  Unknown tokens still succeed.
func (h *AuthHandler) Logout(c echo.Context) error {
    raw, err := refreshTokenFrom(c)
    if err != nil {
        return err
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Auth.Logout(ctx, raw); err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// Me returns the authenticated user's current profile.
func (h *AuthHandler) Me(c echo.Context) error {
    p, ok := middleware.CurrentPrincipal(c)
    if !ok {
        return apperror.AccessTokenRequired()
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Auth.Me(ctx, p)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, toUserResp(u))
}

func refreshTokenFrom(c echo.Context) (string, error) {
    var req refreshReq
    if err := bind(c, &req); err != nil {
        return "", err
    }
    raw := strings.TrimSpace(req.RefreshToken)
    var fe fieldErrors
    fe.required("refreshToken", raw, "Refresh token is required")
    return raw, fe.err()
}
