package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/taskflow/internal/apperror"
    "github.com/iliyamo/taskflow/internal/middleware"
    "github.com/iliyamo/taskflow/internal/model"
    "github.com/iliyamo/taskflow/internal/service"
)

// ProfileHandler lets any authenticated user read and edit their own account.
type ProfileHandler struct {
    Auth  *service.AuthService
    Users *service.UserService
}

func NewProfileHandler(a *service.AuthService, u *service.UserService) *ProfileHandler {
    return &ProfileHandler{Auth: a, Users: u}
}

type updateProfileReq struct {
    Name  string `json:"name"`
    Email string `json:"email"`
}

type changePasswordReq struct {
    CurrentPassword string `json:"currentPassword"`
    NewPassword     string `json:"newPassword"`
}

func (h *ProfileHandler) Get(c echo.Context) error {
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
    return c.JSON(http.StatusOK, echo.Map{"profile": toAdminUserResp(u)})
}

func (h *ProfileHandler) Update(c echo.Context) error {
    var req updateProfileReq
    if err := bind(c, &req); err != nil {
        return err
    }
    name := strings.TrimSpace(req.Name)
    var fe fieldErrors
    fe.required("name", name, "Name is required")
    fe.email("email", req.Email)
    if err := fe.err(); err != nil {
        return err
    }

    p, ok := middleware.CurrentPrincipal(c)
    if !ok {
        return apperror.AccessTokenRequired()
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Users.UpdateProfile(ctx, p, name, model.NormalizeEmail(req.Email))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "Profile updated successfully",
        "profile": toAdminUserResp(u),
    })
}

// ChangePassword signs the user out everywhere: every refresh token of the
// account is revoked once the new hash is stored.
func (h *ProfileHandler) ChangePassword(c echo.Context) error {
    var req changePasswordReq
    if err := bind(c, &req); err != nil {
        return err
    }
    var fe fieldErrors
    fe.required("currentPassword", req.CurrentPassword, "Current password is required")
    fe.password("newPassword", req.NewPassword)
    if err := fe.err(); err != nil {
        return err
    }

    p, ok := middleware.CurrentPrincipal(c)
    if !ok {
        return apperror.AccessTokenRequired()
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Users.ChangePassword(ctx, p, req.CurrentPassword, req.NewPassword); err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Password updated successfully"})
}
