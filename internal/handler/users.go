package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/taskflow/internal/apperror"
    "github.com/iliyamo/taskflow/internal/middleware"
    "github.com/iliyamo/taskflow/internal/model"
    "github.com/iliyamo/taskflow/internal/service"
)

// UserHandler serves the admin-only account management endpoints under
// /api/users.  Authenticate and RequireAdmin run before every method.
type UserHandler struct {
    Users *service.UserService
}

func NewUserHandler(u *service.UserService) *UserHandler {
    return &UserHandler{Users: u}
}

// adminUserResp extends the public user view with account state.
type adminUserResp struct {
    userResp
    IsActive  bool      `json:"is_active"`
    CreatedAt time.Time `json:"created_at"`
}

type updateUserReq struct {
    Role     *string `json:"role"`
    IsActive *bool   `json:"is_active"`
}

func toAdminUserResp(u model.User) adminUserResp {
    return adminUserResp{userResp: toUserResp(u), IsActive: u.IsActive, CreatedAt: u.CreatedAt}
}

// List returns every user, newest first.
func (h *UserHandler) List(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    users, err := h.Users.List(ctx)
    if err != nil {
        return err
    }
    out := make([]adminUserResp, 0, len(users))
    for _, u := range users {
        out = append(out, toAdminUserResp(u))
    }
    return c.JSON(http.StatusOK, echo.Map{"users": out})
}

func (h *UserHandler) Get(c echo.Context) error {
    id, err := idParam(c, "id")
    if err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Users.Get(ctx, id)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"user": toAdminUserResp(u)})
}

// Update changes role and/or is_active.  At least one must be present.
func (h *UserHandler) Update(c echo.Context) error {
    id, err := idParam(c, "id")
    if err != nil {
        return err
    }
    var req updateUserReq
    if err := bind(c, &req); err != nil {
        return err
    }
    var upd model.UserUpdate
    if req.Role != nil {
        var fe fieldErrors
        r := fe.role("role", *req.Role)
        if err := fe.err(); err != nil {
            return err
        }
        upd.Role = &r
    }
    upd.IsActive = req.IsActive

    actor, ok := middleware.CurrentPrincipal(c)
    if !ok {
        return apperror.AccessTokenRequired()
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Users.Update(ctx, actor, id, upd)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "User updated successfully",
        "user":    toAdminUserResp(u),
    })
}

func (h *UserHandler) Delete(c echo.Context) error {
    id, err := idParam(c, "id")
    if err != nil {
        return err
    }
    actor, ok := middleware.CurrentPrincipal(c)
    if !ok {
        return apperror.AccessTokenRequired()
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Users.Delete(ctx, actor, id); err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}
