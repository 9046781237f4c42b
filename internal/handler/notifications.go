package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/taskflow/internal/service"
)

// NotificationHandler serves the caller's own notifications.
type NotificationHandler struct {
    Notes *service.NotificationService
}

func NewNotificationHandler(n *service.NotificationService) *NotificationHandler {
    return &NotificationHandler{Notes: n}
}

type notificationResp struct {
    ID        string    `json:"id"`
    Message   string    `json:"message"`
    Type      string    `json:"type"`
    IsRead    bool      `json:"is_read"`
    CreatedAt time.Time `json:"created_at"`
}

func (h *NotificationHandler) List(c echo.Context) error {
    actor, err := currentActor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    ns, err := h.Notes.List(ctx, actor)
    if err != nil {
        return err
    }
    out := make([]notificationResp, 0, len(ns))
    for _, n := range ns {
        out = append(out, notificationResp{ID: n.ID, Message: n.Message, Type: n.Type, IsRead: n.IsRead, CreatedAt: n.CreatedAt})
    }
    return c.JSON(http.StatusOK, echo.Map{"notifications": out})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
    id, err := idParam(c, "id")
    if err != nil {
        return err
    }
    actor, err := currentActor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Notes.MarkRead(ctx, actor, id); err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
    actor, err := currentActor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    n, err := h.Notes.MarkAllRead(ctx, actor)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "All notifications marked as read", "updated": n})
}
