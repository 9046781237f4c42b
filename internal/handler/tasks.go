package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/taskflow/internal/apperror"
    "github.com/iliyamo/taskflow/internal/middleware"
    "github.com/iliyamo/taskflow/internal/model"
    "github.com/iliyamo/taskflow/internal/service"
)

const maxTitleLen = 255

// TaskHandler serves /api/tasks.  Every route runs behind Authenticate;
// visibility and ownership are decided by the service.
type TaskHandler struct {
    Tasks *service.TaskService
}

func NewTaskHandler(t *service.TaskService) *TaskHandler {
    return &TaskHandler{Tasks: t}
}

type taskResp struct {
    ID          string     `json:"id"`
    Title       string     `json:"title"`
    Description string     `json:"description"`
    Status      string     `json:"status"`
    Priority    string     `json:"priority"`
    DueDate     *time.Time `json:"due_date"`
    CreatedBy   string     `json:"created_by"`
    AssigneeID  *string    `json:"assignee_id"`
    TeamID      *string    `json:"team_id"`
    CreatedAt   time.Time  `json:"created_at"`
    UpdatedAt   time.Time  `json:"updated_at"`
}

func toTaskResp(t model.Task) taskResp {
    return taskResp{
        ID:          t.ID,
        Title:       t.Title,
        Description: t.Description,
        Status:      string(t.Status),
        Priority:    string(t.Priority),
        DueDate:     t.DueDate,
        CreatedBy:   t.CreatedBy,
        AssigneeID:  t.AssigneeID,
        TeamID:      t.TeamID,
        CreatedAt:   t.CreatedAt,
        UpdatedAt:   t.UpdatedAt,
    }
}

func toTaskList(ts []model.Task) echo.Map {
    out := make([]taskResp, 0, len(ts))
    for _, t := range ts {
        out = append(out, toTaskResp(t))
    }
    return echo.Map{"tasks": out}
}

// taskReq is shared by create and update.  On update absent fields are
// left unchanged.
type taskReq struct {
    Title       *string `json:"title"`
    Description *string `json:"description"`
    Status      *string `json:"status"`
    Priority    *string `json:"priority"`
    DueDate     *string `json:"due_date"`
    AssigneeID  *string `json:"assignee_id"`
    TeamID      *string `json:"team_id"`
}

// toUpdate validates every present field.
func (r taskReq) toUpdate() (model.TaskUpdate, error) {
    var (
        fe  fieldErrors
        upd model.TaskUpdate
    )
    if r.Title != nil {
        t := strings.TrimSpace(*r.Title)
        fe.title("title", t)
        upd.Title = &t
    }
    if r.Description != nil {
        d := strings.TrimSpace(*r.Description)
        upd.Description = &d
    }
    if r.Status != nil {
        st, ok := model.ParseTaskStatus(*r.Status)
        if !ok {
            fe.add("status", "Status must be one of: Todo, In Progress, Done")
        }
        upd.Status = &st
    }
    if r.Priority != nil {
        p, ok := model.ParseTaskPriority(*r.Priority)
        if !ok {
            fe.add("priority", "Priority must be one of: Low, Medium, High")
        }
        upd.Priority = &p
    }
    if r.DueDate != nil {
        upd.DueDate = fe.date("due_date", *r.DueDate)
    }
    upd.AssigneeID = fe.optionalID("assignee_id", r.AssigneeID)
    upd.TeamID = fe.optionalID("team_id", r.TeamID)
    return upd, fe.err()
}

func (f *fieldErrors) title(field, v string) {
    switch {
    case v == "":
        f.add(field, "Title is required")
    case len(v) > maxTitleLen:
        f.add(field, "Title must be at most 255 characters")
    }
}

// date accepts RFC 3339 timestamps and plain 2006-01-02 dates (UTC midnight).
func (f *fieldErrors) date(field, v string) *time.Time {
    v = strings.TrimSpace(v)
    for _, layout := range []string{time.RFC3339, time.DateOnly} {
        if t, err := time.Parse(layout, v); err == nil {
            t = t.UTC()
            return &t
        }
    }
    f.add(field, "Due date must be a valid date")
    return nil
}

func (f *fieldErrors) optionalID(field string, v *string) *string {
    if v == nil {
        return nil
    }
    id, err := uuid.Parse(strings.TrimSpace(*v))
    if err != nil {
        f.add(field, "Invalid id")
        return nil
    }
    s := id.String()
    return &s
}

func currentActor(c echo.Context) (model.Principal, error) {
    p, ok := middleware.CurrentPrincipal(c)
    if !ok {
        return model.Principal{}, apperror.AccessTokenRequired()
    }
    return p, nil
}

func (h *TaskHandler) Create(c echo.Context) error {
    var req taskReq
    if err := bind(c, &req); err != nil {
        return err
    }
    if req.Title == nil {
        req.Title = new(string)
    }
    upd, err := req.toUpdate()
    if err != nil {
        return err
    }
    actor, err := currentActor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    in := service.NewTask{
        Title:      *upd.Title,
        DueDate:    upd.DueDate,
        AssigneeID: upd.AssigneeID,
        TeamID:     upd.TeamID,
    }
    if upd.Description != nil {
        in.Description = *upd.Description
    }
    if upd.Status != nil {
        in.Status = *upd.Status
    }
    if upd.Priority != nil {
        in.Priority = *upd.Priority
    }
    t, err := h.Tasks.Create(ctx, actor, in)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, toTaskResp(t))
}

// List supports the optional status, priority and team_id query filters.
func (h *TaskHandler) List(c echo.Context) error {
    var (
        fe fieldErrors
        f  model.TaskFilter
    )
    if v := c.QueryParam("status"); v != "" {
        st, ok := model.ParseTaskStatus(v)
        if !ok {
            fe.add("status", "Status must be one of: Todo, In Progress, Done")
        }
        f.Status = st
    }
    if v := c.QueryParam("priority"); v != "" {
        p, ok := model.ParseTaskPriority(v)
        if !ok {
            fe.add("priority", "Priority must be one of: Low, Medium, High")
        }
        f.Priority = p
    }
    if v := c.QueryParam("team_id"); v != "" {
        if id := fe.optionalID("team_id", &v); id != nil {
            f.TeamID = *id
        }
    }
    if err := fe.err(); err != nil {
        return err
    }
    return h.list(c, f)
}

// Search matches q against title and description.
func (h *TaskHandler) Search(c echo.Context) error {
    q := strings.TrimSpace(c.QueryParam("q"))
    if q == "" {
        return apperror.Validation(apperror.FieldError{Field: "q", Message: "Search query is required"})
    }
    return h.list(c, model.TaskFilter{Query: q})
}

func (h *TaskHandler) Overdue(c echo.Context) error {
    actor, err := currentActor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    ts, err := h.Tasks.Overdue(ctx, actor)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, toTaskList(ts))
}

func (h *TaskHandler) list(c echo.Context, f model.TaskFilter) error {
    actor, err := currentActor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    ts, err := h.Tasks.List(ctx, actor, f)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, toTaskList(ts))
}

func (h *TaskHandler) Get(c echo.Context) error {
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

    t, err := h.Tasks.Get(ctx, actor, id)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, toTaskResp(t))
}

func (h *TaskHandler) Update(c echo.Context) error {
    id, err := idParam(c, "id")
    if err != nil {
        return err
    }
    var req taskReq
    if err := bind(c, &req); err != nil {
        return err
    }
    upd, err := req.toUpdate()
    if err != nil {
        return err
    }
    actor, err := currentActor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    t, err := h.Tasks.Update(ctx, actor, id, upd)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, toTaskResp(t))
}

func (h *TaskHandler) Delete(c echo.Context) error {
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

    if err := h.Tasks.Delete(ctx, actor, id); err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Task deleted successfully"})
}

type assignTeamReq struct {
    TeamID string `json:"team_id"`
}

func (h *TaskHandler) AssignTeam(c echo.Context) error {
    id, err := idParam(c, "id")
    if err != nil {
        return err
    }
    var req assignTeamReq
    if err := bind(c, &req); err != nil {
        return err
    }
    var fe fieldErrors
    teamID := fe.optionalID("team_id", &req.TeamID)
    if err := fe.err(); err != nil {
        return err
    }
    actor, err := currentActor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    t, err := h.Tasks.AssignTeam(ctx, actor, id, *teamID)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Task assigned to team", "task": toTaskResp(t)})
}

func (h *TaskHandler) UnassignTeam(c echo.Context) error {
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

    t, err := h.Tasks.UnassignTeam(ctx, actor, id)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Task removed from team", "task": toTaskResp(t)})
}
