package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/taskflow/internal/model"
    "github.com/iliyamo/taskflow/internal/service"
)

// TeamHandler serves /api/teams.  Creation and membership changes are
// mounted behind RequireAdmin.
type TeamHandler struct {
    Teams *service.TeamService
}

func NewTeamHandler(t *service.TeamService) *TeamHandler {
    return &TeamHandler{Teams: t}
}

type teamResp struct {
    ID          string    `json:"id"`
    Name        string    `json:"name"`
    Description string    `json:"description"`
    CreatedBy   string    `json:"created_by"`
    CreatedAt   time.Time `json:"created_at"`
}

type memberResp struct {
    ID       string    `json:"id"`
    Name     string    `json:"name"`
    Email    string    `json:"email"`
    Role     string    `json:"role"`
    JoinedAt time.Time `json:"joined_at"`
}

func toTeamResp(t model.Team) teamResp {
    return teamResp{ID: t.ID, Name: t.Name, Description: t.Description, CreatedBy: t.CreatedBy, CreatedAt: t.CreatedAt}
}

type createTeamReq struct {
    Name        string `json:"name"`
    Description string `json:"description"`
}

type addMemberReq struct {
    UserID string `json:"userId"`
}

func (h *TeamHandler) Create(c echo.Context) error {
    var req createTeamReq
    if err := bind(c, &req); err != nil {
        return err
    }
    name := strings.TrimSpace(req.Name)
    var fe fieldErrors
    fe.required("name", name, "Team name is required")
    if err := fe.err(); err != nil {
        return err
    }
    actor, err := currentActor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    t, err := h.Teams.Create(ctx, actor, name, strings.TrimSpace(req.Description))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, echo.Map{"message": "Team created", "id": t.ID})
}

func (h *TeamHandler) List(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    teams, err := h.Teams.List(ctx)
    if err != nil {
        return err
    }
    out := make([]teamResp, 0, len(teams))
    for _, t := range teams {
        out = append(out, toTeamResp(t))
    }
    return c.JSON(http.StatusOK, echo.Map{"teams": out})
}

func (h *TeamHandler) Get(c echo.Context) error {
    id, err := idParam(c, "id")
    if err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    t, members, err := h.Teams.Get(ctx, id)
    if err != nil {
        return err
    }
    out := make([]memberResp, 0, len(members))
    for _, m := range members {
        out = append(out, memberResp{ID: m.UserID, Name: m.Name, Email: m.Email, Role: string(m.Role), JoinedAt: m.JoinedAt})
    }
    return c.JSON(http.StatusOK, echo.Map{"team": toTeamResp(t), "members": out})
}

func (h *TeamHandler) AddMember(c echo.Context) error {
    id, err := idParam(c, "id")
    if err != nil {
        return err
    }
    var req addMemberReq
    if err := bind(c, &req); err != nil {
        return err
    }
    var fe fieldErrors
    userID := fe.optionalID("userId", &req.UserID)
    if err := fe.err(); err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Teams.AddMember(ctx, id, *userID); err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, echo.Map{"message": "Member added to team"})
}

func (h *TeamHandler) RemoveMember(c echo.Context) error {
    id, err := idParam(c, "id")
    if err != nil {
        return err
    }
    userID, err := idParam(c, "userId")
    if err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Teams.RemoveMember(ctx, id, userID); err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Member removed from team"})
}

// Tasks lists the team's tasks.  Members of other teams get 403.
func (h *TeamHandler) Tasks(c echo.Context) error {
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

    ts, err := h.Teams.Tasks(ctx, actor, id)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, toTaskList(ts))
}

