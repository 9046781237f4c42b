package testutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/taskflow/internal/handler"
	"github.com/iliyamo/taskflow/internal/router"
	"github.com/iliyamo/taskflow/internal/service"
	"github.com/iliyamo/taskflow/internal/utils"
)

const (
	AccessSecret  = "test-access-secret"
	RefreshSecret = "test-refresh-secret"
	AccessTTL     = 15 * time.Minute
	RefreshTTL    = 7 * 24 * time.Hour
)

// NewIssuer returns a token issuer with the test secrets.
func NewIssuer(t *testing.T) *utils.TokenIssuer {
	t.Helper()
	iss, err := utils.NewTokenIssuer(AccessSecret, RefreshSecret, AccessTTL, RefreshTTL)
	require.NoError(t, err)
	return iss
}

// Hasher uses the minimum bcrypt cost to keep tests fast.
func Hasher() utils.Hasher { return utils.NewHasher(bcrypt.MinCost) }

// Env is a fully wired API over in-memory stores.
type Env struct {
	Users  *MemUsers
	Ledger *MemLedger
	Issuer *utils.TokenIssuer
	Events *Events
	Auth   *service.AuthService
	User   *service.UserService
	Echo   *echo.Echo
	Server *httptest.Server

	Tasks *MemTasks
	Teams *MemTeams
	Notes *MemNotifications
	Task  *service.TaskService
	Team  *service.TeamService
}

// EnvOption adjusts the dependencies before the services are built.
type EnvOption func(*service.AuthDeps)

// WithRotation enables refresh token rotation.
func WithRotation() EnvOption { return func(d *service.AuthDeps) { d.RotateRefresh = true } }

// WithClock replaces the service clock.
func WithClock(now func() time.Time) EnvOption { return func(d *service.AuthDeps) { d.Now = now } }

// NewEnv wires the services and router.  The httptest server is closed
// when the test ends.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()
	env := &Env{
		Users:  NewMemUsers(),
		Ledger: NewMemLedger(),
		Issuer: NewIssuer(t),
		Events: &Events{},
	}
	deps := service.AuthDeps{
		Users:  env.Users,
		Tokens: env.Ledger,
		Issuer: env.Issuer,
		Hasher: Hasher(),
		Events: env.Events,
	}
	for _, o := range opts {
		o(&deps)
	}
	env.Auth = service.NewAuthService(deps)
	env.User = service.NewUserService(deps)

	env.Teams = NewMemTeams(env.Users)
	env.Tasks = NewMemTasks(env.Teams)
	env.Notes = &MemNotifications{}
	work := service.WorkDeps{Tasks: env.Tasks, Teams: env.Teams, Notes: env.Notes, Users: env.Users, Now: deps.Now}
	env.Task = service.NewTaskService(work)
	env.Team = service.NewTeamService(work)

	env.Echo = router.New(router.Options{
		Auth:          handler.NewAuthHandler(env.Auth),
		Users:         handler.NewUserHandler(env.User),
		Profile:       handler.NewProfileHandler(env.Auth, env.User),
		Tasks:         handler.NewTaskHandler(env.Task),
		Teams:         handler.NewTeamHandler(env.Team),
		Notifications: handler.NewNotificationHandler(service.NewNotificationService(env.Notes)),
		Verifier:      env.Issuer,
	})
	env.Server = httptest.NewServer(env.Echo)
	t.Cleanup(env.Server.Close)
	return env
}
