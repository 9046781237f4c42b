package router

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/taskflow/internal/handler"
	"github.com/iliyamo/taskflow/internal/metrics"
	"github.com/iliyamo/taskflow/internal/middleware"
)

// Options carries everything New needs to assemble the HTTP server.
// Metrics and RateLimit are optional, as are the task, team and
// notification handlers; their routes are mounted only when set.
type Options struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Profile       *handler.ProfileHandler
	Tasks         *handler.TaskHandler
	Teams         *handler.TeamHandler
	Notifications *handler.NotificationHandler
	Verifier      middleware.AccessVerifier
	Metrics       *metrics.Metrics
	RateLimit     echo.MiddlewareFunc
	CORSOrigin    string
	Debug         bool
	AccessLog     bool
}

// New builds an echo instance with the shared middleware chain, the
// terminal error handler and every route.
func New(o Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = o.Debug
	e.HTTPErrorHandler = handler.ErrorHandler
	if o.Debug {
		e.Logger.SetLevel(log.DEBUG)
	} else {
		e.Logger.SetLevel(log.INFO)
	}

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	if o.AccessLog {
		e.Use(requestLogger())
	}
	if o.Metrics != nil {
		e.Use(o.Metrics.Middleware())
	}
	e.Use(echomw.SecureWithConfig(echomw.SecureConfig{
		XSSProtection:      "0",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         15552000,
		ReferrerPolicy:     "no-referrer",
	}))
	if o.CORSOrigin != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     splitOrigins(o.CORSOrigin),
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
			AllowCredentials: true,
		}))
	}
	e.Use(echomw.BodyLimit("1M"))

	RegisterRoutes(e, o.Metrics)
	RegisterAuth(e, o.Auth, o.Verifier, o.RateLimit)
	RegisterUsers(e, o.Users, o.Profile, o.Verifier)
	RegisterProfile(e, o.Profile, o.Verifier)
	if o.Tasks != nil {
		RegisterTasks(e, o.Tasks, o.Verifier)
	}
	if o.Teams != nil {
		RegisterTeams(e, o.Teams, o.Verifier)
	}
	if o.Notifications != nil {
		RegisterNotifications(e, o.Notifications, o.Verifier)
	}
	return e
}

// requestLogger writes one access line per request through the echo logger.
// Authorization headers and bodies are never logged.
func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			c.Logger().Infof("%s %s %d %s rid=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	})
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
