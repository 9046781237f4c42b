package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	glog "github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/iliyamo/taskflow/internal/config"
	"github.com/iliyamo/taskflow/internal/database"
	"github.com/iliyamo/taskflow/internal/handler"
	"github.com/iliyamo/taskflow/internal/metrics"
	"github.com/iliyamo/taskflow/internal/middleware"
	"github.com/iliyamo/taskflow/internal/queue"
	"github.com/iliyamo/taskflow/internal/repository"
	"github.com/iliyamo/taskflow/internal/router"
	"github.com/iliyamo/taskflow/internal/service"
	"github.com/iliyamo/taskflow/internal/utils"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply the schema before serving")

	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	issuer, err := utils.NewTokenIssuer(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = service.NewAMQPPublisher(cfg.RabbitURL, glog.New("events"))
		go func() {
			if err := queue.StartAuditConsumer(ctx, cfg.RabbitURL); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("audit consumer stopped: %v", err)
			}
		}()
	}

	users := repository.NewUserRepo(db)
	deps := service.AuthDeps{
		Users:         users,
		Tokens:        repository.NewTokenRepo(db),
		Issuer:        issuer,
		Hasher:        utils.NewHasher(cfg.BcryptCost),
		Events:        events,
		Metrics:       m,
		RotateRefresh: cfg.RefreshRotate,
	}
	authSvc := service.NewAuthService(deps)
	userSvc := service.NewUserService(deps)

	work := service.WorkDeps{
		Tasks:  repository.NewTaskRepo(db),
		Teams:  repository.NewTeamRepo(db),
		Notes:  repository.NewNotificationRepo(db),
		Users:  users,
		Logger: glog.New("notify"),
	}

	// Redis is optional; without it the auth endpoints are not rate limited.
	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Printf("redis unavailable, rate limiting disabled")
	}

	e := router.New(router.Options{
		Auth:          handler.NewAuthHandler(authSvc),
		Users:         handler.NewUserHandler(userSvc),
		Profile:       handler.NewProfileHandler(authSvc, userSvc),
		Tasks:         handler.NewTaskHandler(service.NewTaskService(work)),
		Teams:         handler.NewTeamHandler(service.NewTeamService(work)),
		Notifications: handler.NewNotificationHandler(service.NewNotificationService(work.Notes)),
		Verifier:      issuer,
		Metrics:       m,
		RateLimit:     middleware.RateLimit(config.LoadRateLimitConfig(), rdb),
		CORSOrigin:    cfg.CORSOrigin,
		Debug:         cfg.Env == "dev",
		AccessLog:     true,
	})

	if cfg.SweepInterval > 0 {
		go sweepExpired(ctx, authSvc, cfg.SweepInterval, e.Logger)
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		e.Logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// sweepExpired periodically deletes expired ledger rows until ctx ends.
func sweepExpired(ctx context.Context, a *service.AuthService, every time.Duration, logger echo.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := a.PruneExpired(ctx)
			if err != nil {
				logger.Warnf("refresh token sweep failed: %v", err)
				continue
			}
			if n > 0 {
				logger.Infof("refresh token sweep removed %d rows", n)
			}
		}
	}
}
