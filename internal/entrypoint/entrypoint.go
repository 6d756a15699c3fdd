// Package entrypoint wires configuration, storage, services and the HTTP
// router together and runs the server until it is signalled to stop.
package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	auditRepo "github.com/mrlokans/librarian/internal/database/audit"
	http_controllers "github.com/mrlokans/librarian/internal/http"
	"github.com/mrlokans/librarian/internal/logger"
	"github.com/mrlokans/librarian/internal/scheduler"
	"github.com/mrlokans/librarian/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App is a fully wired server that has not started listening yet.
type App struct {
	Router   *gin.Engine
	Shutdown ShutdownFunc
}

// Build opens the store and creates every service the router needs. The
// returned Shutdown releases them and must be called exactly once.
func Build(cfg *config.Config, version string) (*App, error) {
	if strings.EqualFold(cfg.Global.Environment, "production") {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewDatabase(cfg.Database, database.Options{Verbose: logger.IsDebug()})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	authService := auth.NewService(db.DB, cfg.Auth)
	authController := auth.NewAuthController(authService, auditService, cfg.Auth)

	if hasUsers, err := authService.HasUsers(); err == nil && !hasUsers {
		log.Warn().Msg("no users found, create one with the create-user command")
	}

	// Background work is optional: the API itself needs none.
	var (
		taskClient *tasks.Client
		pruner     *scheduler.AuditPruneScheduler
		cancelBg   context.CancelFunc = func() {}
	)
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(tasks.ConfigFrom(cfg))
		if err != nil {
			authController.Stop()
			db.Close()
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		taskClient.Register(tasks.NewPruneAuditQueue(auditService))

		var bgCtx context.Context
		bgCtx, cancelBg = context.WithCancel(context.Background())
		go taskClient.Start(bgCtx)

		pruner = scheduler.NewAuditPruneScheduler(taskClient, cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays)
		if err := pruner.Start(bgCtx); err != nil {
			log.Error().Err(err).Msg("audit prune scheduler not started")
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		Catalog:        catalog.NewService(db.DB, auditService),
		Audit:          auditService,
		AuthService:    authService,
		AuthController: authController,
		StrictStatus:   cfg.API.StrictStatus,
		ReadOnly:       cfg.API.ReadOnly,
		HSTS:           cfg.HTTP.TLSTerminated,
		Version:        version,
	})

	shutdown := func(ctx context.Context) {
		if pruner != nil {
			pruner.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
			if err := taskClient.Close(); err != nil {
				log.Error().Err(err).Msg("error closing task queue")
			}
		}
		cancelBg()

		authController.Stop()
		auditService.Wait()

		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("error closing database")
		}
	}

	return &App{Router: router, Shutdown: shutdown}, nil
}

// Serve listens until SIGINT or SIGTERM, then shuts the server down within
// the configured timeout and calls onShutdown.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			if onShutdown != nil {
				onShutdown(context.Background())
			}
			return fmt.Errorf("listen: %w", err)
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Dur("timeout", timeout).Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(ctx)

	// In-flight requests are done; release what they used.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info().Msg("server exiting")
	return nil
}

// Run builds the application and serves it. It exits the process on
// startup failure.
func Run(cfg *config.Config, version string) {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", version).Str("driver", string(cfg.Database.Driver)).Msg("starting librarian")

	app, err := Build(cfg, version)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}

	if err := Serve(app.Router, cfg, app.Shutdown); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}
