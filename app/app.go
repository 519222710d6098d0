package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
	"golang.org/x/sync/errgroup"

	"github.com/gatekeeperhq/gatekeeper/config"
	"github.com/gatekeeperhq/gatekeeper/controllers"
	"github.com/gatekeeperhq/gatekeeper/middleware"
	"github.com/gatekeeperhq/gatekeeper/models"
	"github.com/gatekeeperhq/gatekeeper/services"
	"github.com/gatekeeperhq/gatekeeper/utils"
	"github.com/gatekeeperhq/gatekeeper/version"
)

// GatekeeperApp represents the core application structure for the token
// verification service.
type GatekeeperApp struct {
	cfg    *config.Config
	router *gin.Engine

	tokenController controllers.TokenController

	httpServer *http.Server
}

// NewApp creates a new instance of the application.
func NewApp(cfg *config.Config) (*GatekeeperApp, error) {
	return &GatekeeperApp{cfg: cfg}, nil
}

// setup initializes the application components.
func (app *GatekeeperApp) setup() error {
	if app.cfg.Analytics.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              app.cfg.Analytics.Sentry.DSN,
			EnableTracing:    app.cfg.Analytics.Sentry.EnableTracing,
			TracesSampleRate: app.cfg.Analytics.Sentry.TracesSampleRate,
			Release:          "gatekeeper@" + version.Version,
			Environment:      app.cfg.Analytics.Sentry.Environment,
			Debug:            app.cfg.Analytics.Sentry.Debug,
			DebugWriter:      utils.NewSentrySlogWriter(slog.Default().WithGroup("sentry")),
		}); err != nil {
			slog.Warn("Sentry initialization failed", "error", err)
		}
	}

	models.ConnectDatabase(app.cfg.Database)

	app.tokenController = controllers.TokenController{
		Service: services.NewTokenService(models.DB),
	}

	app.router = app.createRouter()

	return nil
}

// createRouter sets up all routes and middleware for the application.
func (app *GatekeeperApp) createRouter() *gin.Engine {
	if app.cfg.Log.Level == slog.LevelDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sloggin.New(slog.Default().WithGroup("http")))
	r.Use(middleware.CORSMiddleware())

	if app.cfg.Analytics.Sentry.Enabled {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	app.setupRoutes(r)

	return r
}

// setupRoutes configures all application routes.
func (app *GatekeeperApp) setupRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    version.Version,
			"commit_sha": version.Meta,
		})
	})

	// Verification surface, open to any downstream consumer.
	r.POST("/verify-token", app.tokenController.VerifyToken)

	// Administrative surface behind the admin key gate.
	admin := r.Group("/admin")
	admin.Use(middleware.AdminKeyAuth(app.cfg.Auth.AdminKey))
	admin.POST("/tokens", app.tokenController.CreateToken)
	admin.DELETE("/tokens/:token", app.tokenController.RevokeToken)
	admin.GET("/tokens/usage", app.tokenController.TokenUsage)
}

// Serve starts the application server and blocks until shutdown.
func (app *GatekeeperApp) Serve() error {
	if err := app.setup(); err != nil {
		return fmt.Errorf("failed to set up application: %w", err)
	}

	slog.Info("Starting Gatekeeper API",
		"version", version.Version,
		"commit", version.Meta,
		"port", app.cfg.Server.Port)

	g := new(errgroup.Group)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listenAddr := fmt.Sprintf(":%d", app.cfg.Server.Port)
	app.httpServer = &http.Server{
		Addr:         listenAddr,
		Handler:      app.router,
		ReadTimeout:  app.cfg.Server.ReadTimeout,
		WriteTimeout: app.cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		slog.Info("Server starting", "address", listenAddr)
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		signalCh := make(chan os.Signal, 1)
		signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

		select {
		case sig := <-signalCh:
			slog.Info("Received signal", "signal", sig)
			cancel()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			slog.Info("Shutting down HTTP server...")
			if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server shutdown error", "error", err)
			}

			return nil
		case <-ctx.Done():
			return nil
		}
	})

	return g.Wait()
}
