// Package server initializes and runs the publishing server. It opens the
// database, applies migrations, wires account and post services with the
// configured publishing targets, and serves the HTTP API until shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/postbridge/postbridge/internal/logging"
	"github.com/postbridge/postbridge/internal/posts"
	"github.com/postbridge/postbridge/internal/publish"
	"github.com/postbridge/postbridge/internal/server/accounts"
	"github.com/postbridge/postbridge/internal/server/api"
	"github.com/postbridge/postbridge/internal/server/config"
	"github.com/postbridge/postbridge/internal/server/media"
	"github.com/postbridge/postbridge/internal/store"
	"github.com/postbridge/postbridge/internal/targets"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	store  *store.Manager
	router *gin.Engine
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	mgr, err := store.Open(c.DatabasePath, 0)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	// The server must not accept requests against an unmigrated schema.
	seed := accounts.DefaultAdmin(c.AdminUsername, c.AdminPassword)
	if err := store.NewMigrator(mgr, logger, store.Migrations(seed)).Run(context.Background()); err != nil {
		_ = mgr.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	registry, err := targets.NewRegistry(c.Targets)
	if err != nil {
		_ = mgr.Close()
		return nil, err
	}

	repo := posts.NewRepository(store.NewDocumentStore(mgr))
	accSvc := accounts.NewService(mgr, []byte(c.SecretKey),
		c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration, logger)
	mediaSvc := media.NewService(c)
	broadcaster := publish.NewBroadcaster(repo, registry, mediaSvc.ResolveURL, logger)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Deps{
		SecretKey:   []byte(c.SecretKey),
		Log:         logger,
		Store:       mgr,
		Accounts:    accSvc,
		Posts:       repo,
		Broadcaster: broadcaster,
		Media:       mediaSvc,
	})

	return &App{config: c, logger: logger, store: mgr, router: router}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.router,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, err.Error())
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.EndpointAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
