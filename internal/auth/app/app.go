package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bni/bni/internal/auth/blob"
	httpapi "github.com/bni/bni/internal/auth/http"
	"github.com/bni/bni/internal/auth/service"
	"github.com/bni/bni/internal/auth/store"
	"github.com/bni/bni/internal/auth/store/drivers/postgres"
	"github.com/bni/bni/internal/auth/store/drivers/sqlite"
	"github.com/bni/bni/pkg/cryptox"
	"github.com/bni/bni/pkg/jwtx"
	"github.com/bni/bni/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	storage blob.Storage
	codec   *jwtx.Codec
	hasher  *cryptox.Hasher

	// Services
	authService    *service.AuthService
	gate           *service.Gate
	profileService *service.ProfileService
	fileService    *service.FileService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := context.Background()

	hasher, err := cryptox.NewHasher(cfg.PasswordScheme, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}
	app.hasher = hasher

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initStorage(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	codec, err := InitTokenCodec(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the fully wired router.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the configured store and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.StoreDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore("file:" + app.cfg.DatabaseFile + "?_pragma=journal_mode(WAL)")
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.StoreDriver)
	return nil
}

// initStorage selects the file storage backend
func (app *Application) initStorage(ctx context.Context) error {
	switch app.cfg.FileStorage {
	case StorageS3:
		st, err := blob.NewS3Storage(ctx, app.cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
		app.storage = st
		app.logger.Info("file storage ready", "backend", StorageS3, "bucket", app.cfg.S3.Bucket)
	default:
		st, err := blob.NewLocalStorage(app.cfg.UploadDir)
		if err != nil {
			return fmt.Errorf("failed to initialize local storage: %w", err)
		}
		app.storage = st
		app.logger.Info("file storage ready", "backend", StorageLocal, "dir", app.cfg.UploadDir)
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:  app.db,
		Codec:  app.codec,
		Hasher: app.hasher,
		Policy: service.LoginPolicy{RequireEmailMatch: app.cfg.RequireEmailMatch},
	}
	app.gate = &service.Gate{Codec: app.codec}
	app.profileService = &service.ProfileService{Store: app.db}
	app.fileService = &service.FileService{Storage: app.storage}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		app.cfg.RateLimits,
		BuildVersion,
		app.db,
		app.storage,
		app.logger,
	)

	router.AuthService = app.authService
	router.Gate = app.gate
	router.ProfileService = app.profileService
	router.FileService = app.fileService
	router.MaxUploadBytes = app.cfg.MaxUploadBytes
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
