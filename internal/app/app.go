package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/artyrk/filebox/internal/config"
	"github.com/artyrk/filebox/internal/db"
	"github.com/artyrk/filebox/internal/expiration"
	"github.com/artyrk/filebox/internal/handler"
	middie "github.com/artyrk/filebox/internal/middleware"
	"github.com/artyrk/filebox/internal/storage"
)

// App represents the application
type App struct {
	server  *echo.Echo
	sweeper *expiration.Sweeper
	config  *config.Config
	db      *db.DB
}

// New creates a new application instance from on-disk configuration
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a new application instance from the given config
func NewWithConfig(cfg *config.Config) (*App, error) {
	if err := setup(cfg); err != nil {
		return nil, err
	}

	database, err := db.NewDB(cfg)
	if err != nil {
		return nil, err
	}

	store := storage.NewStore(cfg, database)
	sweeper := expiration.NewSweeper(cfg, database)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = 10 * time.Minute
	e.Server.WriteTimeout = 10 * time.Minute
	e.Server.IdleTimeout = 15 * time.Minute
	e.Server.ReadHeaderTimeout = 30 * time.Second

	app := &App{
		server:  e,
		sweeper: sweeper,
		config:  cfg,
		db:      database,
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middie.SecurityHeaders())

	registerRoutes(e, app, store)
	return app, nil
}

// Start starts the application
func (a *App) Start() {
	a.sweeper.Start()

	serverAddr := fmt.Sprintf(":%d", a.config.Port)

	go func() {
		if err := a.server.Start(serverAddr); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	log.Printf("Server started on %s", serverAddr)
}

// Stop stops all application services
func (a *App) Stop() {
	a.sweeper.Stop()
	if err := a.db.Close(); err != nil {
		log.Printf("Warning: Failed to close database: %v", err)
	}
}

// Shutdown gracefully shuts down the server
func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// setup ensures all necessary directories exist
func setup(cfg *config.Config) error {
	return os.MkdirAll(cfg.UploadPath, 0o755)
}

// registerRoutes registers all HTTP routes
func registerRoutes(e *echo.Echo, app *App, store *storage.Store) {
	e.Use(middleware.BodyLimit(
		fmt.Sprintf("%dM", int(app.config.MaxSize)),
	))
	h := handler.NewHandler(store, app.config)

	e.GET("/", h.HandleHome)
	e.POST("/upload", h.HandleUpload)

	e.GET("/api/admin/files", h.HandleAdminList)
	e.DELETE("/api/admin/files/:id", h.HandleAdminDelete)

	if app.config.StaticPath != "" {
		e.Static("/static", app.config.StaticPath)
	}

	e.GET("/:code", h.HandleDownload)
}
