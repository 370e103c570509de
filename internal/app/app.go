package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/lucivanservicos/ops-gestao/internal/common"
	"github.com/lucivanservicos/ops-gestao/internal/handlers"
	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
	"github.com/lucivanservicos/ops-gestao/internal/services/auth"
	"github.com/lucivanservicos/ops-gestao/internal/services/export"
	"github.com/lucivanservicos/ops-gestao/internal/services/kml"
	"github.com/lucivanservicos/ops-gestao/internal/services/locations"
	"github.com/lucivanservicos/ops-gestao/internal/services/pendencias"
	"github.com/lucivanservicos/ops-gestao/internal/services/reports"
	"github.com/lucivanservicos/ops-gestao/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	ctx            context.Context
	cancelCtx      context.CancelFunc
	StorageManager interfaces.StorageManager

	// Domain services
	AuthService      *auth.Service
	PendenciaService *pendencias.Service
	KMLService       *kml.Service
	LocationService  *locations.Service
	ReportService    *reports.Service
	ExportService    *export.Service

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	AuthHandler      *handlers.AuthHandler
	AdminHandler     *handlers.AdminHandler
	PendenciaHandler *handlers.PendenciaHandler
	KMLHandler       *handlers.KMLHandler
	ReportHandler    *handlers.ReportHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}
	app.ctx, app.cancelCtx = context.WithCancel(context.Background())

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initServices()
	app.initHandlers()

	logger.Info().
		Str("environment", cfg.Environment).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices wires the domain services over the storage layer
func (a *App) initServices() {
	a.AuthService = auth.NewService(a.StorageManager.UserStorage(), &a.Config.Auth, a.Logger)
	a.PendenciaService = pendencias.NewService(a.StorageManager.PendenciaStorage(), a.StorageManager.FormConfigStorage(), a.Logger)
	a.KMLService = kml.NewService(a.StorageManager.KMLStorage(), a.Logger)
	a.LocationService = locations.NewService(a.StorageManager.KMLStorage(), a.StorageManager.ObservationStorage(), a.Logger)
	a.ReportService = reports.NewService(a.StorageManager.PendenciaStorage(), a.Logger)
	a.ExportService = export.NewService(a.StorageManager.PendenciaStorage(), a.Config.Export.MaxRows, a.Logger)
}

// initHandlers wires the HTTP handlers over the services
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.AuthHandler = handlers.NewAuthHandler(a.AuthService, a.Logger)
	a.AdminHandler = handlers.NewAdminHandler(a.AuthService, a.PendenciaService, a.Logger)
	a.PendenciaHandler = handlers.NewPendenciaHandler(a.PendenciaService, a.ExportService, a.Logger)
	a.KMLHandler = handlers.NewKMLHandler(a.KMLService, a.LocationService, a.Logger)
	a.ReportHandler = handlers.NewReportHandler(a.ReportService, a.Logger)
}

// Context returns the application's root context
func (a *App) Context() context.Context {
	return a.ctx
}

// Close shuts down application components in reverse initialization order
func (a *App) Close() error {
	a.cancelCtx()

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage manager")
			return err
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return nil
}
