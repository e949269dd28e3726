package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
	"github.com/ternarybob/kabegami/internal/handlers"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
	"github.com/ternarybob/kabegami/internal/services/cache"
	"github.com/ternarybob/kabegami/internal/services/catalog"
	"github.com/ternarybob/kabegami/internal/services/events"
	"github.com/ternarybob/kabegami/internal/services/favorites"
	"github.com/ternarybob/kabegami/internal/services/history"
	"github.com/ternarybob/kabegami/internal/services/rotation"
	"github.com/ternarybob/kabegami/internal/services/scheduler"
	"github.com/ternarybob/kabegami/internal/services/selector"
	"github.com/ternarybob/kabegami/internal/services/settings"
	"github.com/ternarybob/kabegami/internal/services/wallpaper"
	"github.com/ternarybob/kabegami/internal/storage/badger"
)

const (
	// CatalogRefreshJobName identifies the optional periodic catalog refresh
	CatalogRefreshJobName = "catalog_refresh"

	startupRefreshTimeout = 30 * time.Second
	shutdownJobTimeout    = 10 * time.Second
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService *events.Service

	// Rotation pipeline
	CatalogService   *catalog.Service
	CacheManager     *cache.Manager
	History          *history.Ledger
	Favorites        *favorites.Store
	SettingsService  *settings.Service
	Orchestrator     *rotation.Orchestrator
	SchedulerService *scheduler.Service

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	StatusHandler    *handlers.StatusHandler
	RotationHandler  *handlers.RotationHandler
	CatalogHandler   *handlers.CatalogHandler
	HistoryHandler   *handlers.HistoryHandler
	FavoritesHandler *handlers.FavoritesHandler
	SettingsHandler  *handlers.SettingsHandler
	SchedulerHandler *handlers.SchedulerHandler
	CacheHandler     *handlers.CacheHandler
	WSHandler        *handlers.WebSocketHandler
}

// New initializes the application with all dependencies. Nothing is
// fetched or applied until Start.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDirectories(); err != nil {
		return nil, err
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.EventService = events.NewService(app.Logger)

	if err := app.initServices(); err != nil {
		app.StorageManager.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("setter", app.Orchestrator.SetterName()).
		Str("cache", app.CacheManager.Root()).
		Msg("Application initialization complete")

	return app, nil
}

// initDirectories creates the data root and the cache directory
func (a *App) initDirectories() error {
	for _, dir := range []string{a.Config.Paths.Root, a.Config.Paths.Cache} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
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

// initServices builds the rotation pipeline bottom-up
func (a *App) initServices() error {
	var err error

	// Subscribers first so nothing published during startup is missed
	if err := events.SubscribeLoggerToAllEvents(a.EventService, a.Logger); err != nil {
		return fmt.Errorf("failed to subscribe event logger: %w", err)
	}
	if err := events.SubscribeStateRecorder(a.EventService, a.StorageManager.StateStorage(), a.Logger); err != nil {
		return fmt.Errorf("failed to subscribe state recorder: %w", err)
	}

	// 1. History (legacy migration runs once, before the ledger loads)
	if _, err := history.MigrateLegacy(a.Config.Paths.History, a.Config.Paths.LegacyHistory, nil, a.Logger); err != nil {
		a.Logger.Warn().Err(err).Msg("Legacy history migration failed, continuing with current ledger")
	}
	a.History, err = history.NewLedger(a.Config.Paths.History, a.Config.Paths.Cache, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	// 2. Favorites and live settings
	a.Favorites = favorites.NewStore(a.Config.Paths.Favorites, a.Logger)

	a.SettingsService, err = settings.NewService(
		a.Config.Paths.Settings,
		settings.FromConfig(a.Config.Rotation),
		a.EventService,
		a.Logger,
	)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if err := a.History.TrimToMax(a.SettingsService.Current().HistoryMaxEntries); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to trim history at startup")
	}

	// 3. Catalog
	client := catalog.NewClient(
		a.Config.Catalog.BaseURL,
		catalog.WithTimeout(a.Config.CatalogRequestTimeout()),
		catalog.WithRateLimit(a.Config.Catalog.RateLimit),
		catalog.WithLogger(a.Logger),
	)
	a.CatalogService = catalog.NewService(client, a.StorageManager.CatalogStorage(), a.EventService, a.Logger)

	// 4. Cache and setter
	a.CacheManager, err = cache.NewManager(a.Config.Paths.Cache, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create cache manager: %w", err)
	}

	setter := wallpaper.NewSetter(a.Config.Wallpaper, a.Logger)
	if setter == nil {
		a.Logger.Warn().Msg("No wallpaper setter available on this host, rotations will be recorded as not supported")
	}

	// 5. Orchestrator and scheduler
	a.Orchestrator = rotation.NewOrchestrator(
		a.CatalogService,
		selector.New(),
		a.CacheManager,
		a.History,
		a.Favorites,
		setter,
		a.EventService,
		a.Logger,
	)

	a.SchedulerService = scheduler.NewService(
		a.Orchestrator,
		a.SettingsService,
		a.Config.RotationTickTimeout(),
		a.Logger,
	)

	if err := a.EventService.Subscribe(interfaces.EventSettingsChanged, a.onSettingsChanged); err != nil {
		return fmt.Errorf("failed to subscribe scheduler to settings changes: %w", err)
	}

	return nil
}

// initHandlers creates the HTTP handlers
func (a *App) initHandlers() {
	state := a.StorageManager.StateStorage()

	a.APIHandler = handlers.NewAPIHandler(a.CatalogService, a.Orchestrator, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(state, a.SchedulerService, a.CatalogService, a.Orchestrator, a.Logger)
	a.RotationHandler = handlers.NewRotationHandler(a.Orchestrator, a.SettingsService, a.Logger)
	a.CatalogHandler = handlers.NewCatalogHandler(a.CatalogService, a.Logger)
	a.HistoryHandler = handlers.NewHistoryHandler(a.History, a.Logger)
	a.FavoritesHandler = handlers.NewFavoritesHandler(a.Favorites, a.Logger)
	a.SettingsHandler = handlers.NewSettingsHandler(a.SettingsService, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService, a.Logger)
	a.CacheHandler = handlers.NewCacheHandler(a.CacheManager, a.Orchestrator, a.SettingsService, state, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, a.Logger, &a.Config.WebSocket)
}

// onSettingsChanged re-arms the rotation timer when the interval changed
func (a *App) onSettingsChanged(ctx context.Context, event interfaces.Event) error {
	return a.SchedulerService.UpdateInterval()
}

// loadCatalog restores the persisted snapshot, then tries a live refresh.
// A failed refresh keeps whatever snapshot was restored.
func (a *App) loadCatalog(ctx context.Context) {
	if count, err := a.CatalogService.LoadCached(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to restore cached catalog")
	} else if count > 0 {
		a.Logger.Info().Int("count", count).Msg("Catalog restored from storage")
	}

	refreshCtx, cancel := context.WithTimeout(ctx, startupRefreshTimeout)
	defer cancel()
	if _, err := a.CatalogService.Refresh(refreshCtx); err != nil {
		a.Logger.Warn().
			Err(err).
			Int("cached_items", len(a.CatalogService.Current())).
			Msg("Initial catalog refresh failed, using cached snapshot")
	}
}

// Start loads the catalog, applies the startup rotation when enabled, arms
// the rotation timer, and registers the optional catalog refresh job
func (a *App) Start(ctx context.Context) error {
	a.loadCatalog(ctx)

	current := a.SettingsService.Current()
	if current.RotateOnAppStart {
		result := a.Orchestrator.ApplyNextWithReason(ctx, current.Preferences(), models.ReasonStartup)
		a.Logger.Info().
			Str("outcome", string(result.Outcome)).
			Str("message", result.Message).
			Msg("Startup rotation finished")
	}

	// The timer runs regardless of autoRotateEnabled; ticks check it live
	if err := a.SchedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	if schedule := a.Config.Catalog.RefreshSchedule; schedule != "" {
		err := a.SchedulerService.RegisterJob(CatalogRefreshJobName, schedule, func() error {
			refreshCtx, cancel := context.WithTimeout(context.Background(), a.Config.CatalogRequestTimeout())
			defer cancel()
			_, err := a.CatalogService.Refresh(refreshCtx)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to register catalog refresh job: %w", err)
		}
	}

	return nil
}

// RotateOnce loads the catalog and applies one manual rotation without arming the timer
func (a *App) RotateOnce(ctx context.Context) models.RotationResult {
	a.loadCatalog(ctx)
	return a.Orchestrator.ApplyNextWithReason(ctx, a.SettingsService.Current().Preferences(), models.ReasonManual)
}

// Close stops the scheduler, disconnects clients, and closes storage
func (a *App) Close() error {
	if a.SchedulerService != nil {
		a.SchedulerService.Shutdown(shutdownJobTimeout)
		a.Logger.Info().Msg("Scheduler stopped")
	}

	if a.WSHandler != nil {
		a.WSHandler.Close()
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
