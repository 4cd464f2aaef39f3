package setup

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/nanikabot/nanika/internal/bot/cooldown"
	"github.com/nanikabot/nanika/internal/database"
	"github.com/nanikabot/nanika/internal/database/dbretry"
	"github.com/nanikabot/nanika/internal/database/migrations"
	"github.com/nanikabot/nanika/internal/fetcher"
	"github.com/nanikabot/nanika/internal/i10n"
	"github.com/nanikabot/nanika/internal/redis"
	"github.com/nanikabot/nanika/internal/setup/config"
	"github.com/nanikabot/nanika/internal/setup/telemetry"
	"github.com/nanikabot/nanika/locales"
	"go.uber.org/zap"
)

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config     // Application configuration
	ConfigDir    string             // Directory the configuration was read from
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Database connection pool
	RedisManager *redis.Manager     // Redis connection manager
	Limiter      *cooldown.Limiter  // Command cooldown counters
	Translator   *i10n.Translator   // Reply translations
	Urban        *fetcher.Urban     // Urban Dictionary client
	Docs         *fetcher.Docs      // Documentation inventory client
	LogManager   *telemetry.Manager // Log management system
	pprofServer  *pprofServer       // Debug HTTP server for pprof
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string) (*App, error) {
	// Load app configuration
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager, err := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug, &cfg.Common.Sentry)
	if err != nil {
		return nil, err
	}

	logManager.EnableTracing(&cfg.Common.Uptrace)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		logManager.Stop()
		return nil, err
	}

	logger.Info("Loaded configuration", zap.String("dir", configDir))

	dbretry.Configure(&cfg.Common.Retry)

	// Redis manager provides connection pools for various subsystems
	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	cooldownClient, err := redisManager.GetClient(redis.CooldownDBIndex)
	if err != nil {
		redisManager.Close()
		logManager.Stop()
		return nil, err
	}

	// Initialize database with migration check
	db, err := checkAndRunMigrations(ctx, cfg, dbLogger)
	if err != nil {
		redisManager.Close()
		logManager.Stop()
		return nil, err
	}

	translator, err := loadTranslator(&cfg.Bot.Locale, logger)
	if err != nil {
		_ = db.Close()
		redisManager.Close()
		logManager.Stop()
		return nil, err
	}

	cacheClient, err := redisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		_ = db.Close()
		redisManager.Close()
		logManager.Stop()
		return nil, err
	}

	urban := fetcher.NewUrban(
		&http.Client{Timeout: cfg.Bot.Timeout()},
		&cfg.Bot.UrbanDictionary,
		logger,
		fetcher.WithResponseCache(cacheClient, time.Duration(cfg.Bot.UrbanDictionary.CacheTTL)*time.Second),
	)

	docs := fetcher.NewDocs(&http.Client{Timeout: cfg.Bot.Timeout()}, &cfg.Bot.Docs, logger)

	// Start pprof server if enabled
	var pprofSrv *pprofServer

	if cfg.Common.Debug.EnablePprof {
		srv, err := startPprofServer(cfg.Common.Debug.PprofPort, logger)
		if err != nil {
			logger.Error("Failed to start pprof server", zap.Error(err))
		} else {
			pprofSrv = srv

			logger.Warn("pprof debugging endpoint enabled - this should not be used in production!")
		}
	}

	// Bundle all initialized components
	return &App{
		Config:       cfg,
		ConfigDir:    configDir,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		RedisManager: redisManager,
		Limiter:      cooldown.New(cooldownClient, logger),
		Translator:   translator,
		Urban:        urban,
		Docs:         docs,
		LogManager:   logManager,
		pprofServer:  pprofSrv,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup(ctx context.Context) {
	// Shutdown pprof server if running
	if s.pprofServer != nil {
		if err := s.pprofServer.srv.Shutdown(ctx); err != nil {
			s.Logger.Error("Failed to shutdown pprof server", zap.Error(err))
		}

		s.pprofServer.listener.Close()
	}

	// Close database connections
	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Close Redis connections after everything that might still count cooldowns
	s.RedisManager.Close()

	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	// Stop telemetry manager last to flush Sentry events
	s.LogManager.Stop()
}

// loadTranslator reads translations from the configured directory, or the
// bundled ones when none is set.
func loadTranslator(cfg *config.Locale, logger *zap.Logger) (*i10n.Translator, error) {
	var fsys fs.FS = locales.FS
	if cfg.Directory != "" {
		fsys = os.DirFS(cfg.Directory)
	}

	native := cfg.Native
	if native == "" {
		native = locales.Native
	}

	translator, err := i10n.Load(fsys, native, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	logger.Info("Loaded translations",
		zap.String("native", translator.Native().String()),
		zap.Int("locales", len(translator.Locales())))

	return translator, nil
}

// checkAndRunMigrations connects to the database and offers to run pending
// migrations.
func checkAndRunMigrations(ctx context.Context, cfg *config.Config, dbLogger *zap.Logger) (database.Client, error) {
	opts := database.Options{DefaultPrefixes: cfg.Bot.Prefixes.Defaults}

	db, err := database.NewConnection(ctx, &cfg.Common.PostgreSQL, dbLogger, opts)
	if err != nil {
		return nil, err
	}

	migrator := migrations.NewMigrator(db.DB())
	if err := migrator.Init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	unapplied := ms.Unapplied()
	if len(unapplied) == 0 {
		return db, nil
	}

	log.Printf("%d database migrations are pending. Would you like to run them now? (y/N)", len(unapplied))

	var response string

	_, _ = fmt.Scanln(&response)

	if response != "y" && response != "Y" {
		_ = db.Close()
		return nil, ErrMigrationsPending
	}

	if err := database.Migrate(ctx, db.DB(), dbLogger); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
