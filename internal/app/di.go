// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/fileguard/internal/config"
	cryptoDomain "github.com/allisson/fileguard/internal/crypto/domain"
	cryptoService "github.com/allisson/fileguard/internal/crypto/service"
	"github.com/allisson/fileguard/internal/database"
	"github.com/allisson/fileguard/internal/http"
	"github.com/allisson/fileguard/internal/metrics"
	"github.com/allisson/fileguard/internal/storage"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger        *slog.Logger
	db            *sql.DB
	txManager     database.TxManager
	keeper        cryptoDomain.KMSKeeper
	objectStore   storage.ObjectStore
	secureDeleter *storage.SecureDeleter

	// Crypto
	envelopeEngine cryptoService.EnvelopeEngine

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	metricsServer   *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	keeperInit          sync.Once
	objectStoreInit     sync.Once
	secureDeleterInit   sync.Once
	envelopeEngineInit  sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	metricsServerInit   sync.Once
	pipeline            pipelineComponents
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
		slog.SetDefault(c.logger)
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB(ctx context.Context) (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(ctx, database.Config{
			Driver:             c.config.DBDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to connect to database: %w", err)
			return
		}
		c.db = db
	})
	if err, exists := c.initErrors["db"]; exists {
		return nil, err
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager(ctx context.Context) (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB(ctx)
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if err, exists := c.initErrors["txManager"]; exists {
		return nil, err
	}
	return c.txManager, nil
}

// KMSKeeper returns the master-key keeper, or nil when no KMS is configured.
// Without a keeper, envelope encryption requires a password for every file.
func (c *Container) KMSKeeper(ctx context.Context) (cryptoDomain.KMSKeeper, error) {
	c.keeperInit.Do(func() {
		if c.config.KMSKeyURI == "" {
			return
		}
		keeper, err := cryptoService.NewKMSService().OpenKeeper(ctx, c.config.KMSKeyURI)
		if err != nil {
			c.initErrors["keeper"] = fmt.Errorf("failed to open KMS keeper: %w", err)
			return
		}
		c.keeper = keeper
	})
	if err, exists := c.initErrors["keeper"]; exists {
		return nil, err
	}
	return c.keeper, nil
}

// EnvelopeEngine returns the envelope encryption engine.
func (c *Container) EnvelopeEngine(ctx context.Context) (cryptoService.EnvelopeEngine, error) {
	c.envelopeEngineInit.Do(func() {
		keeper, err := c.KMSKeeper(ctx)
		if err != nil {
			c.initErrors["envelopeEngine"] = fmt.Errorf("failed to get keeper for envelope engine: %w", err)
			return
		}
		c.envelopeEngine = cryptoService.NewEnvelopeService(
			cryptoService.NewAEADManager(),
			keeper,
			c.config.PBKDF2Iterations,
		)
	})
	if err, exists := c.initErrors["envelopeEngine"]; exists {
		return nil, err
	}
	return c.envelopeEngine, nil
}

// ObjectStore returns the encrypted payload store.
func (c *Container) ObjectStore(ctx context.Context) (storage.ObjectStore, error) {
	c.objectStoreInit.Do(func() {
		store, err := storage.NewObjectStore(ctx, c.config.StorageBucketURL)
		if err != nil {
			c.initErrors["objectStore"] = fmt.Errorf("failed to open object store: %w", err)
			return
		}
		c.objectStore = store
	})
	if err, exists := c.initErrors["objectStore"]; exists {
		return nil, err
	}
	return c.objectStore, nil
}

// SecureDeleter returns the local-artifact secure deleter.
func (c *Container) SecureDeleter() *storage.SecureDeleter {
	c.secureDeleterInit.Do(func() {
		c.secureDeleter = storage.NewSecureDeleter()
	})
	return c.secureDeleter
}

// MetricsProvider returns the metrics provider instance, or nil when metrics
// are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if err, exists := c.initErrors["metricsProvider"]; exists {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the pipeline metrics recorder. A no-op recorder is
// returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to get metrics provider: %w", err)
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = bm
	})
	if err, exists := c.initErrors["businessMetrics"]; exists {
		return nil, err
	}
	return c.businessMetrics, nil
}

// MetricsServer returns the metrics HTTP server instance.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = fmt.Errorf("failed to get metrics provider: %w", err)
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.MetricsHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err, exists := c.initErrors["metricsServer"]; exists {
		return nil, err
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.objectStore != nil {
		if err := c.objectStore.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("object store close: %w", err))
		}
	}

	if c.keeper != nil {
		if err := c.keeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("kms keeper close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
