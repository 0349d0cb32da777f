package database

import (
	"context"
	"fmt"

	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/database/migration"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Manager owns the database connection, its schema and the pool monitor
type Manager struct {
	config          Config
	db              *gorm.DB
	logger          coreport.Logger
	timeProvider    coreport.TimeProvider
	errorClassifier *repository.ErrorClassifier
	poolMonitor     *PoolMonitor
}

// NewManager creates a new database manager
func NewManager(config Config, logger coreport.Logger, timeProvider coreport.TimeProvider) *Manager {
	return &Manager{
		config:          config,
		logger:          logger,
		timeProvider:    timeProvider,
		errorClassifier: repository.NewErrorClassifier(),
	}
}

// Connect opens a PostgreSQL connection, retrying while the server is unreachable
func (m *Manager) Connect(ctx context.Context) error {
	if err := m.config.Validate(); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}

	m.logger.Info("Connecting to database", map[string]any{
		"host": m.config.Host,
		"port": m.config.Port,
		"name": m.config.Database,
	})

	retry := DefaultRetryConfig()
	retry.MaxRetries = m.config.RetryAttempts
	if m.config.RetryDelay > 0 {
		retry.RetryInterval = m.config.RetryDelay
	}

	err := RetryOnTransientError(ctx, retry, func() error {
		return m.Open(postgres.Open(m.config.DSN()))
	}, m.errorClassifier.IsConnectionError, m.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(m.config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(m.config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(m.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(m.config.ConnMaxIdleTime)

	m.poolMonitor = NewPoolMonitor(sqlDB.Stats, m.logger, m.timeProvider)
	m.poolMonitor.Start(m.config.MonitorInterval)

	m.logger.Info("Successfully connected to database", map[string]any{
		"host":           m.config.Host,
		"name":           m.config.Database,
		"max_open_conns": m.config.MaxOpenConns,
		"max_idle_conns": m.config.MaxIdleConns,
	})
	return nil
}

// Open attaches the manager to a GORM dialector
func (m *Manager) Open(dialector gorm.Dialector) error {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 NewDatabaseLogger(m.logger, m.timeProvider, m.config.LogLevel, m.config.SlowThreshold),
		NowFunc:                m.timeProvider.Now,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return err
	}
	m.db = db
	return nil
}

// Migrate brings the schema to the current version
func (m *Manager) Migrate(ctx context.Context) error {
	return migration.NewMigrationManager(m.db, m.logger, m.timeProvider).MigrateAll(ctx)
}

// Ping checks that the database answers
func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// DB returns the GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// PoolStats returns the latest connection pool sample
func (m *Manager) PoolStats() PoolStats {
	if m.poolMonitor == nil {
		return PoolStats{}
	}
	return m.poolMonitor.Last()
}

// HealthDetails describes the database for the health endpoint
func (m *Manager) HealthDetails() map[string]any {
	stats := m.PoolStats()
	return map[string]any{
		"driver":     "postgres",
		"pool":       stats,
		"saturation": stats.Saturation(),
	}
}

// CreateUnitOfWork creates a new UnitOfWork instance
func (m *Manager) CreateUnitOfWork() *UnitOfWork {
	return NewUnitOfWork(m.db, m.logger, m.timeProvider)
}

// Close stops the pool monitor and closes the connection
func (m *Manager) Close() error {
	m.logger.Info("Closing database connection", nil)

	if m.poolMonitor != nil {
		m.poolMonitor.Stop()
	}
	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}
