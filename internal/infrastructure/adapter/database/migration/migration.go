package migration

import (
	"context"
	"errors"

	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// CurrentSchemaVersion represents the current database schema version
	CurrentSchemaVersion = "1.1.0"
)

// step upgrades the schema from the version it is keyed by
type step struct {
	from    string
	details string
	run     func(ctx context.Context, db *gorm.DB) error
}

// MigrationManager manages database migrations
type MigrationManager struct {
	db           *gorm.DB
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
	steps        []step
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *MigrationManager {
	return &MigrationManager{
		db:           db,
		logger:       logger,
		timeProvider: timeProvider,
		steps: []step{
			{from: "", details: "Base schema: users, redemption codes, spin counter", run: baseSchema},
			{from: "1.0.0", details: "Spin history", run: spinHistory},
		},
	}
}

// MigrateAll brings the schema to CurrentSchemaVersion
func (m *MigrationManager) MigrateAll(ctx context.Context) error {
	m.logger.Info("Starting database migrations", map[string]any{
		"target_version": CurrentSchemaVersion,
	})

	if err := m.db.WithContext(ctx).AutoMigrate(&model.MigrationVersion{}); err != nil {
		m.logger.Error("Failed to create migration version table", map[string]any{"error": err.Error()})
		return err
	}

	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		m.logger.Error("Failed to check current schema version", map[string]any{"error": err.Error()})
		return err
	}

	if currentVersion == CurrentSchemaVersion {
		m.logger.Info("Database already at target version, skipping migration", map[string]any{
			"version": currentVersion,
		})
		return nil
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		started := false
		for _, s := range m.steps {
			if !started && s.from != currentVersion {
				continue
			}
			started = true

			m.logger.Info("Applying migration", map[string]any{"from": s.from, "details": s.details})
			if err := s.run(ctx, tx); err != nil {
				return err
			}
		}
		if !started {
			return errors.New("unknown schema version " + currentVersion)
		}
		return m.setVersion(ctx, tx, CurrentSchemaVersion, "Migrated from "+versionLabel(currentVersion))
	})
	if err != nil {
		m.logger.Error("Database migration failed", map[string]any{
			"error":           err.Error(),
			"current_version": currentVersion,
			"target_version":  CurrentSchemaVersion,
		})
		return err
	}

	m.logger.Info("Database migrations completed successfully", map[string]any{
		"version": CurrentSchemaVersion,
	})
	return nil
}

// GetCurrentVersion gets the current migration version; an empty string means a fresh database
func (m *MigrationManager) GetCurrentVersion(ctx context.Context) (string, error) {
	var version model.MigrationVersion
	result := m.db.WithContext(ctx).Order("applied_at desc, id desc").First(&version)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}
	return version.Version, nil
}

func (m *MigrationManager) setVersion(ctx context.Context, tx *gorm.DB, version, details string) error {
	return tx.WithContext(ctx).Create(&model.MigrationVersion{
		Version:   version,
		AppliedAt: m.timeProvider.Now(),
		Details:   details,
	}).Error
}

func baseSchema(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&model.User{}, &model.RedemptionCode{}, &model.SpinCounter{}); err != nil {
		return err
	}

	// the counter row must exist before the first spin locks it
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.SpinCounter{ID: model.SpinCounterID, Value: 0}).Error
}

func spinHistory(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&model.Spin{}); err != nil {
		return err
	}
	return db.WithContext(ctx).
		Exec("CREATE INDEX IF NOT EXISTS idx_spins_user_token_sequence ON spins (user_token, sequence_id DESC)").Error
}

func versionLabel(v string) string {
	if v == "" {
		return "empty database"
	}
	return v
}
