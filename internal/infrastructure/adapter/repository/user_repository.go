package repository

import (
	"context"
	"errors"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository implements persistence.UserRepository using GORM
type UserRepository struct {
	db           *gorm.DB
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *UserRepository {
	return &UserRepository{
		db:           db,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

func userToEntity(m *model.User) *entity.User {
	return entity.RestoreUser(m.Token, m.Balance, m.SpinCount, m.CreatedAt, m.UpdatedAt)
}

// GetOrCreate inserts the user if missing and returns the row locked FOR UPDATE
func (r *UserRepository) GetOrCreate(ctx context.Context, token string) (*entity.User, error) {
	if err := entity.ValidateToken(token); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now()
	insert := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.User{Token: token, CreatedAt: now, UpdatedAt: now})
	if insert.Error != nil {
		r.logger.Error("Failed to materialize user", map[string]any{
			"user":  errs.MaskToken(token),
			"error": insert.Error.Error(),
		})
		return nil, wrap("create user", insert.Error)
	}
	if insert.RowsAffected > 0 {
		r.logger.Debug("User materialized", map[string]any{"user": errs.MaskToken(token)})
	}

	var m model.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token = ?", token).
		Take(&m).Error
	if err != nil {
		return nil, wrap("lock user", err)
	}
	return userToEntity(&m), nil
}

// Save writes balance, spin count and update time
func (r *UserRepository) Save(ctx context.Context, user *entity.User) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("token = ?", user.Token).
		Updates(map[string]any{
			"balance":    user.Balance(),
			"spin_count": user.SpinCount,
			"updated_at": user.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Error("Failed to save user", map[string]any{
			"user":  errs.MaskToken(user.Token),
			"error": result.Error.Error(),
		})
		return wrap("save user", result.Error)
	}
	if result.RowsAffected == 0 {
		return wrap("save user", errors.New("user row missing"))
	}
	return nil
}

// List returns every user ordered by token
func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	var rows []model.User
	if err := r.db.WithContext(ctx).Order("token").Find(&rows).Error; err != nil {
		return nil, wrap("list users", err)
	}

	users := make([]*entity.User, 0, len(rows))
	for i := range rows {
		users = append(users, userToEntity(&rows[i]))
	}
	return users, nil
}
