package repository

import (
	"context"
	"errors"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// SpinCounterRepository keeps the global sequence in the single spin_counter row
type SpinCounterRepository struct {
	db *gorm.DB
}

// NewSpinCounterRepository creates a new SpinCounterRepository instance
func NewSpinCounterRepository(db *gorm.DB) *SpinCounterRepository {
	return &SpinCounterRepository{db: db}
}

// Next increments the counter. The UPDATE row lock serializes concurrent callers until commit.
func (r *SpinCounterRepository) Next(ctx context.Context) (uint64, error) {
	var value uint64
	result := r.db.WithContext(ctx).
		Raw("UPDATE spin_counter SET value = value + 1 WHERE id = ? RETURNING value", model.SpinCounterID).
		Scan(&value)
	if result.Error != nil {
		return 0, wrap("next spin id", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, wrap("next spin id", errors.New("spin counter row missing"))
	}
	return value, nil
}

// Current reads the counter without changing it
func (r *SpinCounterRepository) Current(ctx context.Context) (uint64, error) {
	var c model.SpinCounter
	err := r.db.WithContext(ctx).Where("id = ?", model.SpinCounterID).Take(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, wrap("read spin counter", err)
	}
	return c.Value, nil
}

// AdvanceTo raises the counter to value when it is lower
func (r *SpinCounterRepository) AdvanceTo(ctx context.Context, value uint64) error {
	err := r.db.WithContext(ctx).
		Exec("UPDATE spin_counter SET value = ? WHERE id = ? AND value < ?", value, model.SpinCounterID, value).Error
	return wrap("advance spin counter", err)
}

// SpinRepository implements the append-only spin history using GORM
type SpinRepository struct {
	db *gorm.DB
}

// NewSpinRepository creates a new SpinRepository instance
func NewSpinRepository(db *gorm.DB) *SpinRepository {
	return &SpinRepository{db: db}
}

func spinToEntity(m *model.Spin) *entity.Spin {
	return &entity.Spin{
		SequenceID: m.SequenceID,
		UserToken:  m.UserToken,
		PrizeName:  m.PrizeName,
		CreatedAt:  m.CreatedAt,
	}
}

// Append records a resolved spin
func (r *SpinRepository) Append(ctx context.Context, spin *entity.Spin) error {
	err := r.db.WithContext(ctx).Create(&model.Spin{
		SequenceID: spin.SequenceID,
		UserToken:  spin.UserToken,
		PrizeName:  spin.PrizeName,
		CreatedAt:  spin.CreatedAt,
	}).Error
	return wrap("append spin", err)
}

// ListByUser returns the user's latest spins first
func (r *SpinRepository) ListByUser(ctx context.Context, token string, limit int) ([]*entity.Spin, error) {
	var rows []model.Spin
	err := r.db.WithContext(ctx).
		Where("user_token = ?", token).
		Order("sequence_id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, wrap("list user spins", err)
	}
	return spinsToEntities(rows), nil
}

// List returns the full history in sequence order
func (r *SpinRepository) List(ctx context.Context) ([]*entity.Spin, error) {
	var rows []model.Spin
	if err := r.db.WithContext(ctx).Order("sequence_id").Find(&rows).Error; err != nil {
		return nil, wrap("list spins", err)
	}
	return spinsToEntities(rows), nil
}

func spinsToEntities(rows []model.Spin) []*entity.Spin {
	spins := make([]*entity.Spin, 0, len(rows))
	for i := range rows {
		spins = append(spins, spinToEntity(&rows[i]))
	}
	return spins
}
