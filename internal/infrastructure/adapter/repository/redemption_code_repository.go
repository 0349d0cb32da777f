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

// RedemptionCodeRepository implements persistence.RedemptionCodeRepository using GORM
type RedemptionCodeRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewRedemptionCodeRepository creates a new RedemptionCodeRepository instance
func NewRedemptionCodeRepository(db *gorm.DB, logger coreport.Logger) *RedemptionCodeRepository {
	return &RedemptionCodeRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func codeToEntity(m *model.RedemptionCode) *entity.RedemptionCode {
	rc := &entity.RedemptionCode{
		Code:      m.Code,
		Amount:    m.Amount,
		Used:      m.Used,
		UsedAt:    m.UsedAt,
		CreatedAt: m.CreatedAt,
	}
	if m.UsedBy != nil {
		rc.UsedBy = *m.UsedBy
	}
	return rc
}

func codeToModel(rc *entity.RedemptionCode) *model.RedemptionCode {
	m := &model.RedemptionCode{
		Code:      entity.NormalizeCode(rc.Code),
		Amount:    rc.Amount,
		Used:      rc.Used,
		UsedAt:    rc.UsedAt,
		CreatedAt: rc.CreatedAt,
	}
	if rc.UsedBy != "" {
		usedBy := rc.UsedBy
		m.UsedBy = &usedBy
	}
	return m
}

// GetForUpdate locks the code row until the transaction ends
func (r *RedemptionCodeRepository) GetForUpdate(ctx context.Context, code string) (*entity.RedemptionCode, error) {
	var m model.RedemptionCode
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", entity.NormalizeCode(code)).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrCodeNotFound
		}
		return nil, wrap("lock code", err)
	}
	return codeToEntity(&m), nil
}

// Create inserts a code. ON CONFLICT DO NOTHING keeps a duplicate from aborting the surrounding transaction.
func (r *RedemptionCodeRepository) Create(ctx context.Context, code *entity.RedemptionCode) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(codeToModel(code))
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			return errs.ErrDuplicateCode
		}
		r.logger.Error("Failed to create code", map[string]any{
			"code":  code.Code,
			"error": result.Error.Error(),
		})
		return wrap("create code", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrDuplicateCode
	}
	return nil
}

// Save persists the redemption state of a code
func (r *RedemptionCodeRepository) Save(ctx context.Context, code *entity.RedemptionCode) error {
	m := codeToModel(code)
	result := r.db.WithContext(ctx).
		Model(&model.RedemptionCode{}).
		Where("code = ?", m.Code).
		Updates(map[string]any{
			"used":    m.Used,
			"used_by": m.UsedBy,
			"used_at": m.UsedAt,
		})
	if result.Error != nil {
		return wrap("save code", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrCodeNotFound
	}
	return nil
}

// List returns every code in creation order
func (r *RedemptionCodeRepository) List(ctx context.Context) ([]*entity.RedemptionCode, error) {
	var rows []model.RedemptionCode
	if err := r.db.WithContext(ctx).Order("created_at, code").Find(&rows).Error; err != nil {
		return nil, wrap("list codes", err)
	}

	codes := make([]*entity.RedemptionCode, 0, len(rows))
	for i := range rows {
		codes = append(codes, codeToEntity(&rows[i]))
	}
	return codes, nil
}
