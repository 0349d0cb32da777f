package usecase

import (
	"context"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
)

// RedemptionUseCase manages single-use codes
type RedemptionUseCase interface {
	// Claim marks code used and credits its amount to token in one unit of work
	Claim(ctx context.Context, token, code string) (*entity.RedemptionResult, error)

	// CreateCode registers a new unused code without authorization. Operator tooling uses it directly.
	CreateCode(ctx context.Context, code string, amount int64) (*entity.RedemptionCode, error)

	// AddCode registers a new code after checking the administrative secret
	AddCode(ctx context.Context, secret, code string, amount int64) (*entity.RedemptionCode, error)
}
