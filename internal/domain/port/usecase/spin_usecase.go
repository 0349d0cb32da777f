package usecase

import (
	"context"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
)

// SpinUseCase resolves spins
type SpinUseCase interface {
	Spin(ctx context.Context, token string) (*entity.SpinResult, error)

	// History returns up to limit of the user's spins, newest first
	History(ctx context.Context, token string, limit int) ([]*entity.Spin, error)

	// Prizes returns the table spins draw from
	Prizes() *entity.PrizeTable
}
