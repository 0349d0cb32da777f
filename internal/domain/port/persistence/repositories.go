package persistence

import (
	"context"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
)

// UserRepository stores user balances
type UserRepository interface {
	// GetOrCreate returns the user for token, materializing it with a zero balance if unknown.
	// Inside a transaction the user stays locked until commit or rollback.
	GetOrCreate(ctx context.Context, token string) (*entity.User, error)

	Save(ctx context.Context, user *entity.User) error

	// List returns every user, ordered by token
	List(ctx context.Context) ([]*entity.User, error)
}

// RedemptionCodeRepository stores redemption codes keyed by their normalized form
type RedemptionCodeRepository interface {
	// GetForUpdate locks and returns the code, or ErrCodeNotFound
	GetForUpdate(ctx context.Context, code string) (*entity.RedemptionCode, error)

	// Create inserts a new code, or fails with ErrDuplicateCode
	Create(ctx context.Context, code *entity.RedemptionCode) error

	Save(ctx context.Context, code *entity.RedemptionCode) error

	List(ctx context.Context) ([]*entity.RedemptionCode, error)
}

// SpinCounterRepository holds the global spin sequence
type SpinCounterRepository interface {
	// Next increments the counter and returns the new value
	Next(ctx context.Context) (uint64, error)

	Current(ctx context.Context) (uint64, error)

	// AdvanceTo raises the counter to value; lower values are ignored
	AdvanceTo(ctx context.Context, value uint64) error
}

// SpinRepository is the append-only spin history
type SpinRepository interface {
	Append(ctx context.Context, spin *entity.Spin) error

	// ListByUser returns up to limit spins of the user, newest first
	ListByUser(ctx context.Context, token string, limit int) ([]*entity.Spin, error)

	// List returns the whole history ordered by sequence id
	List(ctx context.Context) ([]*entity.Spin, error)
}
