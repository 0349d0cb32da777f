package persistence

import (
	"context"
)

// UnitOfWork coordinates one atomic update across the user, code, counter and spin repositories.
// Repositories obtained from a transactional context see and change only that transaction's state.
type UnitOfWork interface {
	// Begin starts a new transaction and returns a transactional context
	Begin(ctx context.Context) (context.Context, error)

	// Commit makes every change of the transaction durable before returning
	Commit(ctx context.Context) error

	// Rollback discards the transaction. Calling it after Commit is a no-op.
	Rollback(ctx context.Context) error

	GetUserRepository(ctx context.Context) UserRepository
	GetRedemptionCodeRepository(ctx context.Context) RedemptionCodeRepository
	GetSpinCounterRepository(ctx context.Context) SpinCounterRepository
	GetSpinRepository(ctx context.Context) SpinRepository
}

// RetryClassifier is implemented by stores whose transactions can fail on transient lock conflicts
type RetryClassifier interface {
	IsRetryable(err error) bool
}
