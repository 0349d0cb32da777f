package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/repository"
	"gorm.io/gorm"
)

// ErrNoTransaction is returned by Commit and Rollback when ctx carries no transaction
var ErrNoTransaction = errors.New("no transaction found in context")

type contextKey struct{}

type txState struct {
	tx   *gorm.DB
	done bool
}

// UnitOfWork implements the unit of work pattern for database transactions.
// Transactions run at READ COMMITTED; every read that feeds a write takes a row lock.
type UnitOfWork struct {
	db              *gorm.DB
	logger          coreport.Logger
	timeProvider    coreport.TimeProvider
	errorClassifier *repository.ErrorClassifier
}

// NewUnitOfWork creates a new UnitOfWork instance
func NewUnitOfWork(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *UnitOfWork {
	return &UnitOfWork{
		db:              db,
		logger:          logger,
		timeProvider:    timeProvider,
		errorClassifier: repository.NewErrorClassifier(),
	}
}

var _ persistence.UnitOfWork = (*UnitOfWork)(nil)
var _ persistence.RetryClassifier = (*UnitOfWork)(nil)

// Begin starts a new database transaction
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if state, ok := ctx.Value(contextKey{}).(*txState); ok && !state.done {
		return ctx, errors.New("transaction already in progress")
	}

	tx := u.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if tx.Error != nil {
		u.logger.Error("Failed to begin transaction", map[string]any{"error": tx.Error})
		return ctx, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	return context.WithValue(ctx, contextKey{}, &txState{tx: tx}), nil
}

// Commit commits the current transaction
func (u *UnitOfWork) Commit(ctx context.Context) error {
	state, ok := ctx.Value(contextKey{}).(*txState)
	if !ok {
		return ErrNoTransaction
	}
	if state.done {
		return errors.New("transaction already finished")
	}

	state.done = true
	if err := state.tx.Commit().Error; err != nil {
		u.logger.Error("Failed to commit transaction", map[string]any{"error": err})
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls back the current transaction. It is a no-op once the transaction finished.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	state, ok := ctx.Value(contextKey{}).(*txState)
	if !ok {
		return ErrNoTransaction
	}
	if state.done {
		return nil
	}

	state.done = true
	err := state.tx.Rollback().Error
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		u.logger.Error("Failed to rollback transaction", map[string]any{"error": err})
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// IsRetryable reports serialization failures and deadlocks, after which the whole transaction may run again
func (u *UnitOfWork) IsRetryable(err error) bool {
	return u.errorClassifier.IsRetryable(err)
}

// GetUserRepository returns a user repository in the current transaction
func (u *UnitOfWork) GetUserRepository(ctx context.Context) persistence.UserRepository {
	return repository.NewUserRepository(u.dbFromContext(ctx), u.timeProvider, u.logger)
}

// GetRedemptionCodeRepository returns a code repository in the current transaction
func (u *UnitOfWork) GetRedemptionCodeRepository(ctx context.Context) persistence.RedemptionCodeRepository {
	return repository.NewRedemptionCodeRepository(u.dbFromContext(ctx), u.logger)
}

// GetSpinCounterRepository returns the spin counter in the current transaction
func (u *UnitOfWork) GetSpinCounterRepository(ctx context.Context) persistence.SpinCounterRepository {
	return repository.NewSpinCounterRepository(u.dbFromContext(ctx))
}

// GetSpinRepository returns the spin history in the current transaction
func (u *UnitOfWork) GetSpinRepository(ctx context.Context) persistence.SpinRepository {
	return repository.NewSpinRepository(u.dbFromContext(ctx))
}

// dbFromContext falls back to an autocommit session outside a transaction
func (u *UnitOfWork) dbFromContext(ctx context.Context) *gorm.DB {
	if state, ok := ctx.Value(contextKey{}).(*txState); ok && !state.done {
		return state.tx
	}
	return u.db.WithContext(ctx)
}
