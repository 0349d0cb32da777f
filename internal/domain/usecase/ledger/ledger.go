package ledger

import (
	"context"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/userlock"
)

// Service owns user balances. The top-level methods each run one unit of work; the Apply variants
// join a unit of work owned by the caller so spins and redemptions can debit or credit atomically
// with their own changes.
type Service struct {
	uow          persistence.UnitOfWork
	locker       *userlock.KeyedLocker
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates a new ledger service
func NewService(
	uow persistence.UnitOfWork,
	locker *userlock.KeyedLocker,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		uow:          uow,
		locker:       locker,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// GetBalance returns the balance, materializing unknown users at zero
func (s *Service) GetBalance(ctx context.Context, token string) (int64, error) {
	if err := entity.ValidateToken(token); err != nil {
		return 0, err
	}

	var balance int64
	err := persistence.RunInTransaction(ctx, s.uow, func(txCtx context.Context) error {
		user, err := s.uow.GetUserRepository(txCtx).GetOrCreate(txCtx, token)
		if err != nil {
			return err
		}
		balance = user.Balance()
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to read balance", map[string]any{
			"user":  errs.MaskToken(token),
			"error": err.Error(),
		})
		return 0, err
	}
	return balance, nil
}

// TryDebit removes amount from the balance, or fails with ErrInsufficientBalance leaving it unchanged
func (s *Service) TryDebit(ctx context.Context, token string, amount int64) (int64, error) {
	return s.modify(ctx, token, amount, s.ApplyDebit)
}

// Credit adds amount to the balance
func (s *Service) Credit(ctx context.Context, token string, amount int64) (int64, error) {
	return s.modify(ctx, token, amount, s.ApplyCredit)
}

func (s *Service) modify(
	ctx context.Context,
	token string,
	amount int64,
	apply func(context.Context, string, int64) (*entity.User, error),
) (int64, error) {
	if err := entity.ValidateToken(token); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, errs.ErrInvalidAmount
	}

	unlock, err := s.locker.Lock(ctx, token)
	if err != nil {
		return 0, err
	}
	defer unlock()

	var balance int64
	err = persistence.RunInTransaction(ctx, s.uow, func(txCtx context.Context) error {
		user, err := apply(txCtx, token, amount)
		if err != nil {
			return err
		}
		balance = user.Balance()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// ApplyDebit debits inside the caller's unit of work and returns the saved user
func (s *Service) ApplyDebit(txCtx context.Context, token string, amount int64) (*entity.User, error) {
	users := s.uow.GetUserRepository(txCtx)

	user, err := users.GetOrCreate(txCtx, token)
	if err != nil {
		return nil, err
	}

	if err := user.Debit(amount, s.timeProvider); err != nil {
		if errs.IsInsufficientBalanceError(err) {
			s.logger.Debug("Debit refused", map[string]any{
				"user":    errs.MaskToken(token),
				"amount":  amount,
				"balance": user.Balance(),
			})
		}
		return nil, err
	}

	if err := users.Save(txCtx, user); err != nil {
		s.logger.Error("Failed to save debited balance", map[string]any{
			"user":  errs.MaskToken(token),
			"error": err.Error(),
		})
		return nil, err
	}
	return user, nil
}

// ApplyCredit credits inside the caller's unit of work and returns the saved user
func (s *Service) ApplyCredit(txCtx context.Context, token string, amount int64) (*entity.User, error) {
	users := s.uow.GetUserRepository(txCtx)

	user, err := users.GetOrCreate(txCtx, token)
	if err != nil {
		return nil, err
	}

	if err := user.Credit(amount, s.timeProvider); err != nil {
		return nil, err
	}

	if err := users.Save(txCtx, user); err != nil {
		s.logger.Error("Failed to save credited balance", map[string]any{
			"user":  errs.MaskToken(token),
			"error": err.Error(),
		})
		return nil, err
	}

	s.logger.Info("Balance credited", map[string]any{
		"user":        errs.MaskToken(token),
		"amount":      amount,
		"new_balance": user.Balance(),
	})
	return user, nil
}
