package spin

import (
	"context"
	"errors"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/prize"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/userlock"
)

const (
	// DefaultCost is the number of credits one spin consumes
	DefaultCost = 1

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Service resolves spins: debit, draw, sequence and record, all in one unit of work
type Service struct {
	uow          persistence.UnitOfWork
	ledger       *ledger.Service
	selector     *prize.Selector
	table        *entity.PrizeTable
	locker       *userlock.KeyedLocker
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	cost         int64
}

// NewService creates a spin service. A cost below one falls back to DefaultCost.
func NewService(
	uow persistence.UnitOfWork,
	ledgerService *ledger.Service,
	selector *prize.Selector,
	table *entity.PrizeTable,
	locker *userlock.KeyedLocker,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	cost int64,
) *Service {
	if cost < 1 {
		cost = DefaultCost
	}
	return &Service{
		uow:          uow,
		ledger:       ledgerService,
		selector:     selector,
		table:        table,
		locker:       locker,
		timeProvider: timeProvider,
		logger:       logger,
		cost:         cost,
	}
}

// Spin debits one spin's cost from token and draws a prize. Nothing is persisted unless the debit,
// the sequence assignment and the history record all succeed.
func (s *Service) Spin(ctx context.Context, token string) (*entity.SpinResult, error) {
	if err := entity.ValidateToken(token); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, token)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *entity.SpinResult
	err = persistence.RunInTransaction(ctx, s.uow, func(txCtx context.Context) error {
		user, err := s.ledger.ApplyDebit(txCtx, token, s.cost)
		if err != nil {
			return err
		}

		item, err := s.selector.Select(s.table.Items())
		if err != nil {
			return err
		}

		seq, err := s.uow.GetSpinCounterRepository(txCtx).Next(txCtx)
		if err != nil {
			return err
		}

		user.RecordSpin()
		if err := s.uow.GetUserRepository(txCtx).Save(txCtx, user); err != nil {
			return err
		}

		now := s.timeProvider.Now()
		record := &entity.Spin{
			SequenceID: seq,
			UserToken:  token,
			PrizeName:  item.Name,
			CreatedAt:  now,
		}
		if err := s.uow.GetSpinRepository(txCtx).Append(txCtx, record); err != nil {
			return err
		}

		result = &entity.SpinResult{
			Prize:      item,
			SequenceID: seq,
			Timestamp:  now,
			Balance:    user.Balance(),
		}
		return nil
	})
	if err != nil {
		var cfgErr *errs.ConfigurationError
		switch {
		case errs.IsInsufficientBalanceError(err):
			s.logger.Debug("Spin refused, no spins left", map[string]any{"user": errs.MaskToken(token)})
		case errors.As(err, &cfgErr):
			s.logger.Error("Spin failed on prize configuration", cfgErr.LogFields())
		default:
			s.logger.Error("Spin failed", map[string]any{
				"user":  errs.MaskToken(token),
				"error": err.Error(),
			})
		}
		return nil, err
	}

	s.logger.Info("Spin resolved", map[string]any{
		"spin_id": result.SequenceID,
		"user":    errs.MaskToken(token),
		"prize":   result.Prize.Name,
		"balance": result.Balance,
	})
	return result, nil
}

// History returns up to limit of token's spins, newest first
func (s *Service) History(ctx context.Context, token string, limit int) ([]*entity.Spin, error) {
	if err := entity.ValidateToken(token); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	var spins []*entity.Spin
	err := persistence.RunInTransaction(ctx, s.uow, func(txCtx context.Context) error {
		var err error
		spins, err = s.uow.GetSpinRepository(txCtx).ListByUser(txCtx, token, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return spins, nil
}

// Prizes returns the table spins draw from
func (s *Service) Prizes() *entity.PrizeTable {
	return s.table
}
