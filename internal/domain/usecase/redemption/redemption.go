package redemption

import (
	"context"
	"errors"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/userlock"
)

// Service claims and registers redemption codes
type Service struct {
	uow          persistence.UnitOfWork
	ledger       *ledger.Service
	locker       *userlock.KeyedLocker
	admin        *AdminAuthorizer
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates a new redemption service
func NewService(
	uow persistence.UnitOfWork,
	ledgerService *ledger.Service,
	locker *userlock.KeyedLocker,
	admin *AdminAuthorizer,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		uow:          uow,
		ledger:       ledgerService,
		locker:       locker,
		admin:        admin,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Claim marks the code used and credits its amount to token. Both changes commit together or not at all;
// of two concurrent claims on one code exactly one succeeds and the other gets ErrCodeAlreadyUsed.
func (s *Service) Claim(ctx context.Context, token, code string) (*entity.RedemptionResult, error) {
	if err := entity.ValidateToken(token); err != nil {
		return nil, err
	}

	normalized := entity.NormalizeCode(code)
	if err := entity.ValidateCode(normalized); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, token)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *entity.RedemptionResult
	err = persistence.RunInTransaction(ctx, s.uow, func(txCtx context.Context) error {
		codes := s.uow.GetRedemptionCodeRepository(txCtx)

		rc, err := codes.GetForUpdate(txCtx, normalized)
		if err != nil {
			return err
		}
		if err := rc.Redeem(token, s.timeProvider); err != nil {
			return err
		}
		if err := codes.Save(txCtx, rc); err != nil {
			return err
		}

		user, err := s.ledger.ApplyCredit(txCtx, token, rc.Amount)
		if err != nil {
			return err
		}

		result = &entity.RedemptionResult{
			Code:    rc.Code,
			Amount:  rc.Amount,
			Balance: user.Balance(),
		}
		return nil
	})
	if err != nil {
		re := &errs.RedemptionError{Code: normalized, UserToken: token, Err: err}
		if errs.IsClientError(err) {
			s.logger.Info("Code claim rejected", re.LogFields())
		} else {
			s.logger.Error("Code claim failed", re.LogFields())
		}
		return nil, re
	}

	s.logger.Info("Code redeemed", map[string]any{
		"code":        result.Code,
		"user":        errs.MaskToken(token),
		"amount":      result.Amount,
		"new_balance": result.Balance,
	})
	return result, nil
}

// CreateCode registers a new unused code
func (s *Service) CreateCode(ctx context.Context, code string, amount int64) (*entity.RedemptionCode, error) {
	rc, err := entity.NewRedemptionCode(code, amount, s.timeProvider)
	if err != nil {
		return nil, err
	}

	err = persistence.RunInTransaction(ctx, s.uow, func(txCtx context.Context) error {
		return s.uow.GetRedemptionCodeRepository(txCtx).Create(txCtx, rc)
	})
	if err != nil {
		if errors.Is(err, errs.ErrDuplicateCode) {
			s.logger.Warn("Attempt to add an existing code", map[string]any{"code": rc.Code})
		} else {
			s.logger.Error("Failed to add code", map[string]any{"code": rc.Code, "error": err.Error()})
		}
		return nil, err
	}

	s.logger.Info("Redemption code added", map[string]any{
		"code":   rc.Code,
		"amount": rc.Amount,
	})
	return rc, nil
}

// AddCode authorizes secret, then registers the code
func (s *Service) AddCode(ctx context.Context, secret, code string, amount int64) (*entity.RedemptionCode, error) {
	if err := s.admin.Authorize(secret); err != nil {
		switch {
		case errors.Is(err, errs.ErrUnauthorized):
			s.logger.Warn("Rejected administrative request with a wrong secret", nil)
		case errors.Is(err, errs.ErrAdminNotConfigured):
			s.logger.Error("Administrative request received but no admin key is configured", nil)
		default:
			s.logger.Error("Administrative authorization failed", map[string]any{"error": err.Error()})
		}
		return nil, err
	}

	return s.CreateCode(ctx, code, amount)
}
