package identity

import (
	"context"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
	"github.com/google/uuid"
)

// TokenGenerator mints new identity tokens
type TokenGenerator func() string

// Service resolves callers to persisted users, minting tokens for first-time callers
type Service struct {
	uow      persistence.UnitOfWork
	logger   coreport.Logger
	generate TokenGenerator
}

// NewService creates an identity service minting random UUIDv4 tokens
func NewService(uow persistence.UnitOfWork, logger coreport.Logger) *Service {
	return NewServiceWithGenerator(uow, logger, uuid.NewString)
}

// NewServiceWithGenerator creates an identity service with a custom token generator
func NewServiceWithGenerator(uow persistence.UnitOfWork, logger coreport.Logger, generate TokenGenerator) *Service {
	return &Service{uow: uow, logger: logger, generate: generate}
}

// Resolve keeps a well-formed presented token and mints a new one otherwise. Either way the user
// exists in the store when Resolve returns without error.
func (s *Service) Resolve(ctx context.Context, presented string) (string, bool, error) {
	token := presented
	issued := false

	if err := entity.ValidateToken(presented); err != nil {
		token = s.generate()
		issued = true
		if presented != "" {
			s.logger.Warn("Replacing malformed identity token", map[string]any{
				"length": len(presented),
			})
		}
	}

	err := persistence.RunInTransaction(ctx, s.uow, func(txCtx context.Context) error {
		_, err := s.uow.GetUserRepository(txCtx).GetOrCreate(txCtx, token)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to persist identity", map[string]any{
			"user":  errs.MaskToken(token),
			"error": err.Error(),
		})
		return "", false, err
	}

	if issued {
		s.logger.Info("Issued new identity", map[string]any{"user": errs.MaskToken(token)})
	}
	return token, issued, nil
}
