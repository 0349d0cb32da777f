package usecase

import "context"

// LedgerUseCase exposes the per-user spin balance
type LedgerUseCase interface {
	// GetBalance returns the balance of token, materializing unknown users at zero
	GetBalance(ctx context.Context, token string) (int64, error)

	// TryDebit atomically checks and decrements the balance, failing with ErrInsufficientBalance
	TryDebit(ctx context.Context, token string, amount int64) (int64, error)

	// Credit adds amount to the balance and returns the new balance
	Credit(ctx context.Context, token string, amount int64) (int64, error)
}
