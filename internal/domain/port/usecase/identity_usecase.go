package usecase

import "context"

// IdentityUseCase resolves the caller's opaque identity token
type IdentityUseCase interface {
	// Resolve returns presented when it is a usable token, or mints and persists a new one.
	// issued reports whether a new token was minted.
	Resolve(ctx context.Context, presented string) (token string, issued bool, err error)
}
