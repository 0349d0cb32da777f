package entity

import (
	"math"
	"time"

	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
)

// MaxTokenLength bounds identity tokens accepted from clients
const MaxTokenLength = 128

// User is a wheel player identified by an opaque token, holding a spin balance
type User struct {
	Token     string    // Opaque identity token, also the cookie value
	balance   int64     // Remaining spins; never negative (private)
	SpinCount uint64    // Number of spins this user resolved
	CreatedAt time.Time // When the user was first seen
	UpdatedAt time.Time // When the balance last changed
}

// NewUser creates a user with zero balance for the given token
func NewUser(token string, timeProvider coreport.TimeProvider) (*User, error) {
	if err := ValidateToken(token); err != nil {
		return nil, err
	}

	now := timeProvider.Now()
	return &User{
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// RestoreUser rebuilds a user from persisted state. Repositories use it; a negative stored balance is clamped to zero.
func RestoreUser(token string, balance int64, spinCount uint64, createdAt, updatedAt time.Time) *User {
	if balance < 0 {
		balance = 0
	}
	return &User{
		Token:     token,
		balance:   balance,
		SpinCount: spinCount,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// Balance returns the number of spins the user can still play
func (u *User) Balance() int64 {
	return u.balance
}

// Credit adds amount spins to the balance
func (u *User) Credit(amount int64, timeProvider coreport.TimeProvider) error {
	if amount <= 0 {
		return errs.ErrInvalidAmount
	}
	if u.balance > math.MaxInt64-amount {
		return errs.ErrInvalidAmount
	}

	u.balance += amount
	u.UpdatedAt = timeProvider.Now()
	return nil
}

// Debit removes amount spins from the balance, failing without changes when the balance is short
func (u *User) Debit(amount int64, timeProvider coreport.TimeProvider) error {
	if amount <= 0 {
		return errs.ErrInvalidAmount
	}
	if u.balance < amount {
		return errs.NewInsufficientBalanceError(u.Token, amount, u.balance)
	}

	u.balance -= amount
	u.UpdatedAt = timeProvider.Now()
	return nil
}

// RecordSpin increments the per-user spin count
func (u *User) RecordSpin() {
	u.SpinCount++
}

// ValidateToken checks that a token is non-empty, bounded and made only of cookie-safe characters
func ValidateToken(token string) error {
	if token == "" || len(token) > MaxTokenLength {
		return errs.ErrInvalidIdentity
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		// RFC 6265 cookie-octet
		if c < 0x21 || c > 0x7e || c == '"' || c == ',' || c == ';' || c == '\\' {
			return errs.ErrInvalidIdentity
		}
	}
	return nil
}
