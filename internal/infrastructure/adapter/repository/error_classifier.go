package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the store reacts to
const (
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// ErrorType represents the type of database error that occurred
type ErrorType string

const (
	DuplicateKeyError ErrorType = "duplicate_key"
	LockError         ErrorType = "lock"
	ConnectionError   ErrorType = "connection"
	ConstraintError   ErrorType = "constraint"
)

// ErrorClassifier sorts driver errors by SQLSTATE, falling back to message matching for
// errors that did not come from the server
type ErrorClassifier struct{}

// NewErrorClassifier creates a new ErrorClassifier
func NewErrorClassifier() *ErrorClassifier {
	return &ErrorClassifier{}
}

// Classify returns the type of error
func (c *ErrorClassifier) Classify(err error) ErrorType {
	switch {
	case err == nil:
		return ""
	case c.IsDuplicateKeyError(err):
		return DuplicateKeyError
	case c.IsLockError(err):
		return LockError
	case c.IsConnectionError(err):
		return ConnectionError
	case c.IsConstraintError(err):
		return ConstraintError
	default:
		return ""
	}
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsDuplicateKeyError checks if the error is a unique violation
func (c *ErrorClassifier) IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if code := sqlState(err); code != "" {
		return code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "duplicate key")
}

// IsLockError reports deadlocks, serialization failures and lock timeouts. These are safe to retry.
func (c *ErrorClassifier) IsLockError(err error) bool {
	if err == nil {
		return false
	}
	switch sqlState(err) {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return true
	case "":
		msg := strings.ToLower(err.Error())
		return strings.Contains(msg, "deadlock detected") ||
			strings.Contains(msg, "could not serialize access")
	default:
		return false
	}
}

// IsConnectionError checks if the error happened before the server could process the statement
func (c *ErrorClassifier) IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return !errors.Is(err, context.Canceled)
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe")
}

// IsConstraintError checks if a check or unique constraint rejected the statement
func (c *ErrorClassifier) IsConstraintError(err error) bool {
	switch sqlState(err) {
	case pgUniqueViolation, pgCheckViolation:
		return true
	}
	return false
}

// IsRetryable reports whether a failed transaction can be run again from the start
func (c *ErrorClassifier) IsRetryable(err error) bool {
	return c.IsLockError(err)
}

// wrap turns a driver error into a storage error, keeping the driver error in the chain
func wrap(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", operation, errs.ErrStorage, err)
}
