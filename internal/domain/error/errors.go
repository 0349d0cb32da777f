package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInsufficientBalance = 4001
	CodeInvalidAmount       = 4002
	CodeInvalidIdentity     = 4003
	CodeCodeNotFound        = 4004
	CodeCodeAlreadyUsed     = 4005
	CodeInvalidCode         = 4006
	CodeInvalidRequest      = 4007
	CodeDuplicateCode       = 4009
	CodeUnauthorized        = 4030
	CodeRateLimited         = 4290

	// 5xxx - Server errors
	CodeInternalServer     = 5000
	CodeConfiguration      = 5001
	CodeAdminNotConfigured = 5002
	CodeStorage            = 5003
)

// Base error types
var (
	// ErrInsufficientBalance is returned when a user has no spins left for the requested debit
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount is returned when a credit or debit amount is not a positive integer
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidIdentity is returned when an identity token is empty or malformed
	ErrInvalidIdentity = errors.New("invalid identity token")

	// ErrCodeNotFound is returned when a redemption code does not exist
	ErrCodeNotFound = errors.New("redemption code not found")

	// ErrCodeAlreadyUsed is returned when a redemption code was already claimed
	ErrCodeAlreadyUsed = errors.New("redemption code already used")

	// ErrInvalidCode is returned when a redemption code is empty or too long
	ErrInvalidCode = errors.New("invalid redemption code")

	// ErrDuplicateCode is returned when an administrator adds a code that already exists
	ErrDuplicateCode = errors.New("redemption code already exists")

	// ErrInvalidRequest is returned when the request format is invalid
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnauthorized is returned when the administrative secret does not match
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited is returned when a caller exceeded its request budget
	ErrRateLimited = errors.New("too many requests")

	// ErrConfiguration is returned for operator-facing configuration faults (e.g. an empty prize table)
	ErrConfiguration = errors.New("configuration error")

	// ErrAdminNotConfigured is returned when no administrative secret is configured on the server
	ErrAdminNotConfigured = errors.New("admin key is not configured")

	// ErrStorage is returned when the persisted store cannot be read or written
	ErrStorage = errors.New("storage error")

	// ErrLockTimeout is returned when the store could not be locked in time
	ErrLockTimeout = errors.New("store lock timeout")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		return CodeInsufficientBalance
	case errors.Is(err, ErrInvalidAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrInvalidIdentity):
		return CodeInvalidIdentity
	case errors.Is(err, ErrCodeNotFound):
		return CodeCodeNotFound
	case errors.Is(err, ErrCodeAlreadyUsed):
		return CodeCodeAlreadyUsed
	case errors.Is(err, ErrInvalidCode):
		return CodeInvalidCode
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	case errors.Is(err, ErrDuplicateCode):
		return CodeDuplicateCode
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, ErrAdminNotConfigured):
		return CodeAdminNotConfigured
	case errors.Is(err, ErrConfiguration):
		return CodeConfiguration
	case errors.Is(err, ErrStorage), errors.Is(err, ErrLockTimeout):
		return CodeStorage
	default:
		return CodeInternalServer
	}
}

// InsufficientBalanceError provides detailed error information for insufficient balance
type InsufficientBalanceError struct {
	UserToken   string
	Amount      int64
	CurrBalance int64
}

// Error implements the error interface
func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %d, available %d", e.Amount, e.CurrBalance)
}

// Is checks if the target error is an ErrInsufficientBalance
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// LogFields returns a map of fields for structured logging
func (e *InsufficientBalanceError) LogFields() map[string]any {
	return map[string]any{
		"error_type":      "insufficient_balance",
		"user_token":      MaskToken(e.UserToken),
		"amount":          e.Amount,
		"current_balance": e.CurrBalance,
		"error_code":      CodeInsufficientBalance,
	}
}

// NewInsufficientBalanceError creates a new detailed insufficient balance error
func NewInsufficientBalanceError(userToken string, amount, currentBalance int64) error {
	return &InsufficientBalanceError{
		UserToken:   userToken,
		Amount:      amount,
		CurrBalance: currentBalance,
	}
}

// RedemptionError represents a failed code claim
type RedemptionError struct {
	Code      string
	UserToken string
	Err       error
}

// Error implements the error interface for RedemptionError
func (e *RedemptionError) Error() string {
	return fmt.Sprintf("redemption of code %q failed: %v", e.Code, e.Err)
}

// Unwrap returns the underlying error
func (e *RedemptionError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *RedemptionError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "redemption_error",
		"code":       e.Code,
		"user_token": MaskToken(e.UserToken),
		"error":      e.Err.Error(),
		"error_code": ErrorCode(e.Err),
	}
}

// NewRedemptionError creates a detailed redemption error
func NewRedemptionError(code, userToken string, err error) error {
	return &RedemptionError{Code: code, UserToken: userToken, Err: err}
}

// ConfigurationError describes an operator-facing configuration fault
type ConfigurationError struct {
	Component string
	Reason    string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Reason)
}

// Is checks if the target error is an ErrConfiguration
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// LogFields returns a map of fields for structured logging
func (e *ConfigurationError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "configuration_error",
		"component":  e.Component,
		"reason":     e.Reason,
		"error_code": CodeConfiguration,
	}
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(component, reason string) error {
	return &ConfigurationError{Component: component, Reason: reason}
}

// MaskToken shortens an identity token for logs so full tokens never end up in log storage
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:8] + "****"
}

// IsInsufficientBalanceError checks if the error is related to insufficient balance
func IsInsufficientBalanceError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// IsClientError reports whether the error is an expected, user-correctable outcome
func IsClientError(err error) bool {
	code := ErrorCode(err)
	return code >= 4000 && code < 5000
}
