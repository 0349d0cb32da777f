package entity

import (
	"strings"
	"time"

	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
)

// MaxCodeLength bounds the length of a normalized redemption code
const MaxCodeLength = 64

// RedemptionCode is a single-use code worth a fixed number of spins
type RedemptionCode struct {
	Code      string
	Amount    int64
	Used      bool
	UsedBy    string
	UsedAt    *time.Time
	CreatedAt time.Time
}

// NormalizeCode trims and upper-cases a code. Stored and presented codes both go through it.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidateCode checks a normalized code
func ValidateCode(code string) error {
	if code == "" || len(code) > MaxCodeLength {
		return errs.ErrInvalidCode
	}
	for _, r := range code {
		if r < 0x20 || r == 0x7f {
			return errs.ErrInvalidCode
		}
	}
	return nil
}

// NewRedemptionCode creates an unused code. The code is normalized before validation.
func NewRedemptionCode(code string, amount int64, timeProvider coreport.TimeProvider) (*RedemptionCode, error) {
	normalized := NormalizeCode(code)
	if err := ValidateCode(normalized); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, errs.ErrInvalidAmount
	}

	return &RedemptionCode{
		Code:      normalized,
		Amount:    amount,
		CreatedAt: timeProvider.Now(),
	}, nil
}

// Redeem flips the code to used on behalf of userToken. A used code never flips back.
func (c *RedemptionCode) Redeem(userToken string, timeProvider coreport.TimeProvider) error {
	if c.Used {
		return errs.ErrCodeAlreadyUsed
	}

	now := timeProvider.Now()
	c.Used = true
	c.UsedBy = userToken
	c.UsedAt = &now
	return nil
}
