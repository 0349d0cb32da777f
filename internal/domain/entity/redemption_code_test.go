package entity

import (
	"strings"
	"testing"
	"time"

	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coremocks "github.com/amirhossein-jamali/prize-wheel/mocks/port/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ABC123", NormalizeCode("  abc123\n"))
	assert.Equal(t, "ABC123", NormalizeCode("ABC123"))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestNewRedemptionCode(t *testing.T) {
	fixedTime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mockTime := coremocks.NewMockTimeProvider(t)
	mockTime.EXPECT().Now().Return(fixedTime).Maybe()

	code, err := NewRedemptionCode(" promo10 ", 10, mockTime)
	require.NoError(t, err)
	assert.Equal(t, "PROMO10", code.Code)
	assert.Equal(t, int64(10), code.Amount)
	assert.False(t, code.Used)
	assert.Equal(t, fixedTime, code.CreatedAt)

	_, err = NewRedemptionCode("  ", 10, mockTime)
	assert.ErrorIs(t, err, errs.ErrInvalidCode)

	_, err = NewRedemptionCode(strings.Repeat("X", MaxCodeLength+1), 10, mockTime)
	assert.ErrorIs(t, err, errs.ErrInvalidCode)

	_, err = NewRedemptionCode("PROMO", 0, mockTime)
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
}

func TestRedemptionCodeRedeem(t *testing.T) {
	fixedTime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mockTime := coremocks.NewMockTimeProvider(t)
	mockTime.EXPECT().Now().Return(fixedTime).Maybe()

	code := &RedemptionCode{Code: "ABC123", Amount: 5}

	require.NoError(t, code.Redeem("user-1", mockTime))
	assert.True(t, code.Used)
	assert.Equal(t, "user-1", code.UsedBy)
	require.NotNil(t, code.UsedAt)
	assert.Equal(t, fixedTime, *code.UsedAt)

	err := code.Redeem("user-2", mockTime)
	assert.ErrorIs(t, err, errs.ErrCodeAlreadyUsed)
	assert.Equal(t, "user-1", code.UsedBy)
}
