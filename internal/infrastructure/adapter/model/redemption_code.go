package model

import (
	"time"
)

// RedemptionCode is the database row of a single-use code. Code holds the normalized form.
type RedemptionCode struct {
	Code      string     `gorm:"primaryKey;type:varchar(64)"`
	Amount    int64      `gorm:"not null;check:amount > 0"`
	Used      bool       `gorm:"not null"`
	UsedBy    *string    `gorm:"type:varchar(128)"`
	UsedAt    *time.Time
	CreatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for RedemptionCode
func (RedemptionCode) TableName() string {
	return "redemption_codes"
}
