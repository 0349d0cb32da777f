package model

import (
	"time"
)

// User is the database row of a wheel player
type User struct {
	Token     string    `gorm:"primaryKey;type:varchar(128)"`
	Balance   int64     `gorm:"not null;check:balance >= 0"`
	SpinCount uint64    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
