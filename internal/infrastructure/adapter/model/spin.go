package model

import (
	"time"
)

// SpinCounterID is the primary key of the single counter row
const SpinCounterID = 1

// SpinCounter holds the global spin sequence in a single row
type SpinCounter struct {
	ID    int    `gorm:"primaryKey;autoIncrement:false"`
	Value uint64 `gorm:"not null"`
}

// TableName specifies the table name for SpinCounter
func (SpinCounter) TableName() string {
	return "spin_counter"
}

// Spin is one row of the append-only spin history
type Spin struct {
	SequenceID uint64    `gorm:"primaryKey;autoIncrement:false"`
	UserToken  string    `gorm:"type:varchar(128);not null;index:idx_spins_user_token"`
	PrizeName  string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName specifies the table name for Spin
func (Spin) TableName() string {
	return "spins"
}
