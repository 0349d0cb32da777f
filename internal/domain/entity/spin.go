package entity

import "time"

// Spin is the append-only audit record of one resolved spin
type Spin struct {
	SequenceID uint64
	UserToken  string
	PrizeName  string
	CreatedAt  time.Time
}

// SpinResult is what a resolved spin hands back to the transport layer
type SpinResult struct {
	Prize      PrizeItem
	SequenceID uint64
	Timestamp  time.Time
	Balance    int64
}

// RedemptionResult is what a successful claim hands back to the transport layer
type RedemptionResult struct {
	Code    string
	Amount  int64
	Balance int64
}
