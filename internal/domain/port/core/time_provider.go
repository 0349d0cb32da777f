package core

import "time"

// TimeProvider abstracts the clock so spins, redemptions and rate limit windows can be tested deterministically
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}
