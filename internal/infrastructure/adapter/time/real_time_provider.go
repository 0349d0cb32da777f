package time

import (
	"math/rand/v2"
	"time"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
)

// RealTimeProvider reads the wall clock
type RealTimeProvider struct{}

// NewRealTimeProvider creates a new real time provider
func NewRealTimeProvider() core.TimeProvider {
	return RealTimeProvider{}
}

func (RealTimeProvider) Now() time.Time {
	return time.Now()
}

func (RealTimeProvider) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// CryptoSeededRandom draws prize selections from the runtime's ChaCha8-backed global source
type CryptoSeededRandom struct{}

// NewRandomSource returns the production random source
func NewRandomSource() core.RandomSource {
	return CryptoSeededRandom{}
}

// Float64 returns a value in [0, 1)
func (CryptoSeededRandom) Float64() float64 {
	return rand.Float64()
}
