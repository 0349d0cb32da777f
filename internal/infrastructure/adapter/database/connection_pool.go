package database

import (
	"database/sql"
	"sync"
	"time"

	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
)

// DefaultPoolWarnRatio is the share of MaxOpen in use at which the pool counts as saturated
const DefaultPoolWarnRatio = 0.8

// PoolStats is one sample of the connection pool
type PoolStats struct {
	Open         int           `json:"open"`
	Idle         int           `json:"idle"`
	InUse        int           `json:"inUse"`
	MaxOpen      int           `json:"maxOpen"`
	WaitCount    int64         `json:"waitCount"`
	WaitDuration time.Duration `json:"waitDurationNs"`
	SampledAt    time.Time     `json:"sampledAt"`
}

// Saturation is InUse over MaxOpen, or 0 for an unbounded pool
func (s PoolStats) Saturation() float64 {
	if s.MaxOpen <= 0 {
		return 0
	}
	return float64(s.InUse) / float64(s.MaxOpen)
}

// PoolMonitor samples the pool periodically. It logs once when the pool becomes saturated
// and once when it recovers.
type PoolMonitor struct {
	stats        func() sql.DBStats
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
	warnRatio    float64

	mu        sync.RWMutex
	last      PoolStats
	saturated bool

	stop     chan struct{}
	stopOnce sync.Once
}

// NewPoolMonitor creates a monitor over stats, usually (*sql.DB).Stats
func NewPoolMonitor(stats func() sql.DBStats, logger coreport.Logger, timeProvider coreport.TimeProvider) *PoolMonitor {
	return &PoolMonitor{
		stats:        stats,
		logger:       logger,
		timeProvider: timeProvider,
		warnRatio:    DefaultPoolWarnRatio,
		stop:         make(chan struct{}),
	}
}

// Start takes a first sample and keeps sampling every interval until Stop. A non-positive
// interval samples once.
func (m *PoolMonitor) Start(interval time.Duration) {
	m.Sample()
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Sample()
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends sampling. It is safe to call more than once.
func (m *PoolMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Last returns the most recent sample
func (m *PoolMonitor) Last() PoolStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Sample records the current pool state and returns it
func (m *PoolMonitor) Sample() PoolStats {
	s := m.stats()
	sample := PoolStats{
		Open:         s.OpenConnections,
		Idle:         s.Idle,
		InUse:        s.InUse,
		MaxOpen:      s.MaxOpenConnections,
		WaitCount:    s.WaitCount,
		WaitDuration: s.WaitDuration,
		SampledAt:    m.timeProvider.Now(),
	}
	saturated := sample.MaxOpen > 0 && sample.Saturation() > m.warnRatio

	m.mu.Lock()
	changed := saturated != m.saturated
	m.last = sample
	m.saturated = saturated
	m.mu.Unlock()

	if !changed {
		return sample
	}
	fields := map[string]any{
		"in_use":     sample.InUse,
		"max_open":   sample.MaxOpen,
		"idle":       sample.Idle,
		"wait_count": sample.WaitCount,
		"wait_time":  sample.WaitDuration.String(),
	}
	if saturated {
		m.logger.Warn("Database connection pool nearly exhausted", fields)
	} else {
		m.logger.Info("Database connection pool recovered", fields)
	}
	return sample
}
