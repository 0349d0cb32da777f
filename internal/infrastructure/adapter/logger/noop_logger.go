package logger

import (
	"sync/atomic"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
)

// NoopLogger discards every entry. Tests and the CLI's quiet mode use it.
type NoopLogger struct {
	level atomic.Int32
}

// NewNoopLogger creates a new no-op logger
func NewNoopLogger() core.Logger {
	l := &NoopLogger{}
	l.level.Store(int32(core.LogLevelInfo))
	return l
}

func (l *NoopLogger) SetLevel(level core.LogLevel) { l.level.Store(int32(level)) }

func (l *NoopLogger) GetLevel() core.LogLevel { return core.LogLevel(l.level.Load()) }

func (l *NoopLogger) Debug(string, map[string]any) {}

func (l *NoopLogger) Info(string, map[string]any) {}

func (l *NoopLogger) Warn(string, map[string]any) {}

func (l *NoopLogger) Error(string, map[string]any) {}

func (l *NoopLogger) Flush() error { return nil }
