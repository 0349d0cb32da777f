package logger

import (
	"testing"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewZapLogger_AppliesConfiguredLevel(t *testing.T) {
	l, err := NewZapLogger(Options{Format: "json", Level: "warn", Production: true})
	require.NoError(t, err)
	assert.Equal(t, core.LogLevelWarn, l.GetLevel())

	l.SetLevel(core.LogLevelDebug)
	assert.Equal(t, core.LogLevelDebug, l.GetLevel())

	// must not panic with an error value among the fields
	l.Info("spin resolved", map[string]any{"error": assert.AnError, "spin_id": 3})
}

func TestNoopLogger(t *testing.T) {
	l := NewNoopLogger()
	assert.Equal(t, core.LogLevelInfo, l.GetLevel())
	l.SetLevel(core.LogLevelError)
	assert.Equal(t, core.LogLevelError, l.GetLevel())
	assert.NoError(t, l.Flush())
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]core.LogLevel{
		"debug":   core.LogLevelDebug,
		"INFO":    core.LogLevelInfo,
		"warning": core.LogLevelWarn,
		" error ": core.LogLevelError,
		"bogus":   core.LogLevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, core.ParseLogLevel(in), in)
	}
}
