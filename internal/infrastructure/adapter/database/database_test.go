package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/logger"
	timeadapter "github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/time"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	gormlogger "gorm.io/gorm/logger"
)

type recordedEntry struct {
	level   string
	message string
	fields  map[string]any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []recordedEntry
}

func (l *recordingLogger) record(level, msg string, fields map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, recordedEntry{level: level, message: msg, fields: fields})
}

func (l *recordingLogger) SetLevel(coreport.LogLevel)               {}
func (l *recordingLogger) GetLevel() coreport.LogLevel              { return coreport.LogLevelDebug }
func (l *recordingLogger) Debug(msg string, fields map[string]any) { l.record("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields map[string]any)  { l.record("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields map[string]any)  { l.record("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields map[string]any) { l.record("error", msg, fields) }
func (l *recordingLogger) Flush() error                            { return nil }

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Host = "localhost"
	cfg.Username = "wheel"
	cfg.Password = "secret"
	cfg.Database = "prize_wheel"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing host", func(c *Config) { c.Host = "" }, "host"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "port"},
		{"missing user", func(c *Config) { c.Username = "" }, "username"},
		{"missing name", func(c *Config) { c.Database = "" }, "name"},
		{"bad ssl mode", func(c *Config) { c.SSLMode = "sometimes" }, "SSL"},
		{"idle above open", func(c *Config) { c.MaxIdleConns = c.MaxOpenConns + 1 }, "idle"},
		{"no attempts", func(c *Config) { c.RetryAttempts = 0 }, "retry"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	assert.Equal(t,
		"host=localhost port=5432 user=wheel password=secret dbname=prize_wheel sslmode=disable",
		validConfig().DSN())
}

func TestRetryOnTransientError(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 4, RetryInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
	transient := errors.New("connection refused")
	isTransient := func(err error) bool { return errors.Is(err, transient) }

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := RetryOnTransientError(context.Background(), cfg, func() error {
			calls++
			if calls < 3 {
				return transient
			}
			return nil
		}, isTransient, logger.NewNoopLogger())

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := RetryOnTransientError(context.Background(), cfg, func() error {
			calls++
			return transient
		}, isTransient, logger.NewNoopLogger())

		assert.ErrorIs(t, err, transient)
		assert.Equal(t, 4, calls)
	})

	t.Run("permanent error is not retried", func(t *testing.T) {
		permanent := errors.New("password authentication failed")
		calls := 0
		err := RetryOnTransientError(context.Background(), cfg, func() error {
			calls++
			return permanent
		}, isTransient, logger.NewNoopLogger())

		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("canceled context stops waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		slow := RetryConfig{MaxRetries: 3, RetryInterval: time.Hour, MaxInterval: time.Hour}

		err := RetryOnTransientError(ctx, slow, func() error { return transient }, isTransient, logger.NewNoopLogger())

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCalculateBackoffWithJitter(t *testing.T) {
	cfg := RetryConfig{RetryInterval: 100 * time.Millisecond, MaxInterval: time.Second, JitterFactor: 0.5}

	first := calculateBackoffWithJitter(0, cfg)
	assert.GreaterOrEqual(t, first, 100*time.Millisecond)
	assert.LessOrEqual(t, first, 150*time.Millisecond)

	capped := calculateBackoffWithJitter(10, cfg)
	assert.GreaterOrEqual(t, capped, time.Second)
	assert.LessOrEqual(t, capped, 1500*time.Millisecond)
}

func newTestManager(t *testing.T, log coreport.Logger) (*Manager, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m := NewManager(validConfig(), log, timeadapter.NewRealTimeProvider())
	require.NoError(t, m.Open(postgres.New(postgres.Config{Conn: sqlDB})))
	return m, mock
}

func TestUnitOfWork_CommitAndRollback(t *testing.T) {
	m, mock := newTestManager(t, logger.NewNoopLogger())
	uow := m.CreateUnitOfWork()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE spin_counter SET value = value \+ 1`).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(1))
	mock.ExpectCommit()

	var got uint64
	err := persistence.RunInTransaction(context.Background(), uow, func(txCtx context.Context) error {
		var err error
		got, err = uow.GetSpinCounterRepository(txCtx).Next(txCtx)
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = persistence.RunInTransaction(context.Background(), uow, func(context.Context) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_RetriesSerializationFailure(t *testing.T) {
	m, mock := newTestManager(t, logger.NewNoopLogger())
	uow := m.CreateUnitOfWork()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE spin_counter`).WillReturnError(&pgconn.PgError{Code: "40001"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE spin_counter`).WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(7))
	mock.ExpectCommit()

	attempts := 0
	err := persistence.RunInTransaction(context.Background(), uow, func(txCtx context.Context) error {
		attempts++
		_, err := uow.GetSpinCounterRepository(txCtx).Next(txCtx)
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_TransactionState(t *testing.T) {
	m, mock := newTestManager(t, logger.NewNoopLogger())
	uow := m.CreateUnitOfWork()
	ctx := context.Background()

	assert.ErrorIs(t, uow.Commit(ctx), ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(ctx), ErrNoTransaction)

	mock.ExpectBegin()
	mock.ExpectCommit()

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)

	_, err = uow.Begin(txCtx)
	assert.Error(t, err, "nested transactions are rejected")

	require.NoError(t, uow.Commit(txCtx))
	assert.NoError(t, uow.Rollback(txCtx), "rollback after commit is a no-op")
	assert.Error(t, uow.Commit(txCtx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseLogger_Trace(t *testing.T) {
	rec := &recordingLogger{}
	l := NewDatabaseLogger(rec, timeadapter.NewRealTimeProvider(), "info", 50*time.Millisecond)
	ctx := coreport.WithRequestID(context.Background(), "req-1")
	sql := func() (string, int64) { return `SELECT * FROM "users"`, 1 }

	l.Trace(ctx, time.Now(), sql, nil)
	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	l.Trace(ctx, time.Now(), sql, errors.New("syntax error"))

	require.Len(t, rec.entries, 3)
	assert.Equal(t, "debug", rec.entries[0].level)
	assert.Equal(t, "SELECT", rec.entries[0].fields["type"])
	assert.Equal(t, "req-1", rec.entries[0].fields["request_id"])
	assert.Equal(t, "warn", rec.entries[1].level)
	assert.Equal(t, "error", rec.entries[2].level)

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(ctx, time.Now(), sql, errors.New("ignored"))
	assert.Len(t, rec.entries, 3)
}

func TestParseGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, ParseGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, ParseGormLogLevel("ERROR"))
	assert.Equal(t, gormlogger.Info, ParseGormLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, ParseGormLogLevel("unknown"))
}

func TestPoolMonitor_LogsTransitionsOnly(t *testing.T) {
	rec := &recordingLogger{}
	current := sql.DBStats{MaxOpenConnections: 10, OpenConnections: 3, InUse: 2, Idle: 1}
	monitor := NewPoolMonitor(func() sql.DBStats { return current }, rec, timeadapter.NewRealTimeProvider())

	sample := monitor.Sample()
	assert.InDelta(t, 0.2, sample.Saturation(), 1e-9)
	assert.Empty(t, rec.entries)

	current.InUse = 9
	monitor.Sample()
	monitor.Sample()
	require.Len(t, rec.entries, 1)
	assert.Equal(t, "warn", rec.entries[0].level)
	assert.Equal(t, 9, monitor.Last().InUse)

	current.InUse = 4
	monitor.Sample()
	require.Len(t, rec.entries, 2)
	assert.Equal(t, "info", rec.entries[1].level)
}

func TestPoolStats_UnboundedPool(t *testing.T) {
	assert.Zero(t, PoolStats{InUse: 50}.Saturation())
}
