package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/filestore"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/logger"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSnapshots struct {
	doc *persistence.Snapshot
	err error
}

func (s stubSnapshots) Export(context.Context) (*persistence.Snapshot, error) { return s.doc, s.err }

func (s stubSnapshots) Import(context.Context, *persistence.Snapshot) (*usecase.ImportStats, error) {
	return nil, errors.New("not supported")
}

type steppingClock struct{ now time.Time }

func (c *steppingClock) Now() time.Time                  { return c.now }
func (c *steppingClock) Since(t time.Time) time.Duration { return c.now.Sub(t) }

func TestSnapshotBackup_RunAndPrune(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := persistence.NewSnapshot()
	doc.Users["player-token-1"] = persistence.SnapshotUser{Saldo: 3}
	doc.Spins = 12

	clock := &steppingClock{now: time.Date(2025, 5, 1, 3, 0, 0, 0, time.UTC)}
	backup := NewSnapshotBackup(stubSnapshots{doc: doc}, fs, "/backups", 2, clock, logger.NewNoopLogger())

	var paths []string
	for i := 0; i < 3; i++ {
		path, err := backup.Run(context.Background())
		require.NoError(t, err)
		paths = append(paths, path)
		clock.now = clock.now.Add(time.Hour)
	}

	assert.Equal(t, "/backups/snapshot-20250501T030000Z.json", paths[0])

	exists, _ := afero.Exists(fs, paths[0])
	assert.False(t, exists, "oldest snapshot pruned")
	for _, p := range paths[1:] {
		exists, _ := afero.Exists(fs, p)
		assert.True(t, exists, p)
	}

	written, err := filestore.ReadDocument(fs, paths[2])
	require.NoError(t, err)
	assert.Equal(t, int64(3), written.Users["player-token-1"].Saldo)
	assert.Equal(t, uint64(12), written.Spins)
}

func TestSnapshotBackup_ExportFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	clock := &steppingClock{now: time.Now()}
	backup := NewSnapshotBackup(stubSnapshots{err: errors.New("store locked")}, fs, "/backups", 0, clock, logger.NewNoopLogger())

	err := backup.Job(context.Background())

	assert.ErrorContains(t, err, "store locked")
	exists, _ := afero.DirExists(fs, "/backups")
	assert.False(t, exists)
}

func TestScheduler(t *testing.T) {
	s := NewScheduler(time.UTC, logger.NewNoopLogger())

	err := s.Add(context.Background(), "not a spec", "broken", func(context.Context) error { return nil })
	assert.Error(t, err)

	var runs atomic.Int32
	require.NoError(t, s.Add(context.Background(), "@every 1s", "tick", func(context.Context) error {
		runs.Add(1)
		return errors.New("logged, not fatal")
	}))

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
