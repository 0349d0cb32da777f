package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/filestore"
	"github.com/spf13/afero"
)

const (
	backupPrefix     = "snapshot-"
	backupSuffix     = ".json"
	backupTimeLayout = "20060102T150405Z"
)

// SnapshotBackup writes the exported store document into a directory and keeps the newest copies
type SnapshotBackup struct {
	snapshots    usecase.SnapshotUseCase
	fs           afero.Fs
	dir          string
	keep         int
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewSnapshotBackup creates a backup job. keep <= 0 disables pruning.
func NewSnapshotBackup(
	snapshots usecase.SnapshotUseCase,
	fs afero.Fs,
	dir string,
	keep int,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *SnapshotBackup {
	return &SnapshotBackup{
		snapshots:    snapshots,
		fs:           fs,
		dir:          dir,
		keep:         keep,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Run writes one backup and prunes old ones. It returns the written path.
func (b *SnapshotBackup) Run(ctx context.Context) (string, error) {
	doc, err := b.snapshots.Export(ctx)
	if err != nil {
		return "", fmt.Errorf("export snapshot: %w", err)
	}

	if err := b.fs.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := backupPrefix + b.timeProvider.Now().UTC().Format(backupTimeLayout) + backupSuffix
	path := filepath.Join(b.dir, name)
	if err := filestore.WriteDocument(b.fs, path, doc); err != nil {
		return "", err
	}

	b.logger.Info("Store snapshot written", map[string]any{
		"path":  path,
		"users": len(doc.Users),
		"codes": len(doc.Codes),
		"spins": doc.Spins,
	})

	if err := b.prune(); err != nil {
		b.logger.Warn("Failed to prune old snapshots", map[string]any{"dir": b.dir, "error": err})
	}
	return path, nil
}

// Job adapts Run to the scheduler signature
func (b *SnapshotBackup) Job(ctx context.Context) error {
	_, err := b.Run(ctx)
	return err
}

func (b *SnapshotBackup) prune() error {
	if b.keep <= 0 {
		return nil
	}

	entries, err := afero.ReadDir(b.fs, b.dir)
	if err != nil {
		return err
	}

	var backups []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) && strings.HasSuffix(e.Name(), backupSuffix) {
			backups = append(backups, e.Name())
		}
	}
	if len(backups) <= b.keep {
		return nil
	}

	// names embed a sortable UTC timestamp
	sort.Strings(backups)
	for _, name := range backups[:len(backups)-b.keep] {
		if err := b.fs.Remove(filepath.Join(b.dir, name)); err != nil {
			return err
		}
		b.logger.Debug("Old snapshot removed", map[string]any{"file": name})
	}
	return nil
}
