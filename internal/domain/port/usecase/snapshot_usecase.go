package usecase

import (
	"context"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
)

// ImportStats summarizes what an import changed
type ImportStats struct {
	Users       int
	CodesAdded  int
	CodesKept   int
	SpinsLoaded int
	Counter     uint64
}

// SnapshotUseCase moves the whole store in and out of its portable document form
type SnapshotUseCase interface {
	Export(ctx context.Context) (*persistence.Snapshot, error)
	Import(ctx context.Context, snapshot *persistence.Snapshot) (*ImportStats, error)
}
