package filestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
	"github.com/spf13/afero"
)

// DefaultLockTimeout bounds how long Begin waits for the document
const DefaultLockTimeout = 5 * time.Second

// ErrNoTransaction is returned by repositories used outside Begin/Commit
var ErrNoTransaction = errors.New("no active file store transaction")

type txKeyType struct{}

var txKey = txKeyType{}

// Store keeps users, codes and the spin counter in one JSON document. Every transaction holds the
// document exclusively from Begin to Commit or Rollback: read document, mutate in memory, write back.
type Store struct {
	fs           afero.Fs
	path         string
	sem          chan struct{}
	lockTimeout  time.Duration
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// tx is the in-memory document of one transaction
type tx struct {
	doc       *persistence.Snapshot
	codeIndex map[string]int
	dirty     bool
	done      bool
}

// New opens the document at path, creating it when absent. A document that cannot be parsed is an error.
func New(
	fs afero.Fs,
	path string,
	lockTimeout time.Duration,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) (*Store, error) {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}

	s := &Store{
		fs:           fs,
		path:         path,
		sem:          make(chan struct{}, 1),
		lockTimeout:  lockTimeout,
		timeProvider: timeProvider,
		logger:       logger,
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w: %w", path, errs.ErrStorage, err)
	}
	if !exists {
		if err := WriteDocument(fs, path, persistence.NewSnapshot()); err != nil {
			return nil, err
		}
		logger.Info("Created empty store document", map[string]any{"path": path})
		return s, nil
	}

	doc, err := ReadDocument(fs, path)
	if err != nil {
		return nil, err
	}
	logger.Info("Opened store document", map[string]any{
		"path":  path,
		"users": len(doc.Users),
		"codes": len(doc.Codes),
		"spins": doc.Spins,
	})
	return s, nil
}

// Begin locks the document and loads it into a transactional context
func (s *Store) Begin(ctx context.Context) (context.Context, error) {
	if t, ok := ctx.Value(txKey).(*tx); ok && !t.done {
		return nil, errors.New("file store transactions cannot be nested")
	}

	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		s.logger.Warn("Timed out waiting for the store lock", map[string]any{
			"timeout_ms": s.lockTimeout.Milliseconds(),
		})
		return nil, errs.ErrLockTimeout
	}

	doc, err := ReadDocument(s.fs, s.path)
	if err != nil {
		<-s.sem
		s.logger.Error("Failed to read store document", map[string]any{"error": err.Error()})
		return nil, err
	}

	return context.WithValue(ctx, txKey, &tx{doc: doc}), nil
}

// Commit writes the document when the transaction changed it, then unlocks
func (s *Store) Commit(ctx context.Context) error {
	t, err := s.current(ctx)
	if err != nil {
		return err
	}

	defer s.finish(t)

	if !t.dirty {
		return nil
	}
	if err := WriteDocument(s.fs, s.path, t.doc); err != nil {
		s.logger.Error("Failed to write store document", map[string]any{"error": err.Error()})
		return err
	}
	return nil
}

// Rollback drops the in-memory changes and unlocks. It is a no-op on a finished transaction.
func (s *Store) Rollback(ctx context.Context) error {
	t, ok := ctx.Value(txKey).(*tx)
	if !ok || t.done {
		return nil
	}
	s.finish(t)
	return nil
}

func (s *Store) finish(t *tx) {
	t.done = true
	t.doc = nil
	<-s.sem
}

func (s *Store) current(ctx context.Context) (*tx, error) {
	t, ok := ctx.Value(txKey).(*tx)
	if !ok || t.done {
		return nil, ErrNoTransaction
	}
	return t, nil
}

// GetUserRepository returns a user repository bound to the current transaction
func (s *Store) GetUserRepository(ctx context.Context) persistence.UserRepository {
	return &userRepository{store: s}
}

// GetRedemptionCodeRepository returns a code repository bound to the current transaction
func (s *Store) GetRedemptionCodeRepository(ctx context.Context) persistence.RedemptionCodeRepository {
	return &codeRepository{store: s}
}

// GetSpinCounterRepository returns the counter bound to the current transaction
func (s *Store) GetSpinCounterRepository(ctx context.Context) persistence.SpinCounterRepository {
	return &counterRepository{store: s}
}

// GetSpinRepository returns the spin history bound to the current transaction
func (s *Store) GetSpinRepository(ctx context.Context) persistence.SpinRepository {
	return &spinRepository{store: s}
}

// Path returns the document location
func (s *Store) Path() string {
	return s.path
}
