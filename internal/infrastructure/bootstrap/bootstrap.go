package bootstrap

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/identity"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/prize"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/redemption"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/snapshot"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/spin"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/userlock"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/filestore"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/config"
	"github.com/spf13/afero"
)

// Pinger reports whether a backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is an opened persistence backend
type Store struct {
	UnitOfWork persistence.UnitOfWork
	// Pinger is nil for backends without a remote dependency
	Pinger  Pinger
	Driver  string
	closeFn func() error
}

// Close releases the backend
func (s *Store) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// OpenStore opens the backend selected by cfg.Store.Driver. The postgres schema is migrated on open.
func OpenStore(
	ctx context.Context,
	cfg *config.Config,
	fs afero.Fs,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) (*Store, error) {
	switch cfg.Store.Driver {
	case config.StoreFile, "":
		fileStore, err := filestore.New(fs, cfg.Store.Path, cfg.Store.LockTimeout, timeProvider, logger)
		if err != nil {
			return nil, err
		}
		return &Store{UnitOfWork: fileStore, Driver: config.StoreFile}, nil

	case config.StorePostgres:
		manager := database.NewManager(cfg.Database, logger, timeProvider)
		if err := manager.Connect(ctx); err != nil {
			return nil, err
		}
		if err := manager.Migrate(ctx); err != nil {
			_ = manager.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return &Store{
			UnitOfWork: manager.CreateUnitOfWork(),
			Pinger:     manager,
			Driver:     config.StorePostgres,
			closeFn:    manager.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Services is the set of use cases the HTTP API and the operator CLI drive
type Services struct {
	Identity   *identity.Service
	Ledger     *ledger.Service
	Redemption *redemption.Service
	Spin       *spin.Service
	Snapshot   *snapshot.Service
	Admin      *redemption.AdminAuthorizer
}

// ServiceOptions carries the game rules and secrets the use cases need
type ServiceOptions struct {
	Table        *entity.PrizeTable
	Random       coreport.RandomSource
	SpinCost     int64
	AdminKey     string
	AdminKeyHash string
}

// NewServices wires the use cases over one unit of work. Ledger, spin and redemption share a single
// per-user lock so one user's requests queue behind each other.
func NewServices(
	uow persistence.UnitOfWork,
	opts ServiceOptions,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) (*Services, error) {
	admin, err := redemption.NewAdminAuthorizer(opts.AdminKey, opts.AdminKeyHash)
	if err != nil {
		return nil, err
	}

	locker := userlock.NewKeyedLocker(logger)
	ledgerService := ledger.NewService(uow, locker, timeProvider, logger)

	services := &Services{
		Identity:   identity.NewService(uow, logger),
		Ledger:     ledgerService,
		Redemption: redemption.NewService(uow, ledgerService, locker, admin, timeProvider, logger),
		Snapshot:   snapshot.NewService(uow, timeProvider, logger),
		Admin:      admin,
	}

	if opts.Table != nil {
		services.Spin = spin.NewService(
			uow,
			ledgerService,
			prize.NewSelector(opts.Random),
			opts.Table,
			locker,
			timeProvider,
			logger,
			opts.SpinCost,
		)
	}
	return services, nil
}
