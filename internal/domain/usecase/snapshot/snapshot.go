package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/usecase"
)

// Service exports and imports the whole store as a persistence.Snapshot
type Service struct {
	uow          persistence.UnitOfWork
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates a new snapshot service
func NewService(uow persistence.UnitOfWork, timeProvider coreport.TimeProvider, logger coreport.Logger) *Service {
	return &Service{uow: uow, timeProvider: timeProvider, logger: logger}
}

// Export reads users, codes, the counter and the spin history in one consistent unit of work
func (s *Service) Export(ctx context.Context) (*persistence.Snapshot, error) {
	snap := persistence.NewSnapshot()

	err := persistence.RunInTransaction(ctx, s.uow, func(txCtx context.Context) error {
		users, err := s.uow.GetUserRepository(txCtx).List(txCtx)
		if err != nil {
			return err
		}
		for _, u := range users {
			snap.Users[u.Token] = persistence.SnapshotUser{
				Saldo:     u.Balance(),
				SpinCount: u.SpinCount,
				CreatedAt: timePtr(u.CreatedAt),
				UpdatedAt: timePtr(u.UpdatedAt),
			}
		}

		codes, err := s.uow.GetRedemptionCodeRepository(txCtx).List(txCtx)
		if err != nil {
			return err
		}
		for _, c := range codes {
			snap.Codes = append(snap.Codes, persistence.SnapshotCode{
				Code:      c.Code,
				Amount:    c.Amount,
				Used:      c.Used,
				UsedBy:    c.UsedBy,
				UsedAt:    c.UsedAt,
				CreatedAt: timePtr(c.CreatedAt),
			})
		}

		if snap.Spins, err = s.uow.GetSpinCounterRepository(txCtx).Current(txCtx); err != nil {
			return err
		}

		history, err := s.uow.GetSpinRepository(txCtx).List(txCtx)
		if err != nil {
			return err
		}
		for _, sp := range history {
			snap.History = append(snap.History, persistence.SnapshotSpin{
				ID:        sp.SequenceID,
				User:      sp.UserToken,
				Prize:     sp.PrizeName,
				CreatedAt: sp.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("export snapshot: %w", err)
	}

	s.logger.Info("Store exported", map[string]any{
		"users":   len(snap.Users),
		"codes":   len(snap.Codes),
		"counter": snap.Spins,
	})
	return snap, nil
}

// Import merges snapshot into the store: user balances are overwritten, codes missing from the store are
// added and existing ones kept, history entries beyond the store's counter are appended and the counter
// is raised to the larger of both values.
func (s *Service) Import(ctx context.Context, snapshot *persistence.Snapshot) (*usecase.ImportStats, error) {
	if snapshot == nil {
		return nil, errs.ErrInvalidRequest
	}

	stats := &usecase.ImportStats{}
	err := persistence.RunInTransaction(ctx, s.uow, func(txCtx context.Context) error {
		*stats = usecase.ImportStats{}
		users := s.uow.GetUserRepository(txCtx)

		tokens := make([]string, 0, len(snapshot.Users))
		for token := range snapshot.Users {
			tokens = append(tokens, token)
		}
		sort.Strings(tokens)

		for _, token := range tokens {
			su := snapshot.Users[token]
			if err := entity.ValidateToken(token); err != nil {
				return fmt.Errorf("user %q: %w", token, err)
			}
			existing, err := users.GetOrCreate(txCtx, token)
			if err != nil {
				return err
			}
			restored := entity.RestoreUser(token, su.Saldo, max(su.SpinCount, existing.SpinCount),
				orDefault(su.CreatedAt, existing.CreatedAt), orDefault(su.UpdatedAt, s.timeProvider.Now()))
			if err := users.Save(txCtx, restored); err != nil {
				return err
			}
			stats.Users++
		}

		codes := s.uow.GetRedemptionCodeRepository(txCtx)
		for _, sc := range snapshot.Codes {
			rc, err := entity.NewRedemptionCode(sc.Code, sc.Amount, s.timeProvider)
			if err != nil {
				return fmt.Errorf("code %q: %w", sc.Code, err)
			}
			rc.Used = sc.Used
			rc.UsedBy = sc.UsedBy
			rc.UsedAt = sc.UsedAt
			rc.CreatedAt = orDefault(sc.CreatedAt, rc.CreatedAt)

			err = codes.Create(txCtx, rc)
			switch {
			case err == nil:
				stats.CodesAdded++
			case errors.Is(err, errs.ErrDuplicateCode):
				stats.CodesKept++
			default:
				return err
			}
		}

		counter := s.uow.GetSpinCounterRepository(txCtx)
		current, err := counter.Current(txCtx)
		if err != nil {
			return err
		}

		spins := s.uow.GetSpinRepository(txCtx)
		for _, sp := range snapshot.History {
			if sp.ID <= current {
				continue
			}
			if err := spins.Append(txCtx, &entity.Spin{
				SequenceID: sp.ID,
				UserToken:  sp.User,
				PrizeName:  sp.Prize,
				CreatedAt:  sp.CreatedAt,
			}); err != nil {
				return err
			}
			stats.SpinsLoaded++
		}

		if err := counter.AdvanceTo(txCtx, snapshot.Spins); err != nil {
			return err
		}
		stats.Counter, err = counter.Current(txCtx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("import snapshot: %w", err)
	}

	s.logger.Info("Store imported", map[string]any{
		"users":        stats.Users,
		"codes_added":  stats.CodesAdded,
		"codes_kept":   stats.CodesKept,
		"spins_loaded": stats.SpinsLoaded,
		"counter":      stats.Counter,
	})
	return stats, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func orDefault(t *time.Time, fallback time.Time) time.Time {
	if t == nil || t.IsZero() {
		return fallback
	}
	return *t
}
