package spin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/prize"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/userlock"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/filestore"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/logger"
	coremocks "github.com/amirhossein-jamali/prize-wheel/mocks/port/core"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	ledger *ledger.Service
	store  *filestore.Store
	random *coremocks.MockRandomSource
}

func newFixture(t *testing.T, items []entity.PrizeItem, initialDocument string) fixture {
	t.Helper()
	mockTime := coremocks.NewMockTimeProvider(t)
	mockTime.EXPECT().Now().Return(fixedTime).Maybe()
	random := coremocks.NewMockRandomSource(t)
	random.EXPECT().Float64().Return(0.5).Maybe()
	log := logger.NewNoopLogger()

	fs := afero.NewMemMapFs()
	if initialDocument != "" {
		require.NoError(t, afero.WriteFile(fs, "/db.json", []byte(initialDocument), 0o644))
	}
	store, err := filestore.New(fs, "/db.json", 10*time.Second, mockTime, log)
	require.NoError(t, err)

	table, err := entity.NewPrizeTable(items)
	require.NoError(t, err)

	locker := userlock.NewKeyedLocker(log)
	ledgerSvc := ledger.NewService(store, locker, mockTime, log)
	svc := NewService(store, ledgerSvc, prize.NewSelector(random), table, locker, mockTime, log, DefaultCost)

	return fixture{svc: svc, ledger: ledgerSvc, store: store, random: random}
}

func defaultItems() []entity.PrizeItem {
	return []entity.PrizeItem{
		{Name: "Caneca", Weight: decimal.NewFromInt(1), Raw: []byte(`{"name":"Caneca","chance":1,"color":"#f00"}`)},
		{Name: "Camiseta", Weight: decimal.NewFromInt(1), Raw: []byte(`{"name":"Camiseta","chance":1}`)},
	}
}

func TestSpin_NoBalance(t *testing.T) {
	f := newFixture(t, defaultItems(), "")

	_, err := f.svc.Spin(context.Background(), "new-user")

	assert.ErrorIs(t, err, errs.ErrInsufficientBalance)
	require.NoError(t, persistence.RunInTransaction(context.Background(), f.store, func(txCtx context.Context) error {
		n, err := f.store.GetSpinCounterRepository(txCtx).Current(txCtx)
		assert.Equal(t, uint64(0), n, "a refused spin takes no sequence id")
		return err
	}))
}

func TestSpin_DebitsSequencesAndRecords(t *testing.T) {
	f := newFixture(t, defaultItems(), `{"users":{"player-1":{"saldo":1}},"codes":[],"spins":9}`)
	ctx := context.Background()

	result, err := f.svc.Spin(ctx, "player-1")
	require.NoError(t, err)

	assert.Equal(t, uint64(10), result.SequenceID)
	assert.Equal(t, "Caneca", result.Prize.Name)
	assert.JSONEq(t, `{"name":"Caneca","chance":1,"color":"#f00"}`, string(result.Prize.Raw))
	assert.Equal(t, int64(0), result.Balance)
	assert.Equal(t, fixedTime, result.Timestamp)

	balance, err := f.ledger.GetBalance(ctx, "player-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	history, err := f.svc.History(ctx, "player-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, uint64(10), history[0].SequenceID)
	assert.Equal(t, "Caneca", history[0].PrizeName)

	_, err = f.svc.Spin(ctx, "player-1")
	assert.True(t, errs.IsInsufficientBalanceError(err))
}

func TestSpin_ConcurrentSpinsWithOneCredit(t *testing.T) {
	f := newFixture(t, defaultItems(), `{"users":{"player-1":{"saldo":1}},"codes":[],"spins":0}`)

	var wg sync.WaitGroup
	errsCh := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Spin(context.Background(), "player-1")
			errsCh <- err
		}()
	}
	wg.Wait()
	close(errsCh)

	var ok, refused int
	for err := range errsCh {
		if err == nil {
			ok++
		} else if errs.IsInsufficientBalanceError(err) {
			refused++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, refused)
}

func TestSpin_ManyUsersGetDistinctSequentialIDs(t *testing.T) {
	f := newFixture(t, defaultItems(), "")
	ctx := context.Background()

	users := []string{"u-1", "u-2", "u-3", "u-4", "u-5"}
	for _, u := range users {
		_, err := f.ledger.Credit(ctx, u, 4)
		require.NoError(t, err)
	}

	ids := make(chan uint64, len(users)*4)
	var wg sync.WaitGroup
	for _, u := range users {
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(u string) {
				defer wg.Done()
				res, err := f.svc.Spin(ctx, u)
				if assert.NoError(t, err) {
					ids <- res.SequenceID
				}
			}(u)
		}
	}
	wg.Wait()
	close(ids)

	seen := map[uint64]bool{}
	for id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
	for id := uint64(1); id <= uint64(len(users)*4); id++ {
		assert.True(t, seen[id], "missing id %d", id)
	}
}

func TestSpin_ConfigurationErrorRollsBackDebit(t *testing.T) {
	zeroItems := []entity.PrizeItem{{Name: "Nada", Weight: decimal.Zero, Raw: []byte(`{}`)}}
	f := newFixture(t, zeroItems, `{"users":{"player-1":{"saldo":2}},"codes":[],"spins":3}`)
	ctx := context.Background()

	_, err := f.svc.Spin(ctx, "player-1")
	assert.ErrorIs(t, err, errs.ErrConfiguration)

	balance, err := f.ledger.GetBalance(ctx, "player-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance)
}

func TestNewService_DefaultsCost(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil, nil, logger.NewNoopLogger(), 0)
	assert.Equal(t, int64(DefaultCost), svc.cost)
}
