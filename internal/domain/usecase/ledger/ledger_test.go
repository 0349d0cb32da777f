package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/usecase/userlock"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/filestore"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/logger"
	coremocks "github.com/amirhossein-jamali/prize-wheel/mocks/port/core"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *Service {
	t.Helper()
	mockTime := coremocks.NewMockTimeProvider(t)
	mockTime.EXPECT().Now().Return(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)).Maybe()
	log := logger.NewNoopLogger()

	store, err := filestore.New(afero.NewMemMapFs(), "/db.json", 10*time.Second, mockTime, log)
	require.NoError(t, err)
	return NewService(store, userlock.NewKeyedLocker(log), mockTime, log)
}

func TestGetBalance_NewUserStartsAtZero(t *testing.T) {
	svc := newTestLedger(t)

	balance, err := svc.GetBalance(context.Background(), "new-user")

	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestCreditAndDebit(t *testing.T) {
	svc := newTestLedger(t)
	ctx := context.Background()

	balance, err := svc.Credit(ctx, "user-1", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), balance)

	balance, err = svc.TryDebit(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), balance)

	_, err = svc.TryDebit(ctx, "user-1", 2)
	assert.True(t, errs.IsInsufficientBalanceError(err))

	balance, err = svc.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), balance, "a refused debit changes nothing")
}

func TestInvalidInput(t *testing.T) {
	svc := newTestLedger(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, "user-1", 0)
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)

	_, err = svc.TryDebit(ctx, "user-1", -1)
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)

	_, err = svc.GetBalance(ctx, "")
	assert.ErrorIs(t, err, errs.ErrInvalidIdentity)
}

func TestTryDebit_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	svc := newTestLedger(t)
	ctx := context.Background()

	const startBalance = 5
	const attempts = 30
	_, err := svc.Credit(ctx, "user-1", startBalance)
	require.NoError(t, err)

	var succeeded, refused atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.TryDebit(ctx, "user-1", 1)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errs.IsInsufficientBalanceError(err):
				refused.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(startBalance), succeeded.Load())
	assert.Equal(t, int32(attempts-startBalance), refused.Load())

	balance, err := svc.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestConcurrentCreditsAcrossUsers(t *testing.T) {
	svc := newTestLedger(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, user := range []string{"user-a", "user-b", "user-c"} {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(user string) {
				defer wg.Done()
				_, err := svc.Credit(ctx, user, 2)
				assert.NoError(t, err)
			}(user)
		}
	}
	wg.Wait()

	for _, user := range []string{"user-a", "user-b", "user-c"} {
		balance, err := svc.GetBalance(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, int64(20), balance, user)
	}
}
