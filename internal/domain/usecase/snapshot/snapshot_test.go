package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/filestore"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/logger"
	coremocks "github.com/amirhossein-jamali/prize-wheel/mocks/port/core"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T, document string) (*Service, *filestore.Store) {
	t.Helper()
	mockTime := coremocks.NewMockTimeProvider(t)
	mockTime.EXPECT().Now().Return(fixedTime).Maybe()
	fs := afero.NewMemMapFs()
	if document != "" {
		require.NoError(t, afero.WriteFile(fs, "/db.json", []byte(document), 0o644))
	}
	store, err := filestore.New(fs, "/db.json", time.Second, mockTime, logger.NewNoopLogger())
	require.NoError(t, err)
	return NewService(store, mockTime, logger.NewNoopLogger()), store
}

func TestExport(t *testing.T) {
	svc, _ := newService(t, `{"users":{"u1":{"saldo":2}},"codes":[{"code":"abc","amount":5,"used":true}],"spins":12,
		"history":[{"id":12,"user":"u1","prize":"Caneca","createdAt":"2024-05-01T10:00:00Z"}]}`)

	snap, err := svc.Export(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Users["u1"].Saldo)
	require.Len(t, snap.Codes, 1)
	assert.Equal(t, "ABC", snap.Codes[0].Code)
	assert.True(t, snap.Codes[0].Used)
	assert.Equal(t, uint64(12), snap.Spins)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "Caneca", snap.History[0].Prize)
}

func TestImport_Merges(t *testing.T) {
	svc, store := newService(t, `{"users":{"u1":{"saldo":2},"u2":{"saldo":9}},"codes":[{"code":"KEEP","amount":1,"used":true}],"spins":20}`)

	stats, err := svc.Import(context.Background(), &persistence.Snapshot{
		Users: map[string]persistence.SnapshotUser{"u1": {Saldo: 7}, "u3": {Saldo: 1}},
		Codes: []persistence.SnapshotCode{
			{Code: "keep", Amount: 50, Used: false},
			{Code: "new", Amount: 3},
		},
		Spins: 15,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Users)
	assert.Equal(t, 1, stats.CodesAdded)
	assert.Equal(t, 1, stats.CodesKept)
	assert.Equal(t, uint64(20), stats.Counter, "the counter never moves backwards")

	require.NoError(t, persistence.RunInTransaction(context.Background(), store, func(txCtx context.Context) error {
		users := store.GetUserRepository(txCtx)
		for token, want := range map[string]int64{"u1": 7, "u2": 9, "u3": 1} {
			u, err := users.GetOrCreate(txCtx, token)
			require.NoError(t, err)
			assert.Equal(t, want, u.Balance(), token)
		}

		kept, err := store.GetRedemptionCodeRepository(txCtx).GetForUpdate(txCtx, "KEEP")
		require.NoError(t, err)
		assert.True(t, kept.Used, "existing codes are never reset by an import")
		assert.Equal(t, int64(1), kept.Amount)
		return nil
	}))
}

func TestImport_RaisesCounterAndLoadsHistory(t *testing.T) {
	svc, _ := newService(t, "")

	stats, err := svc.Import(context.Background(), &persistence.Snapshot{
		Users: map[string]persistence.SnapshotUser{},
		Spins: 2,
		History: []persistence.SnapshotSpin{
			{ID: 1, User: "u1", Prize: "A", CreatedAt: fixedTime},
			{ID: 2, User: "u1", Prize: "B", CreatedAt: fixedTime},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Counter)
	assert.Equal(t, 2, stats.SpinsLoaded)

	snap, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.History, 2)
}

func TestImport_RejectsInvalidEntriesAtomically(t *testing.T) {
	svc, _ := newService(t, `{"users":{},"codes":[],"spins":0}`)

	_, err := svc.Import(context.Background(), &persistence.Snapshot{
		Users: map[string]persistence.SnapshotUser{"ok-user": {Saldo: 1}},
		Codes: []persistence.SnapshotCode{{Code: "BAD", Amount: 0}},
	})
	require.Error(t, err)

	snap, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Users)
	assert.Empty(t, snap.Codes)
}

func TestImport_Nil(t *testing.T) {
	svc, _ := newService(t, "")
	_, err := svc.Import(context.Background(), nil)
	assert.Error(t, err)
}
