package insql

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danilovkiri/dk-go-coletabot/internal/config"
	"github.com/danilovkiri/dk-go-coletabot/internal/models/modeldto"
	storageErrors "github.com/danilovkiri/dk-go-coletabot/internal/storage/v1/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	log := zerolog.Nop()
	cfg := &config.StorageConfig{
		DatabaseDSN:    filepath.Join(t.TempDir(), "coletas.db") + "?_busy_timeout=5000",
		DatabaseDriver: DriverSQLite,
		Timeout:        5 * time.Second,
	}
	st, err := InitStorage(context.Background(), cfg, &log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestInitStorage_UnsupportedDriver(t *testing.T) {
	log := zerolog.Nop()
	_, err := InitStorage(context.Background(), &config.StorageConfig{DatabaseDriver: "mysql", Timeout: time.Second}, &log)
	require.Error(t, err)
}

func TestInitStorage_TablesAreIdempotent(t *testing.T) {
	st := newTestStorage(t)
	require.NoError(t, st.createTables(context.Background()))
}

func TestUpsertCollection_Accumulates(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	_, err := st.UpsertCollection(ctx, "42", "Alice", 5)
	require.NoError(t, err)
	total, err := st.UpsertCollection(ctx, "42", "Alice B", 7)
	require.NoError(t, err)
	assert.Equal(t, modeldto.CollectionTotal{UserID: "42", DisplayName: "Alice B", BoxCount: 12}, *total)

	got, err := st.GetCollection(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, *total, *got)
}

func TestUpsertCollection_CheckConstraint(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	_, err := st.UpsertCollection(ctx, "42", "Alice", 2)
	require.NoError(t, err)
	_, err = st.UpsertCollection(ctx, "42", "Alice", -5)
	require.Error(t, err)
	assert.True(t, storageErrors.IsStoreError(err))

	got, err := st.GetCollection(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.BoxCount)
}

func TestGetCollection_NotFound(t *testing.T) {
	st := newTestStorage(t)
	_, err := st.GetCollection(context.Background(), "missing")
	assert.True(t, storageErrors.IsNotFound(err))
}

func TestUpsertSale_Overwrites(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	_, err := st.UpsertSale(ctx, modeldto.SaleRecord{UserID: "7", DisplayName: "Bob", Description: "ammo", Delivered: "Nao", Amount: 100})
	require.NoError(t, err)
	saved, err := st.UpsertSale(ctx, modeldto.SaleRecord{UserID: "7", DisplayName: "Bobby", Description: "more ammo", Delivered: "Sim", Amount: 0})
	require.NoError(t, err)

	got, err := st.GetSale(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, *saved, *got)
	assert.Equal(t, modeldto.SaleRecord{UserID: "7", DisplayName: "Bobby", Description: "more ammo", Delivered: "Sim", Amount: 0}, *got)

	_, err = st.GetSale(ctx, "8")
	assert.True(t, storageErrors.IsNotFound(err))
}

func TestTopCollections_OrderAndTieBreak(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()
	for _, c := range []modeldto.CollectionTotal{
		{UserID: "A", DisplayName: "A", BoxCount: 5},
		{UserID: "B", DisplayName: "B", BoxCount: 20},
		{UserID: "C", DisplayName: "C", BoxCount: 20},
		{UserID: "D", DisplayName: "D", BoxCount: 1},
	} {
		_, err := st.UpsertCollection(ctx, c.UserID, c.DisplayName, c.BoxCount)
		require.NoError(t, err)
	}

	top, err := st.TopCollections(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"B", "C", "A"}, []string{top[0].UserID, top[1].UserID, top[2].UserID})

	none, err := st.TopCollections(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTopCollections_Empty(t *testing.T) {
	st := newTestStorage(t)
	top, err := st.TopCollections(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, top)
	assert.Empty(t, top)
}

func TestSettings(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	value, err := st.GetSetting(ctx, "ranking_message_id")
	require.NoError(t, err)
	assert.Equal(t, "", value)

	require.NoError(t, st.SetSetting(ctx, "ranking_message_id", "1"))
	require.NoError(t, st.SetSetting(ctx, "ranking_message_id", "2"))
	value, err = st.GetSetting(ctx, "ranking_message_id")
	require.NoError(t, err)
	assert.Equal(t, "2", value)
}

func TestUpsertCollection_ConcurrentUsers(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, userID := range []string{"u1", "u2"} {
		for i := 1; i <= 10; i++ {
			wg.Add(1)
			go func(userID string, delta int64) {
				defer wg.Done()
				_, err := st.UpsertCollection(ctx, userID, userID, delta)
				assert.NoError(t, err)
			}(userID, int64(i))
		}
	}
	wg.Wait()

	for _, userID := range []string{"u1", "u2"} {
		got, err := st.GetCollection(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(55), got.BoxCount)
	}
}

func TestClassify_CancelledContext(t *testing.T) {
	st := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.UpsertCollection(ctx, "42", "Alice", 1)
	require.Error(t, err)
	var timeoutErr *storageErrors.ContextTimeoutExceededError
	assert.ErrorAs(t, err, &timeoutErr)
}
