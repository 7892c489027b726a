package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noine32/deadstock-search-replit/storage"
	"github.com/noine32/deadstock-search-replit/stockparser/entities"
)

func testStore(t *testing.T) *storage.Store {
	t.Helper()

	store, err := storage.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func TestRunCleanupDeletesExpiredRecords(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	records := []entities.ReconciledRecord{{YJCode: "YJ00000001", ProductName: "薬A", Quantity: 1}}
	require.NoError(t, store.SaveRecords(ctx, records, time.Now().AddDate(0, 0, -120)))
	require.NoError(t, store.SaveRecords(ctx, records, time.Now()))

	s := NewScheduler(store, 90)
	require.NoError(t, s.RunCleanup(ctx))

	rows, err := store.RecentRecords(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.WithinDuration(t, time.Now(), s.LastSweep(), 5*time.Second)
}

func TestRunCleanupKeepsRecentRecords(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	records := []entities.ReconciledRecord{{YJCode: "YJ00000001", ProductName: "薬A", Quantity: 1}}
	require.NoError(t, store.SaveRecords(ctx, records, time.Now()))

	s := NewScheduler(store, 90)
	require.NoError(t, s.RunCleanup(ctx))

	rows, err := store.RecentRecords(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

type failingStore struct{}

func (failingStore) Ping(ctx context.Context) error { return nil }

func (failingStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, errors.New("database gone")
}

func TestRunCleanupPropagatesStoreError(t *testing.T) {
	s := NewScheduler(failingStore{}, 90)
	err := s.RunCleanup(context.Background())
	require.Error(t, err)
	assert.True(t, s.LastSweep().IsZero())
}
