package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go-sentinel/internal/stats/models"
	"go-sentinel/pkg/cache"
	"go-sentinel/pkg/config"
	"go-sentinel/pkg/killboard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *cache.Tiered) {
	t.Helper()

	backend, err := cache.NewInMemoryBackend()
	require.NoError(t, err)
	settings := config.Settings{
		CacheExpiry:         12 * time.Hour,
		LongCacheExpiry:     168 * time.Hour,
		StatsCacheExpiry:    3 * time.Hour,
		StatsMinInterval:    time.Millisecond,
		StatsRequestTimeout: time.Second,
		StatsMaxRetries:     1,
		MaxKillmailsToFetch: 100,
		KillmailBatchSize:   10,
		KillmailFetchDelay:  time.Millisecond,
	}
	store := cache.NewStore(backend, settings)
	t.Cleanup(func() { store.Close() })
	tiered := cache.NewTiered(cache.NewSession(), store)

	scheduler := killboard.NewScheduler(killboard.SchedulerConfig{
		MinInterval:    settings.StatsMinInterval,
		RequestTimeout: settings.StatsRequestTimeout,
		MaxRetries:     settings.StatsMaxRetries,
	})
	scheduler.Start()
	t.Cleanup(scheduler.Stop)

	svc := NewService(tiered, killboard.NewClient(scheduler, settings), nil, settings)
	return svc, tiered
}

func seedBundle(t *testing.T, tiered *cache.Tiered, kind string, id int64) {
	t.Helper()
	bundle := models.StatsBundle{
		Kind: kind,
		ID:   id,
		Name: fmt.Sprintf("Entity %d", id),
	}
	key := fmt.Sprintf("%s:%d", kind, id)
	cache.PutTyped(context.Background(), tiered, cache.NamespaceStats, key, bundle)
}

func TestLoadServesWarmCacheWithoutKillboard(t *testing.T) {
	svc, tiered := newTestService(t)
	seedBundle(t, tiered, "corporation", 42)

	// No killboard backend is reachable in tests, so a cache miss would fail
	bundle, err := svc.Load(context.Background(), "corporation", 42, "")
	require.NoError(t, err)
	assert.Equal(t, int64(42), bundle.ID)
	assert.Equal(t, StateRendered, svc.State())
}

func TestHistoryStackIsBounded(t *testing.T) {
	svc, tiered := newTestService(t)
	for i := int64(1); i <= 12; i++ {
		seedBundle(t, tiered, "corporation", i)
	}

	for i := int64(1); i <= 12; i++ {
		_, err := svc.Load(context.Background(), "corporation", i, "")
		require.NoError(t, err)
	}

	history := svc.History()
	require.Len(t, history, 10)
	// Oldest entries fell off the bottom of the stack
	assert.Equal(t, int64(2), history[0].ID)
	assert.Equal(t, int64(11), history[9].ID)
}

func TestBackPopsAndReloads(t *testing.T) {
	svc, tiered := newTestService(t)
	seedBundle(t, tiered, "corporation", 1)
	seedBundle(t, tiered, "character", 2)

	_, err := svc.Load(context.Background(), "corporation", 1, "")
	require.NoError(t, err)
	_, err = svc.Load(context.Background(), "character", 2, "")
	require.NoError(t, err)

	bundle, popped, err := svc.Back(context.Background())
	require.NoError(t, err)
	require.True(t, popped)
	assert.Equal(t, int64(1), bundle.ID)
	assert.Equal(t, "corporation", bundle.Kind)

	// Back does not push the entity it navigated away from
	assert.Empty(t, svc.History())
}

func TestBackOnEmptyHistory(t *testing.T) {
	svc, _ := newTestService(t)

	bundle, popped, err := svc.Back(context.Background())
	require.NoError(t, err)
	assert.False(t, popped)
	assert.Nil(t, bundle)
}

func TestLoadMissFailsAgainstUnreachableBackend(t *testing.T) {
	t.Setenv("KILLBOARD_BASE_URL", "http://127.0.0.1:1")

	svc, _ := newTestService(t)

	_, err := svc.Load(context.Background(), "corporation", 7, "")
	require.Error(t, err)
	assert.Equal(t, StateError, svc.State())
}

func TestFailedLoadDoesNotPushHistory(t *testing.T) {
	t.Setenv("KILLBOARD_BASE_URL", "http://127.0.0.1:1")

	svc, tiered := newTestService(t)
	seedBundle(t, tiered, "corporation", 1)

	_, err := svc.Load(context.Background(), "corporation", 1, "")
	require.NoError(t, err)

	// The drill-down target is not cached and the backend is unreachable
	_, err = svc.Load(context.Background(), "character", 2, "")
	require.Error(t, err)

	// The entity still on screen must not end up duplicated on the stack
	assert.Empty(t, svc.History())
	_, popped, err := svc.Back(context.Background())
	require.NoError(t, err)
	assert.False(t, popped)
}
