package cache

import (
	"context"
	"testing"
	"time"

	"go-sentinel/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() config.Settings {
	return config.Settings{
		CacheExpiry:      12 * time.Hour,
		LongCacheExpiry:  168 * time.Hour,
		StatsCacheExpiry: 3 * time.Hour,
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backend, err := NewInMemoryBackend()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	return NewStore(backend, testSettings())
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	type record struct {
		Name string `json:"name"`
		ID   int32  `json:"id"`
	}

	store.Put(ctx, NamespaceNameID, "ccp falcon", record{Name: "CCP Falcon", ID: 92532650}, 0)

	var got record
	hit, err := store.Get(ctx, NamespaceNameID, "ccp falcon", &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "CCP Falcon", got.Name)
	assert.Equal(t, int32(92532650), got.ID)
}

func TestStoreMissOnUnknownKey(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	var got string
	hit, err := store.Get(ctx, NamespaceCorporation, "98356193", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestStoreExpiryRejectsOldEntries(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	now := time.Now()
	store.now = func() time.Time { return now }
	store.Put(ctx, NamespaceAffiliation, "12345", "value", time.Hour)

	// Still valid just inside the TTL
	store.now = func() time.Time { return now.Add(59 * time.Minute) }
	var got string
	hit, err := store.Get(ctx, NamespaceAffiliation, "12345", &got)
	require.NoError(t, err)
	assert.True(t, hit)

	// Rejected once the TTL has elapsed
	store.now = func() time.Time { return now.Add(61 * time.Minute) }
	hit, err = store.Get(ctx, NamespaceAffiliation, "12345", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestStoreStaleSchemaIsMiss(t *testing.T) {
	ctx := context.Background()
	backend, err := NewInMemoryBackend()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	store := NewStore(backend, testSettings())

	// Write an entry claiming an older schema directly through the backend
	old := `{"value":"\"stale\"","timestamp":"2026-01-01T00:00:00Z","ttl_ms":999999999,"schema_version":1}`
	require.NoError(t, backend.Set(ctx, "corporation:1000", []byte(old), 0))

	var got string
	hit, err := store.Get(ctx, NamespaceCorporation, "1000", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	// The stale entry was deleted opportunistically
	_, found, err := backend.Get(ctx, "corporation:1000")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoreCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	backend, err := NewInMemoryBackend()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	store := NewStore(backend, testSettings())

	require.NoError(t, backend.Set(ctx, "alliance:99", []byte("{not json"), 0))

	var got string
	hit, err := store.Get(ctx, NamespaceAlliance, "99", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestStoreSweepRemovesExpired(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	now := time.Now()
	store.now = func() time.Time { return now }
	store.Put(ctx, NamespaceNameID, "a", "1", time.Minute)
	store.Put(ctx, NamespaceNameID, "b", "2", time.Hour)

	store.now = func() time.Time { return now.Add(30 * time.Minute) }
	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	var got string
	hit, _ := store.Get(ctx, NamespaceNameID, "b", &got)
	assert.True(t, hit)
}

func TestTieredSessionFront(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	session := NewSession()
	tiered := NewTiered(session, store)

	PutTyped(ctx, tiered, NamespaceNameID, "zirnitra", int32(77283))

	// First read may come from either tier; subsequent reads hit the session
	v, ok := GetTyped[int32](ctx, tiered, NamespaceNameID, "zirnitra")
	require.True(t, ok)
	assert.Equal(t, int32(77283), v)

	before := tiered.Counters().LocalLookups()
	_, ok = GetTyped[int32](ctx, tiered, NamespaceNameID, "zirnitra")
	require.True(t, ok)
	assert.Equal(t, before+1, tiered.Counters().LocalLookups())
}

func TestTieredStoreHitPopulatesSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	store.Put(ctx, NamespaceNameID, "rifter", int32(587), 0)

	tiered := NewTiered(NewSession(), store)

	// Durable hit, not a session hit
	v, ok := GetTyped[int32](ctx, tiered, NamespaceNameID, "rifter")
	require.True(t, ok)
	assert.Equal(t, int32(587), v)
	assert.Equal(t, int64(0), tiered.Counters().LocalLookups())

	// Session now holds the value
	_, ok = GetTyped[int32](ctx, tiered, NamespaceNameID, "rifter")
	require.True(t, ok)
	assert.Equal(t, int64(1), tiered.Counters().LocalLookups())
}
