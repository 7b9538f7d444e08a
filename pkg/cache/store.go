package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go-sentinel/pkg/config"
)

// SchemaVersion is stored with every entry. Entries written by an older
// schema are treated as misses and deleted opportunistically.
const SchemaVersion = 2

// Namespace identifies a cache collection with its own default TTL.
type Namespace string

const (
	NamespaceNameID       Namespace = "nameid"
	NamespaceAffiliation  Namespace = "affiliation"
	NamespaceCorporation  Namespace = "corporation"
	NamespaceAlliance     Namespace = "alliance"
	NamespaceUniverseName Namespace = "universe_name"
	NamespaceStats        Namespace = "stats"
	NamespaceKillmail     Namespace = "killmail"
)

// Entry is the durable record shape: the raw value plus insertion metadata.
type Entry struct {
	Value         json.RawMessage `json:"value"`
	InsertedAt    time.Time       `json:"timestamp"`
	TTLMs         int64           `json:"ttl_ms"`
	SchemaVersion int             `json:"schema_version"`
}

// Expired reports whether the entry is past its TTL at the given instant.
func (e *Entry) Expired(now time.Time) bool {
	return now.Sub(e.InsertedAt) > time.Duration(e.TTLMs)*time.Millisecond
}

// Backend is the durable key/value layer beneath the Store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// ForEach visits every stored key/value pair; used by Sweep.
	ForEach(ctx context.Context, fn func(key string, data []byte) error) error
	Close() error
}

// Store is the typed TTL-bound cache over a durable backend.
type Store struct {
	backend Backend
	ttls    map[Namespace]time.Duration
	now     func() time.Time
}

// NewStore creates a Store with per-namespace default TTLs from Settings.
func NewStore(backend Backend, settings config.Settings) *Store {
	return &Store{
		backend: backend,
		ttls: map[Namespace]time.Duration{
			NamespaceNameID:       settings.CacheExpiry,
			NamespaceAffiliation:  settings.CacheExpiry,
			NamespaceCorporation:  settings.CacheExpiry,
			NamespaceAlliance:     settings.CacheExpiry,
			NamespaceUniverseName: settings.LongCacheExpiry,
			NamespaceStats:        settings.StatsCacheExpiry,
			NamespaceKillmail:     settings.LongCacheExpiry,
		},
		now: time.Now,
	}
}

// DefaultTTL returns the configured TTL for a namespace.
func (s *Store) DefaultTTL(ns Namespace) time.Duration {
	if ttl, ok := s.ttls[ns]; ok {
		return ttl
	}
	return 12 * time.Hour
}

func storageKey(ns Namespace, key string) string {
	return string(ns) + ":" + key
}

// Get retrieves an entry and unmarshals its value into dest. Expired or
// stale-schema entries are misses and are removed opportunistically. Backend
// read errors are demoted to misses; the caller falls through to the source.
func (s *Store) Get(ctx context.Context, ns Namespace, key string, dest any) (bool, error) {
	sk := storageKey(ns, key)

	data, found, err := s.backend.Get(ctx, sk)
	if err != nil {
		slog.WarnContext(ctx, "Cache read failed, treating as miss",
			"namespace", ns, "key", key, "error", err)
		return false, nil
	}
	if !found {
		return false, nil
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		slog.WarnContext(ctx, "Corrupt cache entry, deleting",
			"namespace", ns, "key", key, "error", err)
		_ = s.backend.Delete(ctx, sk)
		return false, nil
	}

	if entry.SchemaVersion < SchemaVersion || entry.Expired(s.now()) {
		_ = s.backend.Delete(ctx, sk)
		return false, nil
	}

	if err := json.Unmarshal(entry.Value, dest); err != nil {
		_ = s.backend.Delete(ctx, sk)
		return false, nil
	}
	return true, nil
}

// Put stores a value under (namespace, key). A zero ttl uses the namespace
// default. Write errors are logged and discarded; the cache is best-effort.
func (s *Store) Put(ctx context.Context, ns Namespace, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.DefaultTTL(ns)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		slog.WarnContext(ctx, "Failed to marshal cache value",
			"namespace", ns, "key", key, "error", err)
		return
	}

	entry := Entry{
		Value:         raw,
		InsertedAt:    s.now(),
		TTLMs:         ttl.Milliseconds(),
		SchemaVersion: SchemaVersion,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		slog.WarnContext(ctx, "Failed to marshal cache entry",
			"namespace", ns, "key", key, "error", err)
		return
	}

	if err := s.backend.Set(ctx, storageKey(ns, key), data, ttl); err != nil {
		slog.WarnContext(ctx, "Cache write failed",
			"namespace", ns, "key", key, "error", err)
	}
}

// Sweep removes expired and stale-schema entries. Run at startup and on a
// periodic schedule.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	var stale []string
	now := s.now()

	err := s.backend.ForEach(ctx, func(key string, data []byte) error {
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			stale = append(stale, key)
			return nil
		}
		if entry.SchemaVersion < SchemaVersion || entry.Expired(now) {
			stale = append(stale, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache sweep scan: %w", err)
	}

	if len(stale) > 0 {
		if err := s.backend.Delete(ctx, stale...); err != nil {
			return 0, fmt.Errorf("cache sweep delete: %w", err)
		}
	}

	slog.InfoContext(ctx, "Cache sweep completed", "removed", len(stale))
	return len(stale), nil
}

// Close releases the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
