package cache

import (
	"context"
	"sync"
)

// Counters tracks lookup activity for a single query session. Values are
// monotone and reset only when a new session begins.
type Counters struct {
	mu           sync.Mutex
	esiLookups   int64
	localLookups int64
}

func (c *Counters) IncrESILookups() {
	c.mu.Lock()
	c.esiLookups++
	c.mu.Unlock()
}

func (c *Counters) IncrLocalLookups() {
	c.mu.Lock()
	c.localLookups++
	c.mu.Unlock()
}

func (c *Counters) ESILookups() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.esiLookups
}

func (c *Counters) LocalLookups() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localLookups
}

// Snapshot returns both counters atomically with respect to each other.
func (c *Counters) Snapshot() (esi int64, local int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.esiLookups, c.localLookups
}

// Reset zeroes both counters at the start of a new query.
func (c *Counters) Reset() {
	c.mu.Lock()
	c.esiLookups = 0
	c.localLookups = 0
	c.mu.Unlock()
}

// Session is the hot in-memory front for the durable store, scoped to one
// query session. Hits here never touch the durable layer.
type Session struct {
	mu       sync.RWMutex
	values   map[string]any
	counters *Counters
}

// NewSession creates an empty session cache with fresh counters.
func NewSession() *Session {
	return &Session{
		values:   make(map[string]any),
		counters: &Counters{},
	}
}

// Counters exposes the session's lookup counters.
func (s *Session) Counters() *Counters {
	return s.counters
}

func (s *Session) get(ns Namespace, key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[storageKey(ns, key)]
	return v, ok
}

func (s *Session) put(ns Namespace, key string, value any) {
	s.mu.Lock()
	s.values[storageKey(ns, key)] = value
	s.mu.Unlock()
}

// Tiered combines the session cache and the durable store with get-through
// semantics: session hits count as local lookups, store hits re-populate the
// session, and writes land in both tiers.
type Tiered struct {
	session *Session
	store   *Store
}

// NewTiered wires a session in front of a store.
func NewTiered(session *Session, store *Store) *Tiered {
	return &Tiered{session: session, store: store}
}

// GetTyped looks up (ns, key) through both tiers. The zero value of T and
// false are returned on miss.
func GetTyped[T any](ctx context.Context, t *Tiered, ns Namespace, key string) (T, bool) {
	var zero T

	if v, ok := t.session.get(ns, key); ok {
		if typed, ok := v.(T); ok {
			t.session.counters.IncrLocalLookups()
			return typed, true
		}
	}

	var value T
	hit, _ := t.store.Get(ctx, ns, key, &value)
	if !hit {
		return zero, false
	}
	t.session.put(ns, key, value)
	return value, true
}

// PutTyped writes a value into both tiers.
func PutTyped[T any](ctx context.Context, t *Tiered, ns Namespace, key string, value T) {
	t.session.put(ns, key, value)
	t.store.Put(ctx, ns, key, value, 0)
}

// Counters exposes the session counters through the tiered view.
func (t *Tiered) Counters() *Counters {
	return t.session.counters
}

// Store exposes the durable tier for call sites that bypass the session.
func (t *Tiered) Store() *Store {
	return t.store
}
