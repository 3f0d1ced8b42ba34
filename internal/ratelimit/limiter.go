// Package ratelimit implements the fixed-window request gate that guards
// the quote generation endpoint.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultLimit is the number of accepted calls per window.
	DefaultLimit = 5
	// DefaultWindow is the fixed window length.
	DefaultWindow = 60 * time.Second
	// AnonymousIdentifier is used when neither a wallet address nor a
	// network origin is available. All such callers share one bucket.
	AnonymousIdentifier = "anon"
)

// Record tracks one identifier's current window.
type Record struct {
	WindowStart time.Time
	Count       int
}

// Store holds rate records keyed by identifier. Implementations backed by
// a shared cache must make Get/Put consistent across instances; the
// in-process store here relies on the Limiter serializing access.
type Store interface {
	Get(identifier string) (Record, bool)
	Put(identifier string, rec Record)
}

// MemoryStore is the in-process Store. Records live for the lifetime of
// the process; there is no eviction.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(identifier string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[identifier]
	return rec, ok
}

func (s *MemoryStore) Put(identifier string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[identifier] = rec
}

// Len returns the number of tracked identifiers.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Limiter is a fixed-window counter: the first call from an identifier
// opens a window; once Count reaches the limit further calls are rejected
// until the window expires, at which point the next call resets it.
type Limiter struct {
	mu     sync.Mutex
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// New creates a limiter over the given store.
func New(store Store, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether a request from identifier may proceed, counting it
// if so. The read-modify-write is serialized so concurrent callers cannot
// lose increments.
func (l *Limiter) Allow(identifier string) bool {
	if identifier == "" {
		identifier = AnonymousIdentifier
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec, ok := l.store.Get(identifier)
	if !ok || now.Sub(rec.WindowStart) > l.window {
		l.store.Put(identifier, Record{WindowStart: now, Count: 1})
		return true
	}

	if rec.Count >= l.limit {
		return false
	}

	rec.Count++
	l.store.Put(identifier, rec)
	return true
}

// Identify resolves the rate-limit identifier for a request: wallet
// address when present, else the forwarded network origin, else the shared
// anonymous bucket.
func Identify(walletAddress, origin string) string {
	if walletAddress != "" {
		return walletAddress
	}
	if origin != "" {
		return origin
	}
	return AnonymousIdentifier
}
