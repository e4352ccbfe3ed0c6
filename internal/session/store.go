// Package session provides a process-wide keyed store with explicit
// expiry. It exists for collaborators that hold short-lived third-party
// state (WebSocket connection tickets, device sessions) and is never
// consulted by the authorization core: tenant and role decisions stay
// independent of any session lifecycle.
package session

import (
	"sync"
	"time"
)

// Store maps opaque keys to values with a fixed TTL.
type Store struct {
	mu  sync.Mutex
	m   map[string]entry
	ttl time.Duration
}

type entry struct {
	value     any
	expiresAt time.Time
}

// New creates a Store whose entries expire after ttl.
func New(ttl time.Duration) *Store {
	return &Store{
		m:   make(map[string]entry),
		ttl: ttl,
	}
}

// Put stores value under key, replacing any previous entry.
func (s *Store) Put(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = entry{value: value, expiresAt: time.Now().Add(s.ttl)}
}

// Take returns and removes the value under key. Expired or missing
// entries report ok=false. Single use keeps tickets from being replayed.
func (s *Store) Take(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.m[key]
	if !ok {
		return nil, false
	}
	delete(s.m, key)
	if time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Delete removes the entry under key, if any.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

// Purge removes all expired entries and returns how many were dropped.
func (s *Store) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	n := 0
	for k, e := range s.m {
		if now.After(e.expiresAt) {
			delete(s.m, k)
			n++
		}
	}
	return n
}

// StartJanitor spawns a goroutine purging expired entries every interval.
// Returns a cancel function.
func (s *Store) StartJanitor(interval time.Duration) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.Purge()
			}
		}
	}()
	return func() { close(done) }
}

// Len returns the number of stored entries, including not-yet-purged
// expired ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
