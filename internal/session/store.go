package session

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Store keeps live conversations keyed by conversation ID. Idle sessions
// are evicted after the configured TTL; any access resets the clock.
type Store struct {
	cache        *ttlcache.Cache[string, *Session]
	systemPrompt string
}

func NewStore(ttl time.Duration, systemPrompt string) *Store {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	cache := ttlcache.New[string, *Session](
		ttlcache.WithTTL[string, *Session](ttl),
	)
	go cache.Start()
	return &Store{cache: cache, systemPrompt: systemPrompt}
}

// Stop halts the cache expiration loop.
func (s *Store) Stop() {
	s.cache.Stop()
}

// Get returns the session for id, creating it (seeded with the system
// prompt) on first use.
func (s *Store) Get(id string) *Session {
	item, _ := s.cache.GetOrSet(id, newSession(id, s.systemPrompt))
	return item.Value()
}

// Lookup returns the session for id without creating one.
func (s *Store) Lookup(id string) (*Session, bool) {
	item := s.cache.Get(id)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	return s.cache.Len()
}
