package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/skinstore/internal/orders/ports"
)

type entry struct {
	response  ports.StoredResponse
	expiresAt time.Time
}

// Store keeps replayable responses in process memory. The first response saved
// for a key wins until it expires. A reservation is an entry with a pending
// response.
type Store struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]entry
}

// NewStore creates an in-memory store. A ttl of zero keeps entries forever.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]entry),
	}
}

func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	if s.expired(e) {
		delete(s.items, key)
		return nil, nil
	}

	resp := e.response
	resp.Body = append([]byte(nil), e.response.Body...)
	return &resp, nil
}

func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.items[key]; ok && !s.expired(e) && !e.response.Pending() {
		return nil
	}

	response.Body = append([]byte(nil), response.Body...)
	e := entry{response: response}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.items[key] = e
	return nil
}

// Reserve claims key with a pending entry unless a live entry holds it.
func (s *Store) Reserve(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.items[key]; ok && !s.expired(e) {
		return false, nil
	}

	e := entry{}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.items[key] = e
	return true, nil
}

// Release removes a pending entry. A saved response is left in place.
func (s *Store) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.items[key]; ok && e.response.Pending() {
		delete(s.items, key)
	}
	return nil
}

// Purge drops expired entries and reports how many were removed.
func (s *Store) Purge(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key, e := range s.items {
		if s.expired(e) {
			delete(s.items, key)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
