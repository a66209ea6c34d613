// Package memory is an in-memory SessionStore with optional TTL eviction.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopgrove/concierge/internal/domain"
	"github.com/shopgrove/concierge/internal/storage"
)

type entry struct {
	session  *domain.Session
	lastSeen time.Time
}

// Store is an in-memory implementation of SessionStore.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	done     chan struct{}
	closed   sync.Once
}

var _ storage.SessionStore = (*Store)(nil)

// New creates an in-memory store. A positive ttl starts a background sweep
// that evicts sessions idle longer than ttl.
func New(ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	if ttl > 0 {
		go s.sweep()
	}
	return s
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return e.session.Clone(), nil
}

func (s *Store) Put(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = &entry{session: session.Clone(), lastSeen: time.Now()}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Close stops the TTL sweeper. The store stays usable afterwards but no
// longer evicts.
func (s *Store) Close() error {
	s.closed.Do(func() { close(s.done) })
	return nil
}

func (s *Store) sweep() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, e := range s.sessions {
				if now.Sub(e.lastSeen) > s.ttl {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
