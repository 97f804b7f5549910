package wizard

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound signals an unknown or expired session id.
var ErrSessionNotFound = errors.New("session not found")

type storeEntry struct {
	session *Session
	expires time.Time
}

// Store keeps live sessions in memory. Sessions expire after the
// configured idle TTL; every Get refreshes the deadline.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*storeEntry
	ttl      time.Duration
	cfg      Config
	stop     chan struct{}
	stopOnce sync.Once
}

// NewStore builds a store and starts the expiry sweeper.
func NewStore(cfg Config, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s := &Store{
		sessions: make(map[string]*storeEntry),
		ttl:      ttl,
		cfg:      cfg,
		stop:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Create starts a fresh session.
func (s *Store) Create() *Session {
	sess := NewSession(uuid.NewString(), s.cfg)

	s.mu.Lock()
	s.sessions[sess.ID()] = &storeEntry{session: sess, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	return sess
}

// Get returns a live session and refreshes its deadline.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok || time.Now().After(entry.expires) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	entry.expires = time.Now().Add(s.ttl)
	return entry.session, nil
}

// Len reports the number of sessions currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops the expiry sweeper.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) sweep() {
	interval := s.ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, entry := range s.sessions {
				if now.After(entry.expires) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
