package state

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store keeps survey sessions keyed by user id.
type Store interface {
	Get(userID int64) (Session, bool)
	Set(userID int64, session Session)
	Remove(userID int64)
	Lock(userID int64) (unlock func())
	Len() int
}

// MemoryStore is a process-local Store. Sessions never outlive the process.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]Session
	locks    map[int64]*userLock

	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

var _ Store = (*MemoryStore)(nil)

// Option customizes a MemoryStore.
type Option func(*MemoryStore)

// WithTTL makes Sweep drop sessions idle for longer than ttl. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *MemoryStore) { s.ttl = ttl }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

// WithLogger sets the logger used by the sweeper.
func WithLogger(logger *slog.Logger) Option {
	return func(s *MemoryStore) { s.logger = logger }
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[int64]Session),
		locks:    make(map[int64]*userLock),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the stored session.
func (s *MemoryStore) Get(userID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return sess.Clone(), true
}

// Set overwrites the session for userID and stamps UpdatedAt.
func (s *MemoryStore) Set(userID int64, session Session) {
	stored := session.Clone()
	stored.UserID = userID
	stored.UpdatedAt = s.now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.UpdatedAt
	}

	s.mu.Lock()
	s.sessions[userID] = stored
	s.mu.Unlock()
}

func (s *MemoryStore) Remove(userID int64) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Lock blocks until the caller holds the per-user lock. Different users do
// not contend with each other beyond the short map access.
func (s *MemoryStore) Lock(userID int64) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			s.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(s.locks, userID)
			}
			s.mu.Unlock()
		})
	}
}

// Sweep removes sessions whose UpdatedAt is older than the TTL and returns
// how many were dropped. Sessions whose user lock is currently held are kept.
func (s *MemoryStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if !sess.UpdatedAt.Before(cutoff) {
			continue
		}
		if _, busy := s.locks[id]; busy {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				s.logger.Info("sessions.swept", slog.Int("removed", n), slog.Int("remaining", s.Len()))
			}
		}
	}
}
