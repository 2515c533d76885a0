// Package session owns the lifecycle of in-memory conversation sessions:
// creation, lookup with lazy expiry, bounded history, and a periodic sweep
// of expired entries.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout is how long a session stays reachable without activity.
	DefaultTimeout = 24 * time.Hour
	// DefaultMaxHistory bounds the number of messages kept per session.
	// Oldest messages are dropped first.
	DefaultMaxHistory = 10
	// DefaultCleanupInterval is how often the background sweep runs.
	DefaultCleanupInterval = time.Hour
)

// Role identifies the author of a stored message. System prompts are never
// stored in history.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single history entry. Immutable once appended.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Session holds the conversation state for one visitor.
type Session struct {
	ID           string
	History      []Message
	CreatedAt    time.Time
	LastActivity time.Time
}

// Stats is a read-only diagnostic snapshot of the store.
type Stats struct {
	TotalSessions        int     `json:"totalSessions"`
	SessionAges          []int   `json:"sessionAges"`
	AverageHistoryLength float64 `json:"averageHistoryLength"`
}

// Store is a thread-safe in-memory session map with time-based expiry.
// Sessions are never persisted and never shared across processes.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	timeout         time.Duration
	maxHistory      int
	cleanupInterval time.Duration

	logger *zap.Logger
	done   chan struct{}
	once   sync.Once

	// now is a seam for expiry tests.
	now func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithTimeout overrides the session inactivity timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxHistory overrides the per-session history bound.
func WithMaxHistory(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithCleanupInterval overrides the sweep interval.
func WithCleanupInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.cleanupInterval = d
		}
	}
}

// NewStore creates an empty session store. Call Start to launch the periodic
// cleanup sweep and Close to stop it.
func NewStore(logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		sessions:        make(map[string]*Session),
		timeout:         DefaultTimeout,
		maxHistory:      DefaultMaxHistory,
		cleanupInterval: DefaultCleanupInterval,
		logger:          logger,
		done:            make(chan struct{}),
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create generates a new session with a fresh unpredictable id and inserts it
// into the store.
func (s *Store) Create() *Session {
	now := s.now()
	session := &Session{
		ID:           newSessionID(),
		History:      []Message{},
		CreatedAt:    now,
		LastActivity: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Debug("created new session", zap.String("session_id", session.ID))

	return session
}

// Get returns the session with the given id, touching its last activity.
// Expired sessions are deleted on access and reported as missing.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getLocked(id)
}

func (s *Store) getLocked(id string) (*Session, bool) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}

	now := s.now()
	if now.Sub(session.LastActivity) > s.timeout {
		delete(s.sessions, id)
		s.logger.Debug("session expired", zap.String("session_id", id))
		return nil, false
	}

	session.LastActivity = now

	return session, true
}

// GetOrCreate resolves the given id, falling back to a brand-new session when
// the id is empty, unknown, or expired. Callers must read back the returned
// session's id; the supplied one may not have survived.
func (s *Store) GetOrCreate(id string) *Session {
	if id != "" {
		if session, ok := s.Get(id); ok {
			return session
		}
	}

	return s.Create()
}

// AddMessage appends a message to the session's history, truncating the
// oldest entries beyond the history bound. Unknown sessions are a warning,
// not an error.
func (s *Store) AddMessage(id string, role Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.getLocked(id)
	if !ok {
		s.logger.Warn("cannot add message to non-existent session", zap.String("session_id", id))
		return
	}

	session.History = append(session.History, Message{
		Role:      role,
		Content:   content,
		Timestamp: s.now().Format(time.RFC3339),
	})

	if len(session.History) > s.maxHistory {
		session.History = session.History[len(session.History)-s.maxHistory:]
	}

	session.LastActivity = s.now()
}

// History returns a copy of the session's message history. Unknown sessions
// yield an empty slice.
func (s *Store) History(id string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.getLocked(id)
	if !ok {
		return []Message{}
	}

	history := make([]Message, len(session.History))
	copy(history, session.History)

	return history
}

// Clear deletes the session and reports whether a deletion occurred.
func (s *Store) Clear(id string) bool {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		s.logger.Debug("cleared session", zap.String("session_id", id))
	}

	return ok
}

// CleanupExpired scans the whole map once and deletes every expired session,
// returning the number deleted.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cleaned := 0

	for id, session := range s.sessions {
		if now.Sub(session.LastActivity) > s.timeout {
			delete(s.sessions, id)
			cleaned++
		}
	}

	if cleaned > 0 {
		s.logger.Info("cleaned up expired sessions", zap.Int("count", cleaned))
	}

	return cleaned
}

// Stats returns a diagnostic snapshot: session count, per-session age in
// whole minutes, and average history length.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stats := Stats{
		TotalSessions: len(s.sessions),
		SessionAges:   make([]int, 0, len(s.sessions)),
	}

	totalHistory := 0
	for _, session := range s.sessions {
		stats.SessionAges = append(stats.SessionAges, int(now.Sub(session.CreatedAt).Minutes()))
		totalHistory += len(session.History)
	}

	if len(s.sessions) > 0 {
		stats.AverageHistoryLength = float64(totalHistory) / float64(len(s.sessions))
	}

	return stats
}

// Start runs an immediate sweep and then launches the periodic cleanup
// goroutine. Stop it with Close.
func (s *Store) Start() {
	s.CleanupExpired()

	go func() {
		ticker := time.NewTicker(s.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.CleanupExpired()
			case <-s.done:
				return
			}
		}
	}()

	s.logger.Info("session cleanup scheduled", zap.Duration("interval", s.cleanupInterval))
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// newSessionID returns 128 bits of randomness, hex-encoded.
func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// time-derived id rather than panic.
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(buf)
}
