// Package session holds the in-memory per-report analysis sessions: the
// uploaded raw table, the field mapping, the projected dataset, and the
// per-view filter state. Nothing is persisted; a session lives only as
// long as it is used.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/royaltylab/royalty-report-service/internal/analysis"
	"github.com/royaltylab/royalty-report-service/internal/domain"
	"github.com/royaltylab/royalty-report-service/internal/ingest"
)

// ErrNotFound is returned for unknown or expired report IDs.
var ErrNotFound = errors.New("report session not found")

// ErrClosed is returned once the store has been shut down.
var ErrClosed = errors.New("session store is closed")

// Session is one active report analysis. Requests against a session are
// serialized by its mutex: the engine is synchronous by design, and one
// mapping confirmation racing one aggregation has no useful meaning.
type Session struct {
	ID       string
	FileName string

	// Raw is kept until a mapping is confirmed so the user can remap
	// without re-uploading.
	Raw *ingest.Table

	// Proposed is the auto-detected mapping offered for confirmation.
	Proposed domain.Mapping

	// Confirmed is the validated mapping; nil until confirmation.
	Confirmed domain.Mapping

	// Dataset is the canonical record set; nil until confirmation.
	Dataset *domain.Dataset

	Filters *analysis.FilterState

	mu         sync.Mutex
	lastAccess time.Time
}

// Lock serializes one request against the session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Store is the thread-safe registry of active sessions with idle-TTL
// expiry. Time comes from an injected clock so tests can advance it.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	clock    clockwork.Clock
	closed   bool
}

// NewStore creates a Store expiring sessions idle longer than ttl.
func NewStore(ttl time.Duration, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		clock:    clock,
	}
}

// Create registers a new session for an uploaded table, replacing nothing:
// each upload is independent and gets a fresh ID, fresh filter state, and
// no mapping carried over from any earlier report.
func (s *Store) Create(fileName string, table *ingest.Table, proposed domain.Mapping) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	sess := &Session{
		ID:         uuid.NewString(),
		FileName:   fileName,
		Raw:        table,
		Proposed:   proposed,
		Filters:    analysis.NewFilterState(),
		lastAccess: s.clock.Now(),
	}
	s.sessions[sess.ID] = sess
	return sess, nil
}

// Get returns the session for an ID and refreshes its idle timer.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}
	sess.lastAccess = s.clock.Now()
	return sess, nil
}

// Delete drops a session. Unknown IDs are a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports the number of live (non-expired) sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sess := range s.sessions {
		if !s.expired(sess) {
			n++
		}
	}
	return n
}

// Purge removes every expired session and returns how many were dropped.
func (s *Store) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Sweep runs Purge on the given interval until the context is cancelled,
// reporting each non-empty purge to onPurge (which may be nil).
func (s *Store) Sweep(ctx context.Context, interval time.Duration, onPurge func(dropped int)) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if dropped := s.Purge(); dropped > 0 && onPurge != nil {
				onPurge(dropped)
			}
		}
	}
}

// Close marks the store shut down. Subsequent Create/Get calls fail, and
// readiness checks report the store unavailable.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sessions = make(map[string]*Session)
}

// CheckReadiness implements the HTTP adapter's readiness probe.
func (s *Store) CheckReadiness(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Store) expired(sess *Session) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.clock.Now().Sub(sess.lastAccess) > s.ttl
}
