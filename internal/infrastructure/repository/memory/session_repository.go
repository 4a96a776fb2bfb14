package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
)

const DefaultSessionTTL = 6 * time.Hour

type sessionEntry struct {
	// mu serializes pipeline steps on one session; the repository lock is
	// never held while fn runs.
	mu      sync.Mutex
	session domain.Session
	touched time.Time
}

type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionRepository keeps sessions in process memory. Sessions idle for
// longer than ttl are dropped lazily; ttl <= 0 keeps them forever.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *SessionRepository) Create(_ context.Context, session domain.Session) error {
	if session.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "create session", errors.New("session id is empty"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictExpiredLocked()

	if _, exists := r.sessions[session.ID]; exists {
		return domain.WrapError(domain.ErrInvalidInput, "create session", fmt.Errorf("session %s already exists", session.ID))
	}
	r.sessions[session.ID] = &sessionEntry{session: session.Clone(), touched: r.now()}
	return nil
}

func (r *SessionRepository) Get(_ context.Context, id string) (domain.Session, error) {
	entry, err := r.entry(id)
	if err != nil {
		return domain.Session{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.session.Clone(), nil
}

// Update runs fn with exclusive access to the session. The stored value is
// replaced only when fn succeeds.
func (r *SessionRepository) Update(ctx context.Context, id string, fn func(domain.Session) (domain.Session, error)) (domain.Session, error) {
	entry, err := r.entry(id)
	if err != nil {
		return domain.Session{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	updated, err := fn(entry.session.Clone())
	if err != nil {
		return domain.Session{}, err
	}
	updated.ID = id
	entry.session = updated.Clone()

	r.mu.Lock()
	entry.touched = r.now()
	r.mu.Unlock()
	return updated, nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "delete session", fmt.Errorf("session %s", id))
	}
	delete(r.sessions, id)
	return nil
}

func (r *SessionRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictExpiredLocked()
	return len(r.sessions)
}

func (r *SessionRepository) entry(id string) (*sessionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictExpiredLocked()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "load session", fmt.Errorf("session %s", id))
	}
	entry.touched = r.now()
	return entry, nil
}

func (r *SessionRepository) evictExpiredLocked() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)
	for id, entry := range r.sessions {
		if entry.touched.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}
