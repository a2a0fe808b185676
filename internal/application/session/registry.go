package session

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	apperrors "github.com/alchemorsel/fusionchef/pkg/errors"
)

// Registry defaults
const (
	DefaultMaxSessions = 10000
	DefaultIdleTTL     = 2 * time.Hour
)

// Registry keeps live sessions. Idle sessions expire and the least recently used one
// is evicted when the registry is full.
type Registry struct {
	sessions *expirable.LRU[string, *Session]
	live     atomic.Int64
	deps     Dependencies
	logger   *zap.Logger
	evicted  func(id string)
}

// NewRegistry creates an empty registry
func NewRegistry(deps Dependencies, maxSessions int, idleTTL time.Duration) *Registry {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	r := &Registry{
		deps:   deps,
		logger: deps.Logger.Named("sessions"),
	}
	r.sessions = expirable.NewLRU[string, *Session](maxSessions, r.onEvict, idleTTL)
	return r
}

// Create starts a new session
func (r *Registry) Create() *Session {
	s := New(uuid.NewString(), r.deps)
	r.sessions.Add(s.ID(), s)
	r.report(r.live.Add(1))
	r.logger.Debug("Session created", zap.String("session_id", s.ID()))
	return s
}

// Get returns a live session and refreshes its idle timer
func (r *Registry) Get(id string) (*Session, error) {
	s, ok := r.sessions.Get(id)
	if !ok {
		return nil, apperrors.NewSessionNotFoundError(id)
	}
	// Re-adding restarts the TTL; Get alone only bumps recency.
	r.sessions.Add(id, s)
	return s, nil
}

// Remove ends a session
func (r *Registry) Remove(id string) bool {
	return r.sessions.Remove(id)
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	return r.sessions.Len()
}

// SignOutUser clears the user from every session signed in as userID
func (r *Registry) SignOutUser(userID string) {
	for _, s := range r.sessions.Values() {
		if u := s.User(); u != nil && u.ID == userID {
			s.SetUser(nil)
		}
	}
}

// OnEvict registers a hook run when a session ends. It runs under the registry lock
// and must not call back into the registry.
func (r *Registry) OnEvict(fn func(id string)) {
	r.evicted = fn
}

// onEvict runs under the LRU lock, so it must not call back into the LRU
func (r *Registry) onEvict(id string, s *Session) {
	s.Close()
	if r.evicted != nil {
		r.evicted(id)
	}
	r.report(r.live.Add(-1))
	r.logger.Debug("Session evicted", zap.String("session_id", id))
}

func (r *Registry) report(n int64) {
	if r.deps.Metrics != nil {
		r.deps.Metrics.ActiveSessions(int(n))
	}
}
