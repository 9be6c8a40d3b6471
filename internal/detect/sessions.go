package detect

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CodeBotMzee/FYP/internal/verdict"
)

// session owns one camera stream's stabilization window. Pushes are
// serialized under mu so they apply in receipt order.
type session struct {
	mu       sync.Mutex
	window   *verdict.Window
	lastSeen time.Time
}

// sessionStore tracks the active camera sessions. Windows are created
// on first use, pruned after an idle TTL and destroyed on explicit end;
// nothing persists.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

func newSessionStore(capacity int, ttl time.Duration) *sessionStore {
	return &sessionStore{
		sessions: make(map[string]*session),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// get returns the session for id, creating it when absent. An empty id
// mints a fresh session id for the caller to reuse on later frames.
func (s *sessionStore) get(id string) (string, *session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)

	if id == "" {
		id = uuid.NewString()
	}

	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{window: verdict.NewWindow(s.capacity)}
		s.sessions[id] = sess
	}
	sess.lastSeen = now
	return id, sess
}

// end destroys the session's window.
func (s *sessionStore) end(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// count returns the number of live sessions.
func (s *sessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// pruneLocked drops sessions idle past the TTL. Caller holds s.mu.
func (s *sessionStore) pruneLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
