package memory

import (
	"sync"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
)

// Store keeps bounded per-session conversation history in process memory.
// Each session carries its own lock, so concurrent requests for different
// sessions never contend with each other.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	capacity int
}

type session struct {
	mu    sync.Mutex
	turns []domain.Turn
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = domain.DefaultSessionCapacity
	}
	return &Store{
		sessions: make(map[string]*session),
		capacity: capacity,
	}
}

// History returns a copy of the session's turns, oldest first. Unknown
// sessions yield an empty slice.
func (s *Store) History(sessionID string) []domain.Turn {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]domain.Turn, len(sess.turns))
	copy(out, sess.turns)
	return out
}

// Append records a turn, creating the session lazily and evicting the oldest
// turn once the capacity is reached.
func (s *Store) Append(sessionID, role, content string) {
	sess := s.getOrCreate(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.turns = append(sess.turns, domain.Turn{Role: role, Content: content})
	if overflow := len(sess.turns) - s.capacity; overflow > 0 {
		sess.turns = append(sess.turns[:0], sess.turns[overflow:]...)
	}
}

// AppendExchange records a question/answer pair under one hold of the session
// lock. Two requests racing on the same session each land their full pair;
// the turns of one never split the other's.
func (s *Store) AppendExchange(sessionID, userContent, answerContent string) {
	sess := s.getOrCreate(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.turns = append(sess.turns,
		domain.Turn{Role: domain.RoleUser, Content: userContent},
		domain.Turn{Role: domain.RoleAssistant, Content: answerContent},
	)
	if overflow := len(sess.turns) - s.capacity; overflow > 0 {
		sess.turns = append(sess.turns[:0], sess.turns[overflow:]...)
	}
}

// Clear drops the session's history. The session id stays valid for reuse.
// A request recording concurrently with Clear may land its turns on the
// discarded history; the reset wins and those turns are dropped.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

func (s *Store) getOrCreate(sessionID string) *session {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[sessionID]; ok {
		return sess
	}
	sess = &session{}
	s.sessions[sessionID] = sess
	return sess
}
