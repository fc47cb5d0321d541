package session

import "sync"

// Store keeps per-user flow state. Absence is a valid, expected value: a
// user with no entry simply has no active flow. State lives for the process
// lifetime only and is never persisted.
type Store interface {
	// Get returns the current session for the user, or nil when none exists.
	Get(userID int64) *Session
	// Set saves the session for the user, replacing any prior entry.
	Set(userID int64, sess *Session)
	// Remove deletes the session for the user. Removing a missing entry is a no-op.
	Remove(userID int64)
	// Len reports the number of active flows.
	Len() int
}

// MemoryStore is the in-process Store implementation. Mutation is expected
// to arrive serialized per user via the dispatch pool; the mutex only guards
// the map itself.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]*Session),
	}
}

func (s *MemoryStore) Get(userID int64) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[userID]
}

func (s *MemoryStore) Set(userID int64, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = sess
}

func (s *MemoryStore) Remove(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
