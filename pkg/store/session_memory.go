package store

import (
	"sync"
	"time"

	"github.com/rhom001/database-messenger/internal/util"
)

// MemorySessionStore keeps login sessions in-process with TTL.
type MemorySessionStore struct {
	mu   sync.Mutex
	sess map[string]memorySession
	ttl  time.Duration
}

type memorySession struct {
	login     string
	expiresAt time.Time
}

// NewMemorySessionStore builds an in-memory session store. A non-positive
// ttl means sessions never expire.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{sess: make(map[string]memorySession), ttl: ttl}
}

// NewSession issues a token for the login.
func (s *MemorySessionStore) NewSession(login string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := util.NewID()
	var expires time.Time
	if s.ttl > 0 {
		expires = time.Now().Add(s.ttl)
	}
	s.sess[token] = memorySession{login: login, expiresAt: expires}
	return token, nil
}

// GetLoginByToken resolves a token to its login.
func (s *MemorySessionStore) GetLoginByToken(token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sess[token]
	if !ok {
		return "", false, nil
	}
	if !sess.expiresAt.IsZero() && time.Now().After(sess.expiresAt) {
		delete(s.sess, token)
		return "", false, nil
	}
	return sess.login, true, nil
}

// DeleteSession removes a token mapping.
func (s *MemorySessionStore) DeleteSession(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sess, token)
	return nil
}
