// Package history persists per-session chat transcripts. History is a
// convenience surface: the query pipeline treats every call here as
// best-effort and never fails a query over it.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/boswallah/course-assistant/models"
)

// Store keeps an ordered transcript per session, newest last, capped at a
// configured number of messages.
type Store interface {
	Append(ctx context.Context, sessionID string, msg models.ChatMessage) error
	Recent(ctx context.Context, sessionID string, n int) ([]models.ChatMessage, error)
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore is the fallback when redis is not configured. Entries expire
// lazily on access.
type MemoryStore struct {
	mu          sync.Mutex
	sessions    map[string]*memorySession
	ttl         time.Duration
	maxMessages int
	now         func() time.Time
}

type memorySession struct {
	messages  []models.ChatMessage
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration, maxMessages int) *MemoryStore {
	if maxMessages <= 0 {
		maxMessages = 50
	}
	return &MemoryStore{
		sessions:    make(map[string]*memorySession),
		ttl:         ttl,
		maxMessages: maxMessages,
		now:         time.Now,
	}
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, msg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[sessionID]
	if sess == nil || (s.ttl > 0 && s.now().After(sess.expiresAt)) {
		sess = &memorySession{}
		s.sessions[sessionID] = sess
	}
	sess.messages = append(sess.messages, msg)
	if len(sess.messages) > s.maxMessages {
		sess.messages = sess.messages[len(sess.messages)-s.maxMessages:]
	}
	if s.ttl > 0 {
		sess.expiresAt = s.now().Add(s.ttl)
	}
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, sessionID string, n int) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[sessionID]
	if sess == nil {
		return nil, nil
	}
	if s.ttl > 0 && s.now().After(sess.expiresAt) {
		delete(s.sessions, sessionID)
		return nil, nil
	}
	msgs := sess.messages
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
