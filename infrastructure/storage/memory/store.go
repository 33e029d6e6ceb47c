// Package memory provides an in-memory session store for tests and
// single-process setups.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tripwing/tripwing/domain/session"
)

// Store is an in-memory implementation of session.Store. It is safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]session.Message
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string][]session.Message),
	}
}

// Append adds a message to the session's log, creating the session on first
// use.
func (s *Store) Append(ctx context.Context, sessionID string, msg session.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
	return nil
}

// Messages returns a copy of the session's log in insertion order.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]session.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs, ok := s.sessions[sessionID]
	if !ok {
		return nil, session.ErrSessionNotFound
	}

	out := make([]session.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Sessions lists known session identifiers.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

// Delete removes a session and its log. Deleting an unknown session is a
// no-op.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// PurgeOlderThan removes sessions whose last message is older than the given
// age and returns how many sessions were removed.
func (s *Store) PurgeOlderThan(ctx context.Context, age time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-age)

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for id, msgs := range s.sessions {
		if len(msgs) == 0 || msgs[len(msgs)-1].Timestamp.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Close releases store resources.
func (s *Store) Close() error {
	return nil
}

var _ session.Store = (*Store)(nil)
