// Package session owns conversation state. Sessions are process-wide:
// created on first reference, cleared by an explicit client action, and
// otherwise retained for the process lifetime.
package session

import (
	"sync"
	"time"

	"github.com/clinicops/medagent/internal/domain"
)

// TokenCounter reports the token cost of a piece of text.
type TokenCounter interface {
	Count(text string) int
}

// Store maps session ids to their ordered turns.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string][]domain.Turn
	counter   TokenCounter
	maxTokens int
}

// NewStore creates a session store. History windows returned by History
// are bounded to maxTokens as measured by counter.
func NewStore(counter TokenCounter, maxTokens int) *Store {
	return &Store{
		sessions:  make(map[string][]domain.Turn),
		counter:   counter,
		maxTokens: maxTokens,
	}
}

// History returns the most recent turns of the session that fit the
// token budget, oldest first. Referencing an unknown session creates it.
func (s *Store) History(id string) []domain.Turn {
	s.mu.Lock()
	turns, ok := s.sessions[id]
	if !ok {
		s.sessions[id] = nil
	}
	s.mu.Unlock()

	budget := s.maxTokens
	start := len(turns)
	for start > 0 {
		t := turns[start-1]
		cost := s.counter.Count(t.Utterance) + s.counter.Count(t.Reply)
		if cost > budget {
			break
		}
		budget -= cost
		start--
	}

	window := make([]domain.Turn, len(turns)-start)
	copy(window, turns[start:])
	return window
}

// Append records one completed turn.
func (s *Store) Append(id, utterance, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = append(s.sessions[id], domain.Turn{
		Utterance: utterance,
		Reply:     reply,
		At:        time.Now(),
	})
}

// Clear drops a session's history. Clearing an unknown session is a no-op.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
