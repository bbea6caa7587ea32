package results

import (
	"sync"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
)

// Store is the session's append-only log of registration results, in
// completion order. Nothing is ever removed.
type Store struct {
	mu      sync.RWMutex
	entries []models.TrialResult
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append adds a result to the end of the log.
func (s *Store) Append(r models.TrialResult) {
	s.mu.Lock()
	s.entries = append(s.entries, r)
	s.mu.Unlock()
}

// Len returns the number of results recorded so far.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns a copy of every result in order.
func (s *Store) Snapshot() []models.TrialResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TrialResult, len(s.entries))
	copy(out, s.entries)
	return out
}

// Last returns the newest result, if any.
func (s *Store) Last() (models.TrialResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return models.TrialResult{}, false
	}
	return s.entries[len(s.entries)-1], true
}
