package registration

import (
	"sync"

	"github.com/google/uuid"
)

// InflightSet serializes mark-done actions per sub-unit. Two different
// sub-units may be marked concurrently; a second mark on the same one while
// the first request is pending is rejected.
type InflightSet struct {
	mu      sync.Mutex
	pending map[uuid.UUID]struct{}
}

func NewInflightSet() *InflightSet {
	return &InflightSet{pending: make(map[uuid.UUID]struct{})}
}

// Begin claims the key. It returns false when a request for the same key is
// already in flight.
func (s *InflightSet) Begin(key uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[key]; ok {
		return false
	}
	s.pending[key] = struct{}{}
	return true
}

// End releases the key regardless of the request's outcome.
func (s *InflightSet) End(key uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
}
