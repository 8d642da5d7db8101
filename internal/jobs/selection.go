package jobs

import (
	"sync"

	"github.com/google/uuid"
)

// Selection tracks which single job, if any, the operator is inspecting in
// detail. A job is auto-selected the moment it completes, but only when no
// other job holds the selection, so focus is never stolen from a job under
// review.
type Selection struct {
	mu       sync.Mutex
	registry *Registry
	selected *uuid.UUID
}

// NewSelection creates a Selection bound to the given registry.
func NewSelection(registry *Registry) *Selection {
	return &Selection{registry: registry}
}

// Select marks the given job as selected. Selecting an id that is not in
// the registry is a no-op, guarding against races with removal.
func (s *Selection) Select(localID uuid.UUID) {
	if _, ok := s.registry.Get(localID); !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := localID
	s.selected = &id
}

// Clear drops the current selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}

// Selected returns the currently selected job id, if any.
func (s *Selection) Selected() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return uuid.Nil, false
	}
	return *s.selected, true
}

// jobCompleted is invoked by the service when a job transitions to
// completed. It takes the selection only when none exists.
func (s *Selection) jobCompleted(localID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != nil {
		return
	}
	if _, ok := s.registry.Get(localID); !ok {
		return
	}
	id := localID
	s.selected = &id
}

// jobRemoved is invoked by the service after a job is removed from the
// registry. It clears the selection if the removed job held it.
func (s *Selection) jobRemoved(localID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != nil && *s.selected == localID {
		s.selected = nil
	}
}
