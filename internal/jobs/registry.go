package jobs

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sandeepmv/herdwatch/pkg/models"
)

// Registry is the in-memory collection of jobs, keyed by local id with
// insertion order preserved. It is the single source of truth for the API
// surface; all mutation goes through merge-by-id operations so interleaved
// updates from different pollers never clobber each other.
type Registry struct {
	mu    sync.RWMutex
	jobs  map[uuid.UUID]*models.VideoJob
	order []uuid.UUID
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[uuid.UUID]*models.VideoJob)}
}

// Put inserts a job, or replaces it if the local id is already present.
func (r *Registry) Put(job *models.VideoJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.LocalID]; !exists {
		r.order = append(r.order, job.LocalID)
	}
	r.jobs[job.LocalID] = job.Clone()
}

// Get returns a copy of the job with the given local id.
func (r *Registry) Get(localID uuid.UUID) (*models.VideoJob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[localID]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// Update applies fn to the job with the given local id under the registry
// lock and returns the updated copy. A missing id is a no-op, which is what
// makes a removed job's in-flight poll result harmless.
func (r *Registry) Update(localID uuid.UUID, fn func(*models.VideoJob)) (*models.VideoJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[localID]
	if !ok {
		return nil, false
	}
	fn(job)
	return job.Clone(), true
}

// Remove deletes the job with the given local id. Returns false if absent.
func (r *Registry) Remove(localID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[localID]; !ok {
		return false
	}
	delete(r.jobs, localID)
	for i, id := range r.order {
		if id == localID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns copies of all jobs in insertion order.
func (r *Registry) List() []*models.VideoJob {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.VideoJob, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.jobs[id].Clone())
	}
	return out
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
