// Package jobs is the job lifecycle orchestrator: it registers uploaded
// videos as analysis jobs, submits them to the remote engine, polls each
// in-flight job to a terminal state, and tracks the operator's selection.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepmv/herdwatch/internal/engine"
	"github.com/sandeepmv/herdwatch/internal/store"
	"github.com/sandeepmv/herdwatch/pkg/models"
)

var (
	ErrInvalidScenario = errors.New("invalid analysis scenario")
	ErrJobNotFound     = errors.New("job not found")
)

const statusCacheTTL = 30 * time.Minute

// History persists job transitions for the audit trail. Implemented by
// store.Store. Writes are best-effort; the in-memory registry stays
// authoritative at runtime.
type History interface {
	CreateJob(ctx context.Context, job *models.VideoJob) error
	UpdateJobStatus(ctx context.Context, localID uuid.UUID, status string, opts ...store.JobUpdateOption) error
	CreateJobResult(ctx context.Context, localID uuid.UUID, result *models.AnalysisSummary) error
	DeleteJob(ctx context.Context, localID uuid.UUID) error
}

// StatusCache mirrors job status for cheap reads by other services.
// Implemented by cache.Cache.
type StatusCache interface {
	SetJobStatus(ctx context.Context, jobID uuid.UUID, status string, ttl time.Duration) error
	SetJobProgress(ctx context.Context, jobID uuid.UUID, progress int, ttl time.Duration) error
	DeleteJobStatus(ctx context.Context, jobID uuid.UUID) error
}

// SubmitInput describes one video artifact to register for analysis.
type SubmitInput struct {
	TenantID  uuid.UUID
	Name      string
	SizeBytes int64
	Scenario  string
	UploadURL string
}

// Options tunes the polling behavior of a Service.
type Options struct {
	// PollInterval is the cadence of status queries per job.
	PollInterval time.Duration
	// RetryCeiling bounds how long a poller keeps retrying consecutive
	// transient query failures before giving up on the job.
	RetryCeiling time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.PollInterval <= 0 {
		out.PollInterval = 2 * time.Second
	}
	if out.RetryCeiling <= 0 {
		out.RetryCeiling = 2 * time.Minute
	}
	return out
}

// Service owns the registry, the selection, and one poller per in-flight
// job. All job mutation flows through here.
type Service struct {
	registry  *Registry
	selection *Selection
	engine    engine.Client
	history   History
	cache     StatusCache
	opts      Options

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu      sync.Mutex
	pollers map[uuid.UUID]context.CancelFunc
	wg      sync.WaitGroup
}

// NewService creates a Service. history and cache writes are best-effort;
// pass store.Store and cache.Cache implementations from the wiring layer.
func NewService(eng engine.Client, history History, statusCache StatusCache, opts Options) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	registry := NewRegistry()
	return &Service{
		registry:   registry,
		selection:  NewSelection(registry),
		engine:     eng,
		history:    history,
		cache:      statusCache,
		opts:       opts.withDefaults(),
		baseCtx:    ctx,
		baseCancel: cancel,
		pollers:    make(map[uuid.UUID]context.CancelFunc),
	}
}

// Registry exposes the job registry for read access.
func (s *Service) Registry() *Registry { return s.registry }

// Selection exposes the selection controller.
func (s *Service) Selection() *Selection { return s.selection }

// Submit validates the input, registers a pending job, and dispatches the
// engine registration in a background goroutine. The returned job snapshot
// is always in the pending state; callers observe later transitions through
// the registry.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.VideoJob, error) {
	if !models.ValidScenario(in.Scenario) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScenario, in.Scenario)
	}

	now := time.Now().UTC()
	job := &models.VideoJob{
		LocalID:   uuid.New(),
		TenantID:  in.TenantID,
		Name:      in.Name,
		SizeBytes: in.SizeBytes,
		Scenario:  in.Scenario,
		Status:    models.JobStatusPending,
		Stage:     StageFor(0),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.registry.Put(job)

	if err := s.history.CreateJob(ctx, job); err != nil {
		slog.Warn("persisting job failed", "job_id", job.LocalID, "error", err)
	}
	_ = s.cache.SetJobStatus(ctx, job.LocalID, job.Status, statusCacheTTL)

	s.wg.Add(1)
	go s.register(job.LocalID, in)

	return job.Clone(), nil
}

// register performs the engine submission for one job. Runs in its own
// goroutine; on success it hands the job off to a poller.
func (s *Service) register(localID uuid.UUID, in SubmitInput) {
	defer s.wg.Done()
	ctx := s.baseCtx

	s.setStatus(localID, models.JobStatusSubmitting)

	analysisID, err := s.engine.SubmitAnalysis(ctx, engine.SubmitRequest{
		Name:      in.Name,
		SizeBytes: in.SizeBytes,
		Scenario:  in.Scenario,
		UploadURL: in.UploadURL,
	})
	if err != nil {
		s.failJob(localID, fmt.Sprintf("submission failed: %v", err))
		return
	}

	// Holding the poller lock across the registry check closes the race
	// with Remove: either the job is gone and no poller starts, or the
	// poller is registered and Remove can cancel it.
	s.mu.Lock()
	if _, ok := s.registry.Get(localID); !ok {
		s.mu.Unlock()
		return
	}
	s.registry.Update(localID, func(j *models.VideoJob) {
		if j.RemoteID == "" {
			j.RemoteID = analysisID
		}
		j.Status = models.JobStatusProcessing
		j.UpdatedAt = time.Now().UTC()
	})
	pollCtx, cancel := context.WithCancel(s.baseCtx)
	s.pollers[localID] = cancel
	s.wg.Add(1)
	go s.poll(pollCtx, localID, analysisID)
	s.mu.Unlock()

	_ = s.history.UpdateJobStatus(ctx, localID, models.JobStatusProcessing, store.WithRemoteID(analysisID))
	_ = s.cache.SetJobStatus(ctx, localID, models.JobStatusProcessing, statusCacheTTL)
}

// Get returns a snapshot of one job.
func (s *Service) Get(localID uuid.UUID) (*models.VideoJob, bool) {
	return s.registry.Get(localID)
}

// List returns snapshots of all jobs in submission order.
func (s *Service) List() []*models.VideoJob {
	return s.registry.List()
}

// Remove deletes a job, cancelling its poller before returning. Once Remove
// returns, no further mutation of the removed job is observable: the poller
// context is cancelled and registry updates for a missing id are no-ops.
func (s *Service) Remove(ctx context.Context, localID uuid.UUID) error {
	s.mu.Lock()
	cancel := s.pollers[localID]
	delete(s.pollers, localID)
	removed := s.registry.Remove(localID)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !removed {
		return ErrJobNotFound
	}

	s.selection.jobRemoved(localID)

	if err := s.history.DeleteJob(ctx, localID); err != nil {
		slog.Warn("deleting persisted job failed", "job_id", localID, "error", err)
	}
	_ = s.cache.DeleteJobStatus(ctx, localID)

	return nil
}

// Close cancels all pollers and waits for them to drain.
func (s *Service) Close() {
	s.baseCancel()
	s.wg.Wait()
}

// setStatus applies a non-terminal status change. No-op if the job was removed.
func (s *Service) setStatus(localID uuid.UUID, status string) {
	_, ok := s.registry.Update(localID, func(j *models.VideoJob) {
		j.Status = status
		j.UpdatedAt = time.Now().UTC()
	})
	if !ok {
		return
	}
	_ = s.history.UpdateJobStatus(s.baseCtx, localID, status)
	_ = s.cache.SetJobStatus(s.baseCtx, localID, status, statusCacheTTL)
}

// failJob moves a job to the failed terminal state.
func (s *Service) failJob(localID uuid.UUID, msg string) {
	s.detachPoller(localID)
	_, ok := s.registry.Update(localID, func(j *models.VideoJob) {
		j.Status = models.JobStatusFailed
		j.ErrorMessage = &msg
		j.UpdatedAt = time.Now().UTC()
	})
	if !ok {
		return
	}
	slog.Info("job failed", "job_id", localID, "error", msg)
	_ = s.history.UpdateJobStatus(s.baseCtx, localID, models.JobStatusFailed, store.WithErrorMessage(msg))
	_ = s.cache.SetJobStatus(s.baseCtx, localID, models.JobStatusFailed, statusCacheTTL)
}

// completeJob moves a job to the completed terminal state with its result.
func (s *Service) completeJob(localID uuid.UUID, result *models.AnalysisSummary) {
	s.detachPoller(localID)
	_, ok := s.registry.Update(localID, func(j *models.VideoJob) {
		j.Status = models.JobStatusCompleted
		j.Progress = 100
		j.Stage = StageFor(100)
		j.Result = result
		j.UpdatedAt = time.Now().UTC()
	})
	if !ok {
		return
	}
	s.selection.jobCompleted(localID)
	slog.Info("job completed", "job_id", localID,
		"identified", result.IdentifiedCount, "alerts", result.AlertCount)
	_ = s.history.UpdateJobStatus(s.baseCtx, localID, models.JobStatusCompleted)
	_ = s.history.CreateJobResult(s.baseCtx, localID, result)
	_ = s.cache.SetJobStatus(s.baseCtx, localID, models.JobStatusCompleted, statusCacheTTL)
}

// applyProgress merges an observed progress value, discarding regressions so
// a stale response can never move the bar backwards.
func (s *Service) applyProgress(localID uuid.UUID, progress int) {
	job, ok := s.registry.Update(localID, func(j *models.VideoJob) {
		if progress > j.Progress {
			j.Progress = progress
		}
		j.Stage = StageFor(j.Progress)
		j.UpdatedAt = time.Now().UTC()
	})
	if !ok {
		return
	}
	_ = s.history.UpdateJobStatus(s.baseCtx, localID, job.Status, store.WithProgress(job.Progress))
	_ = s.cache.SetJobProgress(s.baseCtx, localID, job.Progress, statusCacheTTL)
}

// detachPoller forgets the poller handle for a job that is terminating on
// its own, so Remove does not cancel a context that is about to exit anyway.
func (s *Service) detachPoller(localID uuid.UUID) {
	s.mu.Lock()
	delete(s.pollers, localID)
	s.mu.Unlock()
}
