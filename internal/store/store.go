package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sandeepmv/herdwatch/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrInvalidTransition = errors.New("invalid job status transition")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error
	GetDefaultTenant(ctx context.Context) (*models.Tenant, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, tenantID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error

	CreateJob(ctx context.Context, job *models.VideoJob) error
	GetJob(ctx context.Context, localID uuid.UUID, tenantID uuid.UUID) (*models.VideoJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*models.VideoJob, int, error)
	UpdateJobStatus(ctx context.Context, localID uuid.UUID, status string, opts ...JobUpdateOption) error
	DeleteJob(ctx context.Context, localID uuid.UUID) error
	CreateJobResult(ctx context.Context, localID uuid.UUID, result *models.AnalysisSummary) error
	GetJobResult(ctx context.Context, localID uuid.UUID) (*models.AnalysisSummary, error)
}

// JobFilter narrows and paginates ListJobs.
type JobFilter struct {
	TenantID uuid.UUID
	Status   string
	Scenario string
	Page     int
	Limit    int
}

// JobUpdateParams collects the optional fields of a job status update.
// Exported so Store implementations outside this package can apply options.
type JobUpdateParams struct {
	ErrorMessage *string
	RemoteID     *string
	Progress     *int
}

type JobUpdateOption func(*JobUpdateParams)

func WithErrorMessage(msg string) JobUpdateOption {
	return func(p *JobUpdateParams) {
		p.ErrorMessage = &msg
	}
}

func WithRemoteID(remoteID string) JobUpdateOption {
	return func(p *JobUpdateParams) {
		p.RemoteID = &remoteID
	}
}

func WithProgress(progress int) JobUpdateOption {
	return func(p *JobUpdateParams) {
		p.Progress = &progress
	}
}
