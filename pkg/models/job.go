package models

import (
	"time"

	"github.com/google/uuid"
)

// Job statuses. Submitting and Processing are the only states with an
// active poller; Completed and Failed are terminal.
const (
	JobStatusPending    = "pending"
	JobStatusSubmitting = "submitting"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Analysis scenarios an operator can select before submission.
const (
	ScenarioStandard   = "standard"
	ScenarioOutbreak   = "outbreak"
	ScenarioAggression = "aggression"
)

// ValidScenario reports whether s is one of the recognized analysis scenarios.
func ValidScenario(s string) bool {
	switch s {
	case ScenarioStandard, ScenarioOutbreak, ScenarioAggression:
		return true
	}
	return false
}

// VideoJob tracks one uploaded video artifact from submission to a terminal
// outcome. LocalID is assigned at submission time and is the registry key;
// RemoteID is assigned by the analysis engine and set at most once.
type VideoJob struct {
	LocalID      uuid.UUID        `db:"local_id"      json:"local_id"`
	RemoteID     string           `db:"remote_id"     json:"remote_id,omitempty"`
	TenantID     uuid.UUID        `db:"tenant_id"     json:"tenant_id"`
	Name         string           `db:"name"          json:"name"`
	SizeBytes    int64            `db:"size_bytes"    json:"size_bytes"`
	Scenario     string           `db:"scenario"      json:"scenario"`
	Status       string           `db:"status"        json:"status"`
	Progress     int              `db:"progress"      json:"progress"`
	Stage        string           `db:"stage"         json:"stage"`
	Result       *AnalysisSummary `db:"-"             json:"result,omitempty"`
	ErrorMessage *string          `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time        `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at"    json:"updated_at"`
}

// Terminal reports whether the job has reached a state with no further
// automatic transitions.
func (j *VideoJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Clone returns a deep copy safe to hand out across the registry boundary.
func (j *VideoJob) Clone() *VideoJob {
	cp := *j
	if j.Result != nil {
		r := *j.Result
		r.Tags = append([]string(nil), j.Result.Tags...)
		cp.Result = &r
	}
	if j.ErrorMessage != nil {
		msg := *j.ErrorMessage
		cp.ErrorMessage = &msg
	}
	return &cp
}
