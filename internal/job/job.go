// Package job implements the asynchronous evaluation job subsystem: the
// registry owning all job state, the chunked batch runner, the per-job
// dispatcher, retention cleanup, and listing/stats queries.
package job

import (
	"time"

	"evalapi/internal/eval"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are possible from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Progress tracks how far a job has advanced.
type Progress struct {
	Current    int       `json:"current"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
	Message    string    `json:"message,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
}

// Job is the registry's record of one evaluation workload.
//
// StartedAt is set exactly once on the first transition to running;
// CompletedAt exactly once on the first transition to a terminal state.
// Results and Summary are present only when the status is completed.
type Job struct {
	ID          string         `json:"job_id"`
	Status      Status         `json:"status"`
	Name        string         `json:"job_name,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CallbackURL string         `json:"callback_url,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Progress Progress `json:"progress"`

	Results []eval.TestCaseResult `json:"results,omitempty"`
	Summary *eval.Summary         `json:"summary,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// Clone returns a copy that shares no mutable state with j. Test case and
// metric values inside results are treated as immutable once stored.
func (j *Job) Clone() *Job {
	c := *j
	if j.Tags != nil {
		c.Tags = append([]string(nil), j.Tags...)
	}
	if j.Metadata != nil {
		c.Metadata = make(map[string]any, len(j.Metadata))
		for k, v := range j.Metadata {
			c.Metadata[k] = v
		}
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	if j.Results != nil {
		c.Results = append([]eval.TestCaseResult(nil), j.Results...)
	}
	if j.Summary != nil {
		s := *j.Summary
		c.Summary = &s
	}
	return &c
}

// ListView returns a copy suitable for list responses: full payloads
// (results, summary) are stripped, everything else is kept.
func (j *Job) ListView() *Job {
	c := j.Clone()
	c.Results = nil
	c.Summary = nil
	return c
}
