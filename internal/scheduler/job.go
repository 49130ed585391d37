package scheduler

import (
	"context"
	"time"
)

// Job is a unit of scheduled work.
type Job interface {
	// Name identifies the job in logs and history.
	Name() string
	// Schedule is a cron expression in the scheduler's timezone.
	Schedule() string
	// Run executes the job. The context carries the per-run timeout.
	Run(ctx context.Context) error
}

// RunRecord is the outcome of one job execution.
type RunRecord struct {
	Job       string        `json:"job"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	LastError string        `json:"last_error,omitempty"`
}
