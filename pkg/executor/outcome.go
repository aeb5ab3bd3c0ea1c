package executor

import (
	"time"

	"github.com/raidwatch/wcl-harvester/pkg/planner"
)

// JobState is the lifecycle state of one job.
type JobState string

const (
	// StatePending means the job has been planned but not picked up yet.
	StatePending JobState = "pending"

	// StateRunning means a worker is executing the job.
	StateRunning JobState = "running"

	// StateSucceeded means the job fetched and persisted its rows.
	StateSucceeded JobState = "succeeded"

	// StateFailed means the job's fetch or persist step errored.
	StateFailed JobState = "failed"
)

// JobResult is the terminal outcome of one job.
type JobResult struct {
	Job   planner.Job
	State JobState

	// Rows is the number of rows harvested, valid when State is succeeded.
	Rows int

	// Err is the failure cause, valid when State is failed.
	Err error
}

// Outcome aggregates a whole run. Built incrementally as job results
// arrive; completion order is not submission order.
type Outcome struct {
	// RunID identifies the run across log lines.
	RunID string

	Succeeded    int
	Failed       int
	RowsInserted int

	// Errors records the failure message per failed job, keyed by the
	// job's display identity.
	Errors map[string]string

	Elapsed time.Duration
}

// TotalJobs returns the number of completed jobs.
func (o *Outcome) TotalJobs() int {
	return o.Succeeded + o.Failed
}
