// Package state records pipeline run history in SQLite. Every command
// invocation becomes a run; release invocations additionally record one row
// per state-machine step. The store is an audit trail: failures to record are
// logged and never fail the pipeline itself.
package state

import "time"

// RunStatus is the lifecycle status of a pipeline run or release step.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// Run is one pipeline command invocation.
type Run struct {
	ID          string
	Command     string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// StepRun is one step of a release-pipeline run.
type StepRun struct {
	RunID       string
	Step        string
	Seq         int
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// Store is the run-history store interface.
type Store interface {
	// CreateRun records the start of a command invocation.
	CreateRun(command string) (*Run, error)

	// CompleteRun marks a run finished with the given status. errMsg is
	// empty on success.
	CompleteRun(id string, status RunStatus, errMsg string) error

	// RecordStep records a completed (or failed) release step.
	RecordStep(step *StepRun) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*Run, error)

	// ListSteps returns the steps of a run in execution order.
	ListSteps(runID string) ([]*StepRun, error)

	Close() error
}
