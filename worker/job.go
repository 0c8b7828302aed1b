package worker

import (
	ov "github.com/openobs/validator"
	"github.com/openobs/validator/model"
)

// Job represents one observation tree to validate.
type Job struct {
	// ID is a caller-chosen identifier for correlating results,
	// typically a file name or record id.
	ID string

	// Observation is the root of the tree to validate.
	Observation *model.Observation
}

// JobResult represents the outcome of one job.
type JobResult struct {
	// ID matches the Job.ID that produced this result.
	ID string

	// Result contains the validation result, nil when Error is set.
	Result *ov.Result

	// Error contains any resolver contract violation hit during the job.
	Error error

	// Duration is the time taken to validate (in nanoseconds).
	Duration int64
}

// BatchResult aggregates results from multiple jobs.
type BatchResult struct {
	// Results contains all job results.
	Results []*JobResult

	// TotalJobs is the number of jobs submitted.
	TotalJobs int

	// CompletedJobs is the number of jobs completed (including errors).
	CompletedJobs int

	// TotalDuration is the total time for all validations (in nanoseconds).
	TotalDuration int64
}

// HasErrors reports whether any job failed or produced validation issues.
func (br *BatchResult) HasErrors() bool {
	for _, r := range br.Results {
		if r.Error != nil {
			return true
		}
		if r.Result != nil && r.Result.HasErrors() {
			return true
		}
	}
	return false
}
