package domain

import "time"

// Outcome classifies the result of reconciling a single record.
type Outcome string

const (
	// OutcomeConverged: remote state now matches the record.
	OutcomeConverged Outcome = "converged"
	// OutcomeDeleted: role convergence signalled a downgrade and the user
	// was deleted instead.
	OutcomeDeleted Outcome = "deleted"
	// OutcomeSkipped: the record's category has no reconciliation path.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeSkippedNotFound: the record references a dataset that does not
	// exist in the account (manifests may run ahead of a rollout).
	OutcomeSkippedNotFound Outcome = "skipped_not_found"
	// OutcomeFailed: reconciliation aborted on an unrecoverable error.
	OutcomeFailed Outcome = "failed"
)

// FailurePolicy controls how the batch driver treats a per-record failure.
type FailurePolicy int

const (
	// IsolateErrors records the failure and continues with the remaining
	// records (user governance default).
	IsolateErrors FailurePolicy = iota
	// FailFast aborts the remaining batch on the first failure (asset
	// governance default).
	FailFast
)

// RunKind names the governance path a run executed.
type RunKind string

const (
	RunKindUsers  RunKind = "users"
	RunKindAssets RunKind = "assets"
)

// RecordResult is the outcome of one manifest record within a run.
type RecordResult struct {
	Record  string  `json:"record"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

// RunReport aggregates the outcome of one governance run.
type RunReport struct {
	ID         string         `json:"id"`
	Kind       RunKind        `json:"kind"`
	StartedAt  time.Time      `json:"started_at"`
	DurationMS int64          `json:"duration_ms"`
	Results    []RecordResult `json:"results"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"`
}

// Add appends a record result and updates the counters.
func (r *RunReport) Add(record string, outcome Outcome, err error) {
	res := RecordResult{Record: record, Outcome: outcome}
	if err != nil {
		res.Error = err.Error()
	}
	r.Results = append(r.Results, res)

	switch outcome {
	case OutcomeFailed:
		r.Failed++
	case OutcomeSkipped, OutcomeSkippedNotFound:
		r.Skipped++
	default:
		r.Succeeded++
	}
}

// Ok reports whether every record either converged or was skipped.
func (r *RunReport) Ok() bool { return r.Failed == 0 }
