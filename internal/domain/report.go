package domain

import "time"

// Skip-reason keys for ValidationReport.FilesSkipped.
const (
	SkipScan          = "scan_error"
	SkipFormat        = "format_error"
	SkipResourceLimit = "resource_limit"
)

// ValidationReport aggregates per-record classification counts. Reports built
// independently by worker shards merge commutatively.
type ValidationReport struct {
	FilesScanned    int            `json:"files_scanned"`
	FilesSkipped    map[string]int `json:"files_skipped,omitempty"`
	RowsRead        int            `json:"rows_read"`
	Valid           int            `json:"valid"`
	InvalidByReason map[Reason]int `json:"invalid_by_reason,omitempty"`
	Duplicates      int            `json:"duplicates"`
}

// CountInvalid records one invalid classification.
func (r *ValidationReport) CountInvalid(reason Reason) {
	if r.InvalidByReason == nil {
		r.InvalidByReason = make(map[Reason]int)
	}
	r.InvalidByReason[reason]++
}

// CountSkipped records one skipped file under the given skip-reason key.
func (r *ValidationReport) CountSkipped(kind string) {
	if r.FilesSkipped == nil {
		r.FilesSkipped = make(map[string]int)
	}
	r.FilesSkipped[kind]++
}

// Invalid returns the total invalid count across all reasons.
func (r *ValidationReport) Invalid() int {
	n := 0
	for _, c := range r.InvalidByReason {
		n += c
	}
	return n
}

// InvalidFraction returns invalid/(valid+invalid). Duplicates are legitimate
// records and do not count against data quality. Returns 0 for an empty run.
func (r *ValidationReport) InvalidFraction() float64 {
	total := r.Valid + r.Invalid()
	if total == 0 {
		return 0
	}
	return float64(r.Invalid()) / float64(total)
}

// Merge folds other into r.
func (r *ValidationReport) Merge(other ValidationReport) {
	r.FilesScanned += other.FilesScanned
	r.RowsRead += other.RowsRead
	r.Valid += other.Valid
	r.Duplicates += other.Duplicates
	for reason, c := range other.InvalidByReason {
		if r.InvalidByReason == nil {
			r.InvalidByReason = make(map[Reason]int)
		}
		r.InvalidByReason[reason] += c
	}
	for kind, c := range other.FilesSkipped {
		if r.FilesSkipped == nil {
			r.FilesSkipped = make(map[string]int)
		}
		r.FilesSkipped[kind] += c
	}
}

// RunOutcome is the run result reported to the caller.
type RunOutcome string

const (
	OutcomeSuccess  RunOutcome = "success"
	OutcomeDegraded RunOutcome = "success-degraded"
	OutcomeFatal    RunOutcome = "fatal"
)

// RunReport is the run-level accounting artifact. It is always produced, even
// on partial or fatal termination, so callers can tell "no data found" from
// "pipeline crashed".
type RunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	ValidationReport

	Degraded   bool       `json:"degraded"`
	Incomplete bool       `json:"incomplete"`
	Outcome    RunOutcome `json:"outcome"`
}
