// Package validator classifies candidate records against the dataset
// invariants and deduplicates accepted records. Classification never mutates
// a candidate; a record either enters the dataset exactly as built or is
// counted out with a reason.
package validator

import (
	"log/slog"

	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/domain"
)

// Status of one classified candidate.
type Status string

const (
	StatusValid     Status = "valid"
	StatusInvalid   Status = "invalid"
	StatusDuplicate Status = "duplicate"
)

// Outcome is the classification of a single candidate.
type Outcome struct {
	Status Status
	Reason domain.Reason // set when Status is StatusInvalid

	// DuplicateOf points at the surviving record's source row when Status
	// is StatusDuplicate.
	DuplicateOf domain.SourceRef
}

// Check applies the record invariants in a fixed order and reports the first
// violation. Ordering matters for stable reason counts: identity, then year
// consistency, then fatalities, then damage, then coordinates.
func Check(cand domain.Candidate) Outcome {
	rec := cand.Record

	if cand.MissingRequired {
		return invalid(domain.ReasonMissingRequiredField)
	}
	if rec.Year != rec.Date.Year() {
		return invalid(domain.ReasonYearMismatch)
	}
	if rec.Fatalities < 0 {
		return invalid(domain.ReasonNegativeFatalities)
	}
	if !rec.Damage.Known() {
		return invalid(domain.ReasonUnknownDamageLevel)
	}
	if rec.Geo != nil && !rec.Geo.InRange() {
		return invalid(domain.ReasonCoordinatesOutOfRange)
	}
	return Outcome{Status: StatusValid}
}

func invalid(reason domain.Reason) Outcome {
	return Outcome{Status: StatusInvalid, Reason: reason}
}

// Deduper tracks accepted records by dedup key. The first record seen for a
// key wins; later arrivals are reported as duplicates. Callers wanting
// deterministic survivors must feed records in a deterministic order.
type Deduper struct {
	seen   map[string]domain.CanonicalRecord
	logger *slog.Logger
}

func NewDeduper(logger *slog.Logger) *Deduper {
	return &Deduper{
		seen:   make(map[string]domain.CanonicalRecord),
		logger: logger,
	}
}

// Admit registers a valid record. Returns the outcome and, for the first
// record of each key, admits it into the dataset.
func (d *Deduper) Admit(rec domain.CanonicalRecord) Outcome {
	key := rec.DedupKey()
	if prior, ok := d.seen[key]; ok {
		if prior.Fatalities != rec.Fatalities || prior.Damage != rec.Damage {
			d.logger.Debug("duplicate with conflicting fields dropped",
				"kept", prior.Source.String(), "dropped", rec.Source.String())
		}
		return Outcome{Status: StatusDuplicate, DuplicateOf: prior.Source}
	}
	d.seen[key] = rec
	return Outcome{Status: StatusValid}
}

// Size returns the count of admitted records.
func (d *Deduper) Size() int { return len(d.seen) }
