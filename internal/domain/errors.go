package domain

import (
	"errors"
	"fmt"
)

// Per-file error taxonomy. Scan, resource-limit, and format errors are always
// recoverable: the offending file or sub-archive is skipped and counted, the
// run continues. Only OutputError (and run-level conditions below) is fatal.

// ScanError wraps an unreadable file or corrupt container.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string { return fmt.Sprintf("scan %s: %v", e.Path, e.Err) }
func (e *ScanError) Unwrap() error { return e.Err }

// ResourceLimitError marks a sub-archive that exceeded the nesting-depth or
// cumulative extracted-size cap. Scoped to that sub-archive, not the run.
type ResourceLimitError struct {
	Path  string
	Limit string // "depth" or "size"
}

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("resource limit (%s) exceeded at %s", e.Limit, e.Path)
}

// FormatError marks content unparseable as any known format, or a file whose
// body contradicts its detected format.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("unrecognized format: %s", e.Path)
}

func (e *FormatError) Unwrap() error { return e.Err }

// OutputError wraps an artifact write failure. Fatal: aborts the run.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }
func (e *OutputError) Unwrap() error { return e.Err }

// Run-level fatal conditions reported alongside the run report.
var (
	ErrNoValidRecords  = errors.New("no valid records in input set")
	ErrStrictViolation = errors.New("invalid records present in strict mode")
)

// Reason codes for per-record invariant violations, keyed into the run
// report's invalid_by_reason table.
type Reason string

const (
	ReasonMissingRequiredField  Reason = "missing_required_field"
	ReasonYearMismatch          Reason = "year_mismatch"
	ReasonNegativeFatalities    Reason = "negative_fatalities"
	ReasonUnknownDamageLevel    Reason = "unknown_damage_level"
	ReasonCoordinatesOutOfRange Reason = "coordinates_out_of_range"
)
