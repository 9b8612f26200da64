package domain

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Format classifies a scanned file's content.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatZip     Format = "zip"
	FormatGzip    Format = "gzip"
	FormatUnknown Format = ""
)

// RawFile describes one tabular source discovered by the scanner. Entries
// inside containers use a logical path with "!" separators, e.g.
// "exports.zip!2020/crashes.csv". Open re-reads the content from disk, so a
// RawFile sequence can be restarted without buffering file bodies.
type RawFile struct {
	Path   string
	Format Format
	Size   int64
	Depth  int // archive nesting depth, 0 for plain files

	Open func() (io.ReadCloser, error)
}

// RawRow is a single source row keyed by canonical field name after alias
// mapping. Values are raw source strings.
type RawRow map[string]string

// SourceRef points back at the raw row a record was built from.
type SourceRef struct {
	File string `json:"file"`
	Row  int    `json:"row"`
}

func (s SourceRef) String() string { return fmt.Sprintf("%s#%d", s.File, s.Row) }

// Geo is a WGS-84 coordinate pair. A nil *Geo means the record carries no
// position; latitude and longitude are never present one without the other.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// InRange reports whether both coordinates are inside WGS-84 bounds.
func (g Geo) InRange() bool {
	return g.Lat >= -90 && g.Lat <= 90 && g.Lon >= -180 && g.Lon <= 180
}

// CanonicalRecord is the fixed schema every accepted accident record conforms
// to. Created by the normalizer; immutable once the validator accepts it.
type CanonicalRecord struct {
	Date         time.Time   `json:"date"`
	Year         int         `json:"year"`
	Operator     string      `json:"operator,omitempty"`
	AircraftType string      `json:"aircraft_type,omitempty"`
	Fatalities   int         `json:"fatalities"`
	Damage       DamageLevel `json:"damage_level"`
	Geo          *Geo        `json:"geo,omitempty"`
	Location     string      `json:"location,omitempty"`
	Source       SourceRef   `json:"source_id"`
}

// DedupKey returns the normalized (date, operator, aircraft_type, location)
// tuple identifying "the same incident".
func (r CanonicalRecord) DedupKey() string {
	return strings.Join([]string{
		r.Date.Format("2006-01-02"),
		NormalizeKeyPart(r.Operator),
		NormalizeKeyPart(r.AircraftType),
		NormalizeKeyPart(r.Location),
	}, "|")
}

// NormalizeKeyPart folds a free-text field for dedup comparison: trimmed,
// lower-cased, inner whitespace runs collapsed to a single space.
func NormalizeKeyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Candidate is a canonical-shaped record that has not yet been validated.
// MissingRequired marks rows lacking a date or both operator and
// aircraft_type; such rows still flow to the validator for accounting.
type Candidate struct {
	Record          CanonicalRecord
	MissingRequired bool
	Warnings        []string
}
