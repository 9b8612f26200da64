// Package aggregate folds accepted records into per-dimension summary tables.
// Observation is a commutative monoid fold: any partitioning of the record
// set across workers, merged in any order, produces identical tables.
package aggregate

import (
	"math"
	"sort"
	"strconv"

	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/domain"
)

// Dimension names in stable output order.
const (
	DimYear          = "year"
	DimOperator      = "operator"
	DimAircraft      = "aircraft_type"
	DimDamage        = "damage_level"
	DimFatalityRange = "fatality_range"
	DimGeo           = "geo_cell"
)

// Dimensions lists every aggregation table produced, in artifact order.
var Dimensions = []string{DimYear, DimOperator, DimAircraft, DimDamage, DimFatalityRange, DimGeo}

// UnknownKey buckets records whose dimension value is absent.
const UnknownKey = "unknown"

// Bucket is one row of a summary table.
type Bucket struct {
	Key         string
	Count       int
	FatalitySum int
}

// Table holds the buckets of one dimension keyed by bucket key.
type Table map[string]*Bucket

// Buckets returns the table rows sorted by key for deterministic output.
func (t Table) Buckets() []Bucket {
	out := make([]Bucket, 0, len(t))
	for _, b := range t {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (t Table) add(key string, fatalities int) {
	b, ok := t[key]
	if !ok {
		b = &Bucket{Key: key}
		t[key] = b
	}
	b.Count++
	b.FatalitySum += fatalities
}

func (t Table) merge(other Table) {
	for key, b := range other {
		mine, ok := t[key]
		if !ok {
			t[key] = &Bucket{Key: key, Count: b.Count, FatalitySum: b.FatalitySum}
			continue
		}
		mine.Count += b.Count
		mine.FatalitySum += b.FatalitySum
	}
}

// Result accumulates all dimension tables for one shard of the record set.
type Result struct {
	Tables  map[string]Table
	gridRes float64
}

// New creates an empty Result. gridRes is the geo cell size in degrees.
func New(gridRes float64) *Result {
	tables := make(map[string]Table, len(Dimensions))
	for _, dim := range Dimensions {
		tables[dim] = make(Table)
	}
	return &Result{Tables: tables, gridRes: gridRes}
}

// Observe folds one accepted record into every dimension table.
func (r *Result) Observe(rec domain.CanonicalRecord) {
	f := rec.Fatalities
	r.Tables[DimYear].add(strconv.Itoa(rec.Year), f)
	r.Tables[DimOperator].add(keyOrUnknown(rec.Operator), f)
	r.Tables[DimAircraft].add(keyOrUnknown(rec.AircraftType), f)
	r.Tables[DimDamage].add(string(rec.Damage), f)
	r.Tables[DimFatalityRange].add(fatalityRangeKey(f), f)
	r.Tables[DimGeo].add(r.geoKey(rec.Geo), f)
}

// Merge folds other into r. Both sides must share the same grid resolution.
func (r *Result) Merge(other *Result) {
	for dim, table := range other.Tables {
		r.Tables[dim].merge(table)
	}
}

// fatalityRangeKey bins a fatality count into the severity bands the
// dashboard charts.
func fatalityRangeKey(f int) string {
	switch {
	case f <= 0:
		return "0"
	case f <= 5:
		return "1-5"
	case f <= 10:
		return "6-10"
	case f <= 20:
		return "11-20"
	case f <= 50:
		return "21-50"
	case f <= 100:
		return "51-100"
	default:
		return "100+"
	}
}

func keyOrUnknown(s string) string {
	if k := domain.NormalizeKeyPart(s); k != "" {
		return k
	}
	return UnknownKey
}

// geoKey snaps a coordinate pair to its grid cell's south-west corner. The
// formatted form is the bucket key, e.g. "40,-74" at 1 degree resolution.
func (r *Result) geoKey(g *domain.Geo) string {
	if g == nil {
		return UnknownKey
	}
	return formatCell(snap(g.Lat, r.gridRes)) + "," + formatCell(snap(g.Lon, r.gridRes))
}

func snap(v, res float64) float64 {
	return math.Floor(v/res) * res
}

func formatCell(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
