// Command validate cross-checks the artifacts of a finished run: the record
// table, the per-dimension summary tables, and the run report must all agree
// with each other. Use it after pipeline changes to confirm a rerun produced
// an internally consistent output directory.
//
// Usage:
//
//	go run ./cmd/validate -dir out
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/aggregate"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/domain"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/writer"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "out", "output directory of a finished run")
	grid := flag.Float64("grid", 1.0, "geo grid resolution the run used")
	flag.Parse()

	os.Exit(run(*dir, *grid))
}

func run(dir string, grid float64) int {
	fmt.Println("=== Artifact Integrity Validation ===")
	fmt.Println()

	records, err := loadRecords(filepath.Join(dir, writer.RecordsFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load records: %v\n", err)
		return 1
	}

	var report domain.RunReport
	if err := loadJSON(filepath.Join(dir, writer.ReportFile), &report); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load report: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRecordTable(records),
		validateAggregates(dir, grid, records),
		validateReport(report, records),
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-40s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d, run %s, outcome %s\n", len(records), report.RunID, report.Outcome)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateRecordTable checks the per-record invariants and the table's
// ordering and uniqueness guarantees.
func validateRecordTable(records []domain.CanonicalRecord) *phase {
	p := &phase{name: "Phase 1: Record Table"}

	seen := map[string]int{}
	prevKey := ""
	for i, r := range records {
		line := i + 2 // header is line 1

		if r.Year != r.Date.Year() {
			p.errorf("line %d: year %d disagrees with date %s", line, r.Year, r.Date.Format("2006-01-02"))
		}
		if r.Fatalities < 0 {
			p.errorf("line %d: negative fatalities %d", line, r.Fatalities)
		}
		if !r.Damage.Known() {
			p.errorf("line %d: damage %q outside the enum", line, r.Damage)
		}
		if r.Geo != nil && !r.Geo.InRange() {
			p.errorf("line %d: coordinates out of range (%g, %g)", line, r.Geo.Lat, r.Geo.Lon)
		}
		if r.Operator == "" && r.AircraftType == "" {
			p.errorf("line %d: neither operator nor aircraft type present", line)
		}

		key := r.DedupKey()
		if first, dup := seen[key]; dup {
			p.errorf("line %d: duplicate dedup key also on line %d", line, first)
		}
		seen[key] = line
		if key < prevKey {
			p.errorf("line %d: table not sorted by dedup key", line)
		}
		prevKey = key
	}
	return p
}

// validateAggregates recomputes every summary table from the record table and
// compares it against the written artifacts.
func validateAggregates(dir string, grid float64, records []domain.CanonicalRecord) *phase {
	p := &phase{name: "Phase 2: Summary Tables"}

	expected := aggregate.New(grid)
	for _, r := range records {
		expected.Observe(r)
	}

	for _, dim := range aggregate.Dimensions {
		got, err := loadAggTable(filepath.Join(dir, writer.AggFile(dim)))
		if err != nil {
			p.errorf("%s: %v", dim, err)
			continue
		}
		want := expected.Tables[dim].Buckets()
		if len(got) != len(want) {
			p.errorf("%s: %d buckets in artifact, %d recomputed", dim, len(got), len(want))
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				p.errorf("%s bucket %q: artifact %+v, recomputed %+v", dim, want[i].Key, got[i], want[i])
			}
		}
	}
	return p
}

// validateReport checks the run report against the record table.
func validateReport(report domain.RunReport, records []domain.CanonicalRecord) *phase {
	p := &phase{name: "Phase 3: Run Report"}

	if report.RunID == "" {
		p.errorf("run_id is empty")
	}
	if report.Valid != len(records) {
		p.errorf("report says %d valid records, table has %d", report.Valid, len(records))
	}
	if report.FinishedAt.Before(report.StartedAt) {
		p.errorf("finished_at %s precedes started_at %s",
			report.FinishedAt.Format(time.RFC3339), report.StartedAt.Format(time.RFC3339))
	}

	switch report.Outcome {
	case domain.OutcomeSuccess:
		if report.Degraded || report.Incomplete {
			p.errorf("outcome success but degraded=%v incomplete=%v", report.Degraded, report.Incomplete)
		}
	case domain.OutcomeDegraded:
		if !report.Degraded && !report.Incomplete {
			p.errorf("outcome success-degraded but neither degraded nor incomplete is set")
		}
	case domain.OutcomeFatal:
		// A fatal run can still leave a consistent record table behind.
	default:
		p.errorf("unknown outcome %q", report.Outcome)
	}
	return p
}

// loadRecords parses records.csv back into canonical records.
func loadRecords(path string) ([]domain.CanonicalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty file %s", path)
	}

	col := map[string]int{}
	for i, name := range rows[0] {
		col[name] = i
	}

	var records []domain.CanonicalRecord
	for _, row := range rows[1:] {
		get := func(name string) string { return row[col[name]] }

		date, err := time.Parse("2006-01-02", get("date"))
		if err != nil {
			return nil, fmt.Errorf("bad date %q: %w", get("date"), err)
		}
		year, _ := strconv.Atoi(get("year"))
		fatalities, _ := strconv.Atoi(get("fatalities"))

		rec := domain.CanonicalRecord{
			Date:         date,
			Year:         year,
			Operator:     get("operator"),
			AircraftType: get("aircraft_type"),
			Fatalities:   fatalities,
			Damage:       domain.DamageLevel(get("damage_level")),
			Location:     get("location"),
			Source:       parseSourceID(get("source_id")),
		}
		if lat, lon := get("latitude"), get("longitude"); lat != "" && lon != "" {
			la, err1 := strconv.ParseFloat(lat, 64)
			lo, err2 := strconv.ParseFloat(lon, 64)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("bad coordinates %q,%q", lat, lon)
			}
			rec.Geo = &domain.Geo{Lat: la, Lon: lo}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseSourceID(s string) domain.SourceRef {
	i := strings.LastIndexByte(s, '#')
	if i < 0 {
		return domain.SourceRef{File: s}
	}
	row, _ := strconv.Atoi(s[i+1:])
	return domain.SourceRef{File: s[:i], Row: row}
}

func loadAggTable(path string) ([]aggregate.Bucket, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty file %s", path)
	}

	var buckets []aggregate.Bucket
	for _, row := range rows[1:] {
		if len(row) != 3 {
			return nil, fmt.Errorf("malformed row %v", row)
		}
		count, err1 := strconv.Atoi(row[1])
		sum, err2 := strconv.Atoi(row[2])
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("malformed counts in row %v", row)
		}
		buckets = append(buckets, aggregate.Bucket{Key: row[0], Count: count, FatalitySum: sum})
	}
	return buckets, nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
