// Package writer renders the run's artifacts: the canonical record table, one
// summary table per aggregation dimension, and the run report. Every artifact
// is written to a temp file in the output directory and renamed into place,
// so readers never observe a half-written file and reruns replace outputs
// atomically.
package writer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/aggregate"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/domain"
)

// Artifact names inside the output directory.
const (
	RecordsFile = "records.csv"
	ReportFile  = "report.json"
)

// AggFile returns the artifact name of one dimension's summary table.
func AggFile(dimension string) string { return "agg_" + dimension + ".csv" }

var recordColumns = []string{
	"date", "year", "operator", "aircraft_type", "fatalities",
	"damage_level", "latitude", "longitude", "location", "source_id",
}

var aggColumns = []string{"dimension_key", "count", "fatality_sum"}

// Writer renders artifacts into a single output directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// WriteRecords renders the canonical record table sorted by dedup key, so
// byte-identical inputs produce byte-identical artifacts regardless of
// discovery or worker ordering.
func (w *Writer) WriteRecords(records []domain.CanonicalRecord) error {
	sorted := append([]domain.CanonicalRecord(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DedupKey() < sorted[j].DedupKey() })

	rows := make([][]string, 0, len(sorted)+1)
	rows = append(rows, recordColumns)
	for _, r := range sorted {
		rows = append(rows, recordRow(r))
	}
	return w.writeCSV(RecordsFile, rows)
}

// WriteAggregates renders one summary table per dimension.
func (w *Writer) WriteAggregates(result *aggregate.Result) error {
	for _, dim := range aggregate.Dimensions {
		buckets := result.Tables[dim].Buckets()
		rows := make([][]string, 0, len(buckets)+1)
		rows = append(rows, aggColumns)
		for _, b := range buckets {
			rows = append(rows, []string{b.Key, strconv.Itoa(b.Count), strconv.Itoa(b.FatalitySum)})
		}
		if err := w.writeCSV(AggFile(dim), rows); err != nil {
			return err
		}
	}
	return nil
}

// WriteReport renders the run report as indented JSON.
func (w *Writer) WriteReport(report domain.RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return &domain.OutputError{Path: ReportFile, Err: err}
	}
	return w.writeFile(ReportFile, append(data, '\n'))
}

func recordRow(r domain.CanonicalRecord) []string {
	lat, lon := "", ""
	if r.Geo != nil {
		lat = strconv.FormatFloat(r.Geo.Lat, 'f', -1, 64)
		lon = strconv.FormatFloat(r.Geo.Lon, 'f', -1, 64)
	}
	return []string{
		r.Date.Format("2006-01-02"),
		strconv.Itoa(r.Year),
		r.Operator,
		r.AircraftType,
		strconv.Itoa(r.Fatalities),
		string(r.Damage),
		lat,
		lon,
		r.Location,
		r.Source.String(),
	}
}

func (w *Writer) writeCSV(name string, rows [][]string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(rows); err != nil {
		return &domain.OutputError{Path: name, Err: err}
	}
	return w.writeFile(name, buf.Bytes())
}

// writeFile lands content at dir/name through a temp file and rename.
func (w *Writer) writeFile(name string, data []byte) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return &domain.OutputError{Path: w.dir, Err: err}
	}

	tmp, err := os.CreateTemp(w.dir, "."+name+".tmp-*")
	if err != nil {
		return &domain.OutputError{Path: name, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &domain.OutputError{Path: name, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &domain.OutputError{Path: name, Err: err}
	}

	final := filepath.Join(w.dir, name)
	if err := os.Rename(tmp.Name(), final); err != nil {
		return &domain.OutputError{Path: name, Err: err}
	}
	w.logger.Debug("artifact written", "path", final, "bytes", len(data))
	return nil
}
