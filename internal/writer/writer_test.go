package writer

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/aggregate"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/domain"
)

func testWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	dir := t.TempDir()
	return New(dir, slog.New(slog.NewTextHandler(io.Discard, nil))), dir
}

func sampleRecords() []domain.CanonicalRecord {
	return []domain.CanonicalRecord{
		{
			Date:         time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
			Year:         2020,
			Operator:     "Beta Airways",
			AircraftType: "A320",
			Fatalities:   5,
			Damage:       domain.DamageDestroyed,
			Location:     "Paris",
			Source:       domain.SourceRef{File: "b.csv", Row: 3},
		},
		{
			Date:         time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC),
			Year:         2020,
			Operator:     "Acme Air",
			AircraftType: "B737",
			Fatalities:   2,
			Damage:       domain.DamageSubstantial,
			Geo:          &domain.Geo{Lat: 40.5, Lon: -73.9},
			Location:     "New York",
			Source:       domain.SourceRef{File: "a.csv", Row: 1},
		},
	}
}

func TestWriteRecords(t *testing.T) {
	w, dir := testWriter(t)
	require.NoError(t, w.WriteRecords(sampleRecords()))

	data, err := os.ReadFile(filepath.Join(dir, RecordsFile))
	require.NoError(t, err)

	want := "date,year,operator,aircraft_type,fatalities,damage_level,latitude,longitude,location,source_id\n" +
		"2020-01-05,2020,Acme Air,B737,2,substantial,40.5,-73.9,New York,a.csv#1\n" +
		"2020-03-01,2020,Beta Airways,A320,5,destroyed,,,Paris,b.csv#3\n"
	assert.Equal(t, want, string(data))
}

func TestWriteRecords_Deterministic(t *testing.T) {
	w, dir := testWriter(t)
	records := sampleRecords()

	require.NoError(t, w.WriteRecords(records))
	first, err := os.ReadFile(filepath.Join(dir, RecordsFile))
	require.NoError(t, err)

	// Reversed input order must not change the artifact bytes.
	reversed := []domain.CanonicalRecord{records[1], records[0]}
	require.NoError(t, w.WriteRecords(reversed))
	second, err := os.ReadFile(filepath.Join(dir, RecordsFile))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestWriteAggregates(t *testing.T) {
	w, dir := testWriter(t)

	result := aggregate.New(1.0)
	for _, rec := range sampleRecords() {
		result.Observe(rec)
	}
	require.NoError(t, w.WriteAggregates(result))

	for _, dim := range aggregate.Dimensions {
		_, err := os.Stat(filepath.Join(dir, AggFile(dim)))
		assert.NoError(t, err, dim)
	}

	data, err := os.ReadFile(filepath.Join(dir, AggFile(aggregate.DimYear)))
	require.NoError(t, err)
	assert.Equal(t, "dimension_key,count,fatality_sum\n2020,2,7\n", string(data))
}

func TestWriteReport(t *testing.T) {
	w, dir := testWriter(t)

	report := domain.RunReport{
		RunID:   "run-1",
		Outcome: domain.OutcomeSuccess,
	}
	report.FilesScanned = 3
	report.Valid = 10
	require.NoError(t, w.WriteReport(report))

	data, err := os.ReadFile(filepath.Join(dir, ReportFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id": "run-1"`)
	assert.Contains(t, string(data), `"outcome": "success"`)
	assert.Contains(t, string(data), `"files_scanned": 3`)
}

func TestWriteFile_NoTempLeftovers(t *testing.T) {
	w, dir := testWriter(t)
	require.NoError(t, w.WriteRecords(nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, RecordsFile, entries[0].Name())
}

func TestWrite_OutputError(t *testing.T) {
	// A file standing where the output directory should be makes every
	// artifact write fail with an OutputError.
	dir := t.TempDir()
	blocked := filepath.Join(dir, "occupied")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	w := New(blocked, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := w.WriteRecords(sampleRecords())

	var oerr *domain.OutputError
	require.ErrorAs(t, err, &oerr)
}
