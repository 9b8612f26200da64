// Command genmock generates a deterministic mock input tree for exercising
// the pipeline locally: plain and archived CSV files, JSON exports, and a few
// deliberately broken rows so validation counters move.
//
// Usage:
//
//	go run ./cmd/genmock -out testdata/input -rows 200 -seed 1
package main

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

var operators = []string{
	"Acme Air", "Beta Airways", "Gamma Jet", "Delta Cargo", "Epsilon Air",
	"Zephyr Lines", "Polar Express Aviation", "Meridian Charter",
}

var aircraftTypes = []string{
	"B737", "A320", "DC-3", "C208", "ATR 72", "DHC-6", "L-410", "F27",
}

var damages = []string{
	"destroyed", "substantial", "minor", "none", "written off", "w/o",
	"hull loss", "slight", "", "unk",
}

var locations = []string{
	"New York", "Paris", "Sydney", "Anchorage", "Nairobi", "La Paz",
	"Reykjavik", "Manaus", "",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "testdata/input", "output directory for the mock tree")
	rows := flag.Int("rows", 200, "total data rows to generate")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	all := generateRows(rng, *rows)

	// Spread the rows over heterogeneous containers: plain CSV, a
	// semicolon CSV, JSON, NDJSON, a zip with a nested zip, and a gzip.
	cuts := split(all, 6)

	if err := writeCSV(filepath.Join(*out, "registry_a.csv"), ',', cuts[0]); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(*out, "registry_b.csv"), ';', cuts[1]); err != nil {
		return err
	}
	if err := writeJSONArray(filepath.Join(*out, "export.json"), cuts[2]); err != nil {
		return err
	}
	if err := writeNDJSON(filepath.Join(*out, "export.ndjson"), cuts[3]); err != nil {
		return err
	}
	if err := writeZip(filepath.Join(*out, "archive.zip"), cuts[4]); err != nil {
		return err
	}
	if err := writeGzipCSV(filepath.Join(*out, "registry_c.csv.gz"), cuts[5]); err != nil {
		return err
	}

	// Noise the scanner must skip.
	if err := os.WriteFile(filepath.Join(*out, "noise.bin"), []byte{0x00, 0x13, 0x37, 0xff}, 0o644); err != nil {
		return err
	}

	log.Printf("wrote %d rows across 6 sources under %s", len(all), *out)
	return nil
}

type mockRow struct {
	Date       string `json:"date"`
	Year       string `json:"year,omitempty"`
	Operator   string `json:"operator"`
	Type       string `json:"type"`
	Fatalities string `json:"fatalities"`
	Damage     string `json:"damage"`
	Latitude   string `json:"latitude,omitempty"`
	Longitude  string `json:"longitude,omitempty"`
	Location   string `json:"location,omitempty"`
}

func generateRows(rng *rand.Rand, n int) []mockRow {
	rows := make([]mockRow, 0, n)
	for i := 0; i < n; i++ {
		date := time.Date(1990+rng.Intn(35), time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)
		row := mockRow{
			Date:       date.Format("2006-01-02"),
			Operator:   operators[rng.Intn(len(operators))],
			Type:       aircraftTypes[rng.Intn(len(aircraftTypes))],
			Fatalities: fmt.Sprintf("%d", rng.Intn(120)),
			Damage:     damages[rng.Intn(len(damages))],
			Location:   locations[rng.Intn(len(locations))],
		}
		if rng.Intn(3) > 0 {
			lat := rng.Float64()*180 - 90
			lon := rng.Float64()*360 - 180
			row.Latitude = fmt.Sprintf("%.4f", lat)
			row.Longitude = fmt.Sprintf("%.4f", lon)
		}

		// A stale year column disagrees with the date now and then; the
		// pipeline derives the year and keeps the row.
		if rng.Intn(10) == 0 {
			row.Year = fmt.Sprintf("%d", date.Year()-1)
		}

		// Roughly a fifth of the rows carry a defect for the validator or
		// normalizer to handle.
		switch rng.Intn(20) {
		case 0:
			row.Date = "someday"
		case 1:
			row.Fatalities = "-1"
		case 2:
			row.Latitude, row.Longitude = "95.0000", "10.0000" // out of range
		case 3:
			row.Longitude = "" // unpaired coordinate
		}

		rows = append(rows, row)

		// Occasionally restate the same incident with noisier casing so
		// deduplication has work to do.
		if rng.Intn(15) == 0 {
			dup := row
			dup.Operator = "  " + row.Operator + " "
			rows = append(rows, dup)
		}
	}
	return rows
}

func split(rows []mockRow, parts int) [][]mockRow {
	out := make([][]mockRow, parts)
	for i, r := range rows {
		out[i%parts] = append(out[i%parts], r)
	}
	return out
}

var header = []string{"date", "year", "operator", "type", "fatalities", "damage", "latitude", "longitude", "location"}

func toRecord(r mockRow) []string {
	return []string{r.Date, r.Year, r.Operator, r.Type, r.Fatalities, r.Damage, r.Latitude, r.Longitude, r.Location}
}

func csvBytes(delim rune, rows []mockRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = delim
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write(toRecord(r)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func writeCSV(path string, delim rune, rows []mockRow) error {
	data, err := csvBytes(delim, rows)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeJSONArray(path string, rows []mockRow) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func writeNDJSON(path string, rows []mockRow) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// writeZip nests half the rows one archive level deeper to exercise recursive
// scanning.
func writeZip(path string, rows []mockRow) error {
	half := len(rows) / 2

	inner, err := csvBytes(',', rows[half:])
	if err != nil {
		return err
	}
	var innerZip bytes.Buffer
	zw := zip.NewWriter(&innerZip)
	w, err := zw.Create("older/registry_e.csv")
	if err != nil {
		return err
	}
	if _, err := w.Write(inner); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	outerCSV, err := csvBytes(',', rows[:half])
	if err != nil {
		return err
	}
	var outer bytes.Buffer
	zw = zip.NewWriter(&outer)
	w, err = zw.Create("registry_d.csv")
	if err != nil {
		return err
	}
	if _, err := w.Write(outerCSV); err != nil {
		return err
	}
	w, err = zw.Create("nested.zip")
	if err != nil {
		return err
	}
	if _, err := w.Write(innerZip.Bytes()); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, outer.Bytes(), 0o644)
}

func writeGzipCSV(path string, rows []mockRow) error {
	data, err := csvBytes(',', rows)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		return err
	}
	if err := gw.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
