// Package normalizer maps raw source rows onto the canonical record schema.
// Column headers are matched through an alias table, values are coerced to
// typed fields, and rows that cannot be coerced still come out as candidates
// so the validator can account for them.
package normalizer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/domain"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/observability"
)

// Warning tags attached to candidates for lossy coercions.
const (
	WarnFatalitiesDefaulted = "fatalities_defaulted"
	WarnUnpairedCoordinates = "unpaired_coordinates"
	WarnYearColumnDisagrees = "year_column_disagrees"
	WarnUnparseableYear     = "unparseable_year"
)

// Normalizer converts RawFiles into candidate records.
type Normalizer struct {
	aliases map[string]string
	damage  map[string]domain.DamageLevel
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New builds a Normalizer. ov may be nil, which leaves only the built-in
// aliases and damage synonyms in effect.
func New(ov *Overrides, logger *slog.Logger, metrics *observability.Metrics) *Normalizer {
	return &Normalizer{
		aliases: aliasTable(ov),
		damage:  damageTable(ov),
		logger:  logger,
		metrics: metrics,
	}
}

// NormalizeFile reads one source file and returns a candidate per data row.
// Row numbers in Source are 1-based over data rows. A malformed file returns
// a FormatError; candidates decoded before the failure are returned with it.
func (n *Normalizer) NormalizeFile(ctx context.Context, file domain.RawFile) ([]domain.Candidate, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, &domain.ScanError{Path: file.Path, Err: err}
	}
	defer rc.Close()

	var cands []domain.Candidate
	switch file.Format {
	case domain.FormatCSV:
		cands, err = n.normalizeCSV(ctx, file.Path, rc)
	case domain.FormatJSON:
		cands, err = n.normalizeJSON(ctx, file.Path, rc)
	default:
		return nil, &domain.FormatError{Path: file.Path}
	}
	if err != nil {
		return cands, err
	}

	n.metrics.RowsNormalized.Add(float64(len(cands)))
	n.logger.Debug("file normalized", "path", file.Path, "rows", len(cands))
	return cands, nil
}

func (n *Normalizer) normalizeCSV(ctx context.Context, path string, r io.Reader) ([]domain.Candidate, error) {
	br := bufio.NewReader(newBOMReader(r))
	head, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, &domain.FormatError{Path: path, Err: err}
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(head)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.FormatError{Path: path, Err: err}
	}

	fields := make([]string, len(header))
	for i, col := range header {
		fields[i] = n.aliases[normalizeColumn(col)]
	}

	var cands []domain.Candidate
	for row := 1; ; row++ {
		if cerr := ctx.Err(); cerr != nil {
			return cands, cerr
		}
		rec, err := cr.Read()
		if err == io.EOF {
			return cands, nil
		}
		if err != nil {
			return cands, &domain.FormatError{Path: path, Err: err}
		}

		raw := domain.RawRow{}
		for i, v := range rec {
			if i < len(fields) && fields[i] != "" {
				raw[fields[i]] = v
			}
		}
		cands = append(cands, n.toCandidate(domain.SourceRef{File: path, Row: row}, raw))
	}
}

// normalizeJSON accepts either a top-level array of objects or newline-
// delimited objects.
func (n *Normalizer) normalizeJSON(ctx context.Context, path string, r io.Reader) ([]domain.Candidate, error) {
	br := bufio.NewReader(newBOMReader(r))
	head, err := br.Peek(512)
	if err != nil && err != io.EOF {
		return nil, &domain.FormatError{Path: path, Err: err}
	}
	lead := bytes.TrimLeft(head, " \t\r\n")
	if len(lead) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	var cands []domain.Candidate
	emit := func(row int, obj map[string]any) {
		cands = append(cands, n.toCandidate(domain.SourceRef{File: path, Row: row}, n.objectToRow(obj)))
	}

	if lead[0] == '[' {
		if _, err := dec.Token(); err != nil {
			return nil, &domain.FormatError{Path: path, Err: err}
		}
		for row := 1; dec.More(); row++ {
			if cerr := ctx.Err(); cerr != nil {
				return cands, cerr
			}
			var obj map[string]any
			if err := dec.Decode(&obj); err != nil {
				return cands, &domain.FormatError{Path: path, Err: err}
			}
			emit(row, obj)
		}
		if _, err := dec.Token(); err != nil {
			return cands, &domain.FormatError{Path: path, Err: err}
		}
		return cands, nil
	}

	for row := 1; ; row++ {
		if cerr := ctx.Err(); cerr != nil {
			return cands, cerr
		}
		var obj map[string]any
		if err := dec.Decode(&obj); err == io.EOF {
			return cands, nil
		} else if err != nil {
			return cands, &domain.FormatError{Path: path, Err: err}
		}
		emit(row, obj)
	}
}

// objectToRow flattens a decoded JSON object into canonical-keyed strings.
func (n *Normalizer) objectToRow(obj map[string]any) domain.RawRow {
	raw := domain.RawRow{}
	for key, val := range obj {
		field := n.aliases[normalizeColumn(key)]
		if field == "" {
			continue
		}
		raw[field] = stringify(val)
	}
	return raw
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// toCandidate coerces one aliased row into a candidate record. Coercion never
// rejects; it fills what it can, tags warnings, and leaves classification to
// the validator.
func (n *Normalizer) toCandidate(src domain.SourceRef, raw domain.RawRow) domain.Candidate {
	cand := domain.Candidate{Record: domain.CanonicalRecord{Source: src}}
	rec := &cand.Record

	date, dateOK := parseDate(raw[fieldDate])
	if dateOK {
		rec.Date = date
		rec.Year = date.Year()
	}

	// Year always derives from the date. A source year column never overrides
	// it; a disagreement is tagged so it still shows up in the run report.
	if ys := strings.TrimSpace(raw[fieldYear]); ys != "" {
		if y, ok := parseCount(ys); ok {
			if dateOK && y != date.Year() {
				cand.Warnings = append(cand.Warnings, WarnYearColumnDisagrees)
			}
			if !dateOK {
				rec.Year = y
			}
		} else {
			cand.Warnings = append(cand.Warnings, WarnUnparseableYear)
		}
	}

	rec.Operator = strings.TrimSpace(raw[fieldOperator])
	rec.AircraftType = strings.TrimSpace(raw[fieldAircraftType])
	rec.Location = strings.TrimSpace(raw[fieldLocation])

	if !dateOK || (rec.Operator == "" && rec.AircraftType == "") {
		cand.MissingRequired = true
	}

	if fs := strings.TrimSpace(raw[fieldFatalities]); fs == "" {
		cand.Warnings = append(cand.Warnings, WarnFatalitiesDefaulted)
	} else if f, ok := parseCount(fs); ok {
		rec.Fatalities = f
	} else {
		cand.Warnings = append(cand.Warnings, WarnFatalitiesDefaulted)
	}

	rec.Damage = n.resolveDamage(raw[fieldDamage])

	lat, latOK := parseCoord(raw[fieldLatitude])
	lon, lonOK := parseCoord(raw[fieldLongitude])
	switch {
	case latOK && lonOK:
		rec.Geo = &domain.Geo{Lat: lat, Lon: lon}
	case strings.TrimSpace(raw[fieldLatitude]) != "" || strings.TrimSpace(raw[fieldLongitude]) != "":
		// One side present or unparseable noise on either side. Drop the
		// pair rather than invent a 0.0 coordinate.
		cand.Warnings = append(cand.Warnings, WarnUnpairedCoordinates)
	}

	return cand
}

func (n *Normalizer) resolveDamage(s string) domain.DamageLevel {
	if level, ok := n.damage[normalizeColumn(s)]; ok {
		return level
	}
	return domain.ResolveDamage(s)
}

func sniffDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, c := range []byte{';', '\t'} {
		if n := bytes.Count(line, []byte{c}); n > bestCount {
			best, bestCount = rune(c), n
		}
	}
	return best
}

// newBOMReader strips a leading UTF-8 byte order mark, common in spreadsheet
// CSV exports.
func newBOMReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, err := br.Peek(3)
	if err == nil && bytes.Equal(head, []byte{0xef, 0xbb, 0xbf}) {
		br.Discard(3)
	}
	return br
}
