package normalizer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/domain"
)

// Canonical field names columns are mapped onto.
const (
	fieldDate         = "date"
	fieldYear         = "year"
	fieldOperator     = "operator"
	fieldAircraftType = "aircraft_type"
	fieldFatalities   = "fatalities"
	fieldDamage       = "damage_level"
	fieldLatitude     = "latitude"
	fieldLongitude    = "longitude"
	fieldLocation     = "location"
)

// defaultAliases maps normalized source column names to canonical fields.
// Keys must already be in normalizeColumn form.
var defaultAliases = map[string]string{
	"date":          fieldDate,
	"event date":    fieldDate,
	"accident date": fieldDate,
	"crash date":    fieldDate,

	"year": fieldYear,

	"operator":      fieldOperator,
	"operator name": fieldOperator,
	"airline":       fieldOperator,
	"carrier":       fieldOperator,

	"type":          fieldAircraftType,
	"aircraft type": fieldAircraftType,
	"aircraft":      fieldAircraftType,
	"ac type":       fieldAircraftType,
	"model":         fieldAircraftType,

	"fatalities":       fieldFatalities,
	"total fatalities": fieldFatalities,
	"fatal":            fieldFatalities,
	"deaths":           fieldFatalities,
	"killed":           fieldFatalities,

	"damage":          fieldDamage,
	"damage level":    fieldDamage,
	"aircraft damage": fieldDamage,

	"latitude": fieldLatitude,
	"lat":      fieldLatitude,

	"longitude": fieldLongitude,
	"lon":       fieldLongitude,
	"lng":       fieldLongitude,
	"long":      fieldLongitude,

	"location": fieldLocation,
	"place":    fieldLocation,
	"site":     fieldLocation,
	"city":     fieldLocation,
}

var canonicalFields = map[string]bool{
	fieldDate:         true,
	fieldYear:         true,
	fieldOperator:     true,
	fieldAircraftType: true,
	fieldFatalities:   true,
	fieldDamage:       true,
	fieldLatitude:     true,
	fieldLongitude:    true,
	fieldLocation:     true,
}

// normalizeColumn folds a source column name to its lookup form: lower case,
// underscores and dashes treated as spaces, runs of whitespace collapsed.
func normalizeColumn(name string) string {
	name = strings.ToLower(name)
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// Overrides extends the built-in column aliases and damage synonyms from a
// YAML file. Aliases map a canonical field to extra source column names;
// damage synonyms map a source damage string to a canonical level.
type Overrides struct {
	Aliases        map[string][]string `yaml:"aliases"`
	DamageSynonyms map[string]string   `yaml:"damage_synonyms"`
}

// LoadOverrides reads and validates an override file. Unknown canonical field
// names and unknown damage levels are rejected rather than silently ignored.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading alias file: %w", err)
	}

	var ov Overrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("parsing alias file %s: %w", path, err)
	}

	for field := range ov.Aliases {
		if !canonicalFields[field] {
			return nil, fmt.Errorf("alias file %s: unknown canonical field %q", path, field)
		}
	}
	for synonym, level := range ov.DamageSynonyms {
		if !domain.DamageLevel(level).Known() {
			return nil, fmt.Errorf("alias file %s: synonym %q maps to unknown damage level %q", path, synonym, level)
		}
	}
	return &ov, nil
}

// aliasTable merges the defaults with override aliases. Overrides win on
// collision.
func aliasTable(ov *Overrides) map[string]string {
	table := make(map[string]string, len(defaultAliases))
	for col, field := range defaultAliases {
		table[col] = field
	}
	if ov != nil {
		for field, cols := range ov.Aliases {
			for _, col := range cols {
				table[normalizeColumn(col)] = field
			}
		}
	}
	return table
}

// damageTable returns the override synonym map keyed in normalized form.
func damageTable(ov *Overrides) map[string]domain.DamageLevel {
	if ov == nil || len(ov.DamageSynonyms) == 0 {
		return nil
	}
	table := make(map[string]domain.DamageLevel, len(ov.DamageSynonyms))
	for synonym, level := range ov.DamageSynonyms {
		table[normalizeColumn(synonym)] = domain.DamageLevel(level)
	}
	return table
}
