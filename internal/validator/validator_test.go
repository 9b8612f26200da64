package validator

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/domain"
)

func validCandidate() domain.Candidate {
	return domain.Candidate{
		Record: domain.CanonicalRecord{
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

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Candidate)
		status Status
		reason domain.Reason
	}{
		{
			name:   "valid record",
			mutate: func(c *domain.Candidate) {},
			status: StatusValid,
		},
		{
			name:   "missing required fields",
			mutate: func(c *domain.Candidate) { c.MissingRequired = true },
			status: StatusInvalid,
			reason: domain.ReasonMissingRequiredField,
		},
		{
			name:   "year disagrees with date",
			mutate: func(c *domain.Candidate) { c.Record.Year = 2019 },
			status: StatusInvalid,
			reason: domain.ReasonYearMismatch,
		},
		{
			name:   "negative fatalities",
			mutate: func(c *domain.Candidate) { c.Record.Fatalities = -1 },
			status: StatusInvalid,
			reason: domain.ReasonNegativeFatalities,
		},
		{
			name:   "unresolvable damage level",
			mutate: func(c *domain.Candidate) { c.Record.Damage = "shredded" },
			status: StatusInvalid,
			reason: domain.ReasonUnknownDamageLevel,
		},
		{
			name:   "latitude out of range",
			mutate: func(c *domain.Candidate) { c.Record.Geo = &domain.Geo{Lat: 95, Lon: 10} },
			status: StatusInvalid,
			reason: domain.ReasonCoordinatesOutOfRange,
		},
		{
			name:   "longitude out of range",
			mutate: func(c *domain.Candidate) { c.Record.Geo = &domain.Geo{Lat: 10, Lon: -181} },
			status: StatusInvalid,
			reason: domain.ReasonCoordinatesOutOfRange,
		},
		{
			name:   "no coordinates is fine",
			mutate: func(c *domain.Candidate) { c.Record.Geo = nil },
			status: StatusValid,
		},
		{
			name:   "zero fatalities is fine",
			mutate: func(c *domain.Candidate) { c.Record.Fatalities = 0 },
			status: StatusValid,
		},
		{
			name: "missing required reported before year mismatch",
			mutate: func(c *domain.Candidate) {
				c.MissingRequired = true
				c.Record.Year = 1900
			},
			status: StatusInvalid,
			reason: domain.ReasonMissingRequiredField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand := validCandidate()
			tt.mutate(&cand)
			out := Check(cand)
			assert.Equal(t, tt.status, out.Status)
			assert.Equal(t, tt.reason, out.Reason)
		})
	}
}

func TestDeduper_FirstSeenWins(t *testing.T) {
	d := NewDeduper(slog.New(slog.NewTextHandler(io.Discard, nil)))

	first := validCandidate().Record
	out := d.Admit(first)
	assert.Equal(t, StatusValid, out.Status)

	// Same incident, noisier formatting and a conflicting fatality count.
	second := first
	second.Operator = "  ACME   air "
	second.Fatalities = 5
	second.Source = domain.SourceRef{File: "b.csv", Row: 9}

	out = d.Admit(second)
	assert.Equal(t, StatusDuplicate, out.Status)
	assert.Equal(t, first.Source, out.DuplicateOf)
	assert.Equal(t, 1, d.Size())
}

func TestDeduper_DistinctKeys(t *testing.T) {
	d := NewDeduper(slog.New(slog.NewTextHandler(io.Discard, nil)))

	a := validCandidate().Record
	b := a
	b.Date = a.Date.AddDate(0, 0, 1)
	c := a
	c.AircraftType = "A320"

	assert.Equal(t, StatusValid, d.Admit(a).Status)
	assert.Equal(t, StatusValid, d.Admit(b).Status)
	assert.Equal(t, StatusValid, d.Admit(c).Status)
	assert.Equal(t, 3, d.Size())
}
