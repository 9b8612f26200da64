// Package domain models aviation accident records drawn from heterogeneous
// archive exports.
//
// # Data Source
//
// Input archives are loosely structured CSV and JSON exports of accident
// databases, often repackaged inside zip containers. Column names vary wildly
// between exports ("Date", "incident_date", "crash_date", ...); the normalizer
// maps them onto the canonical schema via a table-driven alias map.
//
// # Canonical Schema
//
// Every accepted record carries:
//
//	date          calendar date of the accident
//	year          always the calendar year component of date
//	fatalities    non-negative count, 0 when unreported
//	damage_level  closed enum: none | minor | substantial | destroyed | unknown
//	latitude/longitude  both present and in WGS-84 range, or both absent
//	operator, aircraft_type, location  free text, trimmed, possibly empty
//
// Free-text damage descriptions ("written off", "hull loss", "slight") resolve
// through a synonym table with a guaranteed fallback to "unknown"; no record
// is ever dropped for having an unrecognized damage description.
//
// # Deduplication
//
// Two rows describe the same incident when their normalized
// (date, operator, aircraft_type, location) tuples match. Normalization is
// case-folding plus whitespace trimming and collapsing, so "Acme Air" and
// "acme air " collide. The first occurrence in path/row order wins; later
// occurrences are retained only as counts in the run report.
package domain
