package domain

import "strings"

// DamageLevel is the closed damage-severity enum.
type DamageLevel string

const (
	DamageNone        DamageLevel = "none"
	DamageMinor       DamageLevel = "minor"
	DamageSubstantial DamageLevel = "substantial"
	DamageDestroyed   DamageLevel = "destroyed"
	DamageUnknown     DamageLevel = "unknown"
)

// Known reports whether d is a member of the enum.
func (d DamageLevel) Known() bool {
	switch d {
	case DamageNone, DamageMinor, DamageSubstantial, DamageDestroyed, DamageUnknown:
		return true
	}
	return false
}

// damageSynonyms maps source phrasings onto the enum. Ordered most-specific
// first because resolution falls back to substring matching: "written off"
// must win before a substring like "off" could ever be consulted, and
// "no damage" must be tested before "damage"-bearing substantial phrasings.
var damageSynonyms = []struct {
	match string
	level DamageLevel
}{
	{"destroyed", DamageDestroyed},
	{"written off", DamageDestroyed},
	{"write-off", DamageDestroyed},
	{"w/o", DamageDestroyed},
	{"hull loss", DamageDestroyed},
	{"total loss", DamageDestroyed},
	{"wrecked", DamageDestroyed},
	{"substantial", DamageSubstantial},
	{"major", DamageSubstantial},
	{"serious", DamageSubstantial},
	{"heavy", DamageSubstantial},
	{"no damage", DamageNone},
	{"none", DamageNone},
	{"intact", DamageNone},
	{"nil", DamageNone},
	{"minor", DamageMinor},
	{"slight", DamageMinor},
	{"light", DamageMinor},
	{"unknown", DamageUnknown},
	{"unk", DamageUnknown},
}

// ResolveDamage maps free-text damage descriptions onto the enum: exact match
// against the synonym table first, then substring match, then the "unknown"
// sentinel. Every input resolves; unmatched text is never an error.
func ResolveDamage(text string) DamageLevel {
	t := NormalizeKeyPart(text)
	if t == "" {
		return DamageUnknown
	}
	for _, s := range damageSynonyms {
		if t == s.match {
			return s.level
		}
	}
	for _, s := range damageSynonyms {
		if strings.Contains(t, s.match) {
			return s.level
		}
	}
	return DamageUnknown
}
