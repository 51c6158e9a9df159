// Package types contains value types and sentinels shared across the domain packages.
package types

import "strings"

// Sentinel values handled as data rather than as errors.
const (
	// All selects every value of a filter dimension.
	All = "all"
	// UnknownDivision stands in for a result row without a division.
	UnknownDivision = "Unknown"
	// Placeholder is rendered for any missing display value.
	Placeholder = "—"
)

// PhotoRef identifies one photo. It is the photo URL.
type PhotoRef string

// Gender is one of a closed set of values reported by the timing source.
type Gender string

// Known genders. The empty value means the timing source did not report one.
const (
	GenderMale      Gender = "M"
	GenderFemale    Gender = "F"
	GenderNonBinary Gender = "X"
)

// ParseGender maps loosely formatted input onto the closed gender set.
// Unrecognized input yields the empty Gender.
func ParseGender(s string) Gender {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "MALE":
		return GenderMale
	case "F", "FEMALE":
		return GenderFemale
	case "X", "NB", "NONBINARY", "NON-BINARY":
		return GenderNonBinary
	default:
		return ""
	}
}

// Valid reports whether g belongs to the closed gender set.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderNonBinary:
		return true
	default:
		return false
	}
}

// RefSet is a membership-only set of photo refs.
type RefSet map[PhotoRef]struct{}

// NewRefSet builds a set from refs.
func NewRefSet(refs ...PhotoRef) RefSet {
	s := make(RefSet, len(refs))
	for _, r := range refs {
		s[r] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set contains nothing.
func (s RefSet) Has(r PhotoRef) bool {
	_, ok := s[r]
	return ok
}

// Add inserts r and reports whether it was new.
func (s RefSet) Add(r PhotoRef) bool {
	if _, ok := s[r]; ok {
		return false
	}
	s[r] = struct{}{}
	return true
}
