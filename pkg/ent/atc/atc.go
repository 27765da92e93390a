// Package atc handles codes of the Anatomical Therapeutic Chemical (ATC)
// classification system.
//
// ATC code has 7 characters that describe 5 levels of classification.
// Characters 1, 4 and 5 are letters, characters 2, 3, 6, 7 are digits:
//
//	C     anatomical main group (1 letter)
//	C03   therapeutic subgroup (2 digits)
//	C03C  pharmacological subgroup (1 letter)
//	C03CA chemical subgroup (1 letter)
//	C03CA01 chemical substance (2 digits)
package atc

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// Length is the number of characters in a complete ATC code.
	Length = 7

	// LegacyPattern is the regular expression used by the first catalog
	// for atc_code. It does not describe real ATC codes: '*2' was most
	// likely meant to be '{2}'. It is kept verbatim for compatibility with
	// data validated by the old catalog.
	LegacyPattern = `^[a-z][0-9]*2[a-z]*2[0-9]*2`

	// Pattern describes the structure of a 7-character ATC code.
	Pattern = `^[A-Za-z][0-9]{2}[A-Za-z]{2}[0-9]{2}$`
)

var (
	legacyRe = regexp.MustCompile(LegacyPattern)
	re       = regexp.MustCompile(Pattern)
)

// ErrMalformed is returned when a code does not have the structure of an
// ATC code.
var ErrMalformed = errors.New("malformed ATC code")

// Segments are the 5 levels of an ATC code.
type Segments struct {
	// Anatomia is the anatomical main group, one letter.
	Anatomia string
	// Therapeutics is the therapeutic subgroup, two digits.
	Therapeutics string
	// Pharmacology is the pharmacological subgroup, one letter.
	Pharmacology string
	// Chemical is the chemical subgroup, one letter.
	Chemical string
	// Compound is the chemical substance, two digits.
	Compound string
}

// IsZero is true if none of the segments is set.
func (s Segments) IsZero() bool {
	return s == Segments{}
}

// Code concatenates segments into a code.
func (s Segments) Code() string {
	return s.Anatomia + s.Therapeutics + s.Pharmacology + s.Chemical + s.Compound
}

// Validate reports if code is a structurally correct 7-character ATC code.
func Validate(code string) bool {
	return re.MatchString(code)
}

// MatchLegacy applies LegacyPattern to the code.
func MatchLegacy(code string) bool {
	return legacyRe.MatchString(code)
}

// Validator checks codes either with the structural or the legacy pattern.
type Validator struct {
	legacy bool
}

// NewValidator creates a Validator. If legacy is true, codes are checked
// with LegacyPattern.
func NewValidator(legacy bool) Validator {
	return Validator{legacy: legacy}
}

// Valid reports if code passes the validator's pattern.
func (v Validator) Valid(code string) bool {
	if v.legacy {
		return MatchLegacy(code)
	}
	return Validate(code)
}

// Pattern returns the regular expression used by the validator.
func (v Validator) Pattern() string {
	if v.legacy {
		return LegacyPattern
	}
	return Pattern
}

// Split breaks a structurally correct code into segments.
func Split(code string) (Segments, error) {
	if !Validate(code) {
		return Segments{}, fmt.Errorf("%w: %q", ErrMalformed, code)
	}
	res := Segments{
		Anatomia:     code[0:1],
		Therapeutics: code[1:3],
		Pharmacology: code[3:4],
		Chemical:     code[4:5],
		Compound:     code[5:7],
	}
	return res, nil
}

// Normalize trims spaces and converts letters of the code to upper case,
// the form used by WHO publications.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
