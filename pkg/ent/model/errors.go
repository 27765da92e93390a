package model

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateKey is matched by every DuplicateKeyError.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("record not found")
)

// Codes of field errors.
const (
	CodeRequired      = "required"
	CodeMaxLength     = "max_length"
	CodePattern       = "pattern"
	CodeMinValue      = "min_value"
	CodeMaxDigits     = "max_digits"
	CodeDecimalPlaces = "decimal_places"
	CodeMismatch      = "mismatch"
	CodeParse         = "parse"
)

// FieldError describes one field that did not pass validation.
type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a record fails length, pattern or
// required constraints. Nothing is persisted in that case.
type ValidationError struct {
	Entity string       `json:"entity"`
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i := range e.Fields {
		msgs[i] = e.Fields[i].Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Has reports if the error contains a FieldError with the given field
// and code.
func (e *ValidationError) Has(field, code string) bool {
	for _, v := range e.Fields {
		if v.Field == field && v.Code == code {
			return true
		}
	}
	return false
}

// DuplicateKeyError is returned when a unique constraint on a table
// is violated.
type DuplicateKeyError struct {
	Table string
	Field string
	Value string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key in %s: %s=%q already exists",
		e.Table, e.Field, e.Value)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// NotFoundError is returned when a lookup by a key misses.
type NotFoundError struct {
	Table string
	Key   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no record with key %q", e.Table, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// checker accumulates field errors of one record.
type checker struct {
	entity string
	errs   []FieldError
}

func (c *checker) add(code, field, msg string) {
	c.errs = append(c.errs, FieldError{Code: code, Field: field, Message: msg})
}

func (c *checker) required(field, val string) {
	if val == "" {
		c.add(CodeRequired, field, fmt.Sprintf("field '%s' is required", field))
	}
}

func (c *checker) maxLen(field, val string, n int) {
	if l := utf8.RuneCountInString(val); l > n {
		c.add(CodeMaxLength, field,
			fmt.Sprintf("field '%s' has %d characters, at most %d allowed", field, l, n))
	}
}

func (c *checker) maxLenPtr(field string, val *string, n int) {
	if val != nil {
		c.maxLen(field, *val, n)
	}
}

func (c *checker) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &ValidationError{Entity: c.entity, Fields: c.errs}
}
