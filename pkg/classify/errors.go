package classify

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchemaViolation is the sentinel all classification failures wrap.
// Callers branch on it with errors.Is; the concrete error is always a
// *ValidationError carrying per-field reasons.
var ErrSchemaViolation = errors.New("schema violation")

// FieldError names a single field rule that failed.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) String() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// ValidationError aggregates every field rule a payload broke. It wraps
// ErrSchemaViolation so errors.Is(err, ErrSchemaViolation) holds.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%v: %s", ErrSchemaViolation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrSchemaViolation }

// add appends a field failure.
func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) addf(field, format string, args ...any) {
	e.add(field, fmt.Sprintf(format, args...))
}

// ok reports whether no failures were recorded.
func (e *ValidationError) ok() bool { return len(e.Fields) == 0 }

// schemaErr builds a single-field ValidationError.
func schemaErr(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}
