// Package sanitize provides shared identifier sanitization and validation
// for agent spec names.
//
// Spec names become filenames under the spec content directory, so they
// must never carry path separators or traversal sequences.
package sanitize

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MaxNameLength is the maximum length for a spec name.
	MaxNameLength = 64

	// DefaultName is used when sanitization produces an empty result.
	DefaultName = "default"
)

// ErrInvalidSpecName indicates a spec name that cannot safely form a
// filename.
var ErrInvalidSpecName = errors.New("invalid spec name")

// ValidateSpecName checks that a spec name is safe to join onto the spec
// directory path: non-empty, no path characters, lowercase alphanumeric
// with underscores or hyphens, at most MaxNameLength chars.
func ValidateSpecName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSpecName)
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return fmt.Errorf("%w: contains path characters", ErrInvalidSpecName)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidSpecName, MaxNameLength)
	}
	for _, r := range name {
		if !isNameRune(r) {
			return fmt.Errorf("%w: must be lowercase alphanumeric with underscores or hyphens", ErrInvalidSpecName)
		}
	}
	return nil
}

// Name sanitizes an arbitrary string into a valid spec name.
//
// Rules applied:
//   - Converts to lowercase
//   - Replaces invalid characters with underscores
//   - Collapses multiple underscores
//   - Trims leading/trailing underscores
//   - Truncates to MaxNameLength
//   - Returns DefaultName if the result would be empty
func Name(s string) string {
	if s == "" {
		return DefaultName
	}

	s = strings.ToLower(s)

	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if isNameRune(r) {
			result.WriteRune(r)
		} else {
			result.WriteRune('_')
		}
	}

	sanitized := result.String()
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")

	if sanitized == "" {
		return DefaultName
	}
	if len(sanitized) > MaxNameLength {
		sanitized = sanitized[:MaxNameLength]
	}
	return sanitized
}

func isNameRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
}
