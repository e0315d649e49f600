package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound reports a missing tenant, type, attribute, entity or relation.
var ErrNotFound = errors.New("not found")

// ValidationError rejects malformed input before any write.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a uniqueness violation within its scope.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func Conflictf(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// DependencyError blocks a catalog delete while dependent rows exist.
// Counts holds the non-zero dependent totals per kind.
type DependencyError struct {
	Resource string
	Counts   map[string]int64
}

func (e *DependencyError) Error() string {
	kinds := make([]string, 0, len(e.Counts))
	for kind := range e.Counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, e.Counts[kind]))
	}
	return fmt.Sprintf("%s has dependents: %s", e.Resource, strings.Join(parts, " "))
}
