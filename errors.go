package aikit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModelRequired is returned when no primary model provider is configured.
	ErrModelRequired = errors.New("model provider is required")
	// ErrNoGroupBuilders is returned when a catalog is built without any capability group builders.
	ErrNoGroupBuilders = errors.New("there are no capability group builders defined")
	// ErrDuplicateGroup is returned when two capability groups share the same identifier.
	ErrDuplicateGroup = errors.New("duplicate capability group identifier")
	// ErrInvalidRoundTrips is returned when the round-trip budget is not a positive integer.
	ErrInvalidRoundTrips = errors.New("round-trip budget must be a positive integer")
	// ErrNoMatchingGroup is returned when requested group identifiers match nothing in the catalog.
	ErrNoMatchingGroup = errors.New("no matching capability group")
	// ErrInvalidDecision is returned when the orchestration output does not conform to its schema.
	ErrInvalidDecision = errors.New("orchestration response validation failed")
	// ErrNoFinalResponse is returned when a model produces no completed message.
	ErrNoFinalResponse = errors.New("stream ended without a final response")
)

// GroupNotFoundError reports the group identifiers that could not be resolved.
type GroupNotFoundError struct {
	IDs []string
}

func (e *GroupNotFoundError) Error() string {
	return fmt.Sprintf("%s: none of the requested groups (%s) were found", ErrNoMatchingGroup, strings.Join(e.IDs, ", "))
}

// Is reports whether target is ErrNoMatchingGroup.
func (e *GroupNotFoundError) Is(target error) bool {
	return target == ErrNoMatchingGroup
}

// DecisionError carries the raw orchestration output that failed validation.
type DecisionError struct {
	Raw string
	Err error
}

func (e *DecisionError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidDecision, e.Err)
}

// Is reports whether target is ErrInvalidDecision.
func (e *DecisionError) Is(target error) bool {
	return target == ErrInvalidDecision
}

// Unwrap returns the underlying validation error.
func (e *DecisionError) Unwrap() error {
	return e.Err
}
