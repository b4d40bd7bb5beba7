package domain

import (
	"fmt"
	"strings"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ValidationError reports malformed input or configuration.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	switch {
	case e.Field == "" && e.Reason == "":
		return "validation failed"
	case e.Field == "":
		return "validation failed: " + e.Reason
	default:
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
	}
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

var ErrValidation = ValidationError{}

// PartialMergeFailure describes a merge sub-step that was skipped while the
// rest of the merge committed. It is reported, not returned.
type PartialMergeFailure struct {
	Step   string `json:"step"`
	Reason string `json:"reason"`
}

func (e PartialMergeFailure) Error() string {
	if e.Step == "" {
		return "partial merge failure"
	}
	return fmt.Sprintf("merge step %s skipped: %s", e.Step, e.Reason)
}

func (e PartialMergeFailure) Is(target error) bool {
	_, ok := target.(PartialMergeFailure)
	if ok {
		return true
	}
	_, ok = target.(*PartialMergeFailure)
	return ok
}

var ErrPartialMerge = PartialMergeFailure{}

// RequiredCalculationFailure aborts an integration whose required
// calculated field could not be produced.
type RequiredCalculationFailure struct {
	TargetField string
	Cause       error
}

func (e RequiredCalculationFailure) Error() string {
	if e.TargetField == "" {
		return "required calculation failed"
	}
	if e.Cause == nil {
		return fmt.Sprintf("required calculation %s failed", e.TargetField)
	}
	return fmt.Sprintf("required calculation %s failed: %v", e.TargetField, e.Cause)
}

func (e RequiredCalculationFailure) Unwrap() error { return e.Cause }

func (e RequiredCalculationFailure) Is(target error) bool {
	_, ok := target.(RequiredCalculationFailure)
	if ok {
		return true
	}
	_, ok = target.(*RequiredCalculationFailure)
	return ok
}

var ErrRequiredCalculation = RequiredCalculationFailure{}

// ConcurrencyConflict is raised when a concurrent writer claimed the same
// platform identifier first. Callers may retry.
type ConcurrencyConflict struct {
	Key   string
	Cause error
}

func (e ConcurrencyConflict) Error() string {
	var b strings.Builder
	b.WriteString("concurrency conflict")
	if e.Key != "" {
		b.WriteString(" on ")
		b.WriteString(e.Key)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e ConcurrencyConflict) Unwrap() error { return e.Cause }

func (e ConcurrencyConflict) Is(target error) bool {
	_, ok := target.(ConcurrencyConflict)
	if ok {
		return true
	}
	_, ok = target.(*ConcurrencyConflict)
	return ok
}

var ErrConcurrencyConflict = ConcurrencyConflict{}

// ErrCalculationUnsupported is returned by calculators that have no
// evaluator for the requested rule.
var ErrCalculationUnsupported = fmt.Errorf("calculation type not supported")

// ErrAttributeMismatch is returned when attributes of different domains
// are merged.
var ErrAttributeMismatch = fmt.Errorf("attribute variant mismatch")
