package sync

import (
	"errors"
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Error Classification
// ---------------------------------------------------------------------------

// ErrorClass categorizes a platform failure so the orchestrator and retry
// policy can decide how to handle it without inspecting platform-native
// error shapes.
type ErrorClass string

const (
	// ClassValidation marks a malformed or incomplete entity. Never retried.
	ClassValidation ErrorClass = "VALIDATION"
	// ClassNotFound marks an entity missing on a platform. Treated as
	// "needs create" by the orchestrator unless it occurs on the target
	// of an update.
	ClassNotFound ErrorClass = "NOT_FOUND"
	// ClassRateLimited marks a throttled request. Retried with backoff,
	// honoring a platform-supplied retry-after hint when present.
	ClassRateLimited ErrorClass = "RATE_LIMITED"
	// ClassTransient marks a network or timeout failure. Retried with
	// exponential backoff up to a bounded attempt count.
	ClassTransient ErrorClass = "TRANSIENT"
	// ClassConflictWrite marks a write that lost to a concurrent change
	// on the target. Retried exactly once with freshly fetched state.
	ClassConflictWrite ErrorClass = "CONFLICT_WRITE"
	// ClassFatal marks auth failures and schema mismatches. Not retried;
	// aborts the entity but never the batch.
	ClassFatal ErrorClass = "FATAL"
)

// IsValid returns true if the class is a known error class
func (c ErrorClass) IsValid() bool {
	switch c {
	case ClassValidation, ClassNotFound, ClassRateLimited,
		ClassTransient, ClassConflictWrite, ClassFatal:
		return true
	default:
		return false
	}
}

// Retryable returns true for classes the generic retry loop may retry.
// ClassConflictWrite is excluded: its single refetch-and-retry is owned by
// the orchestrator, not the backoff loop.
func (c ErrorClass) Retryable() bool {
	return c == ClassRateLimited || c == ClassTransient
}

// ---------------------------------------------------------------------------
// PlatformError
// ---------------------------------------------------------------------------

// PlatformError wraps a platform failure with its classification. Adapters
// return PlatformError for every non-nil failure so the core can branch on
// Class alone.
type PlatformError struct {
	// Class is the error classification
	Class ErrorClass
	// Platform is the platform the call was made against
	Platform PlatformCode
	// RetryAfter is the platform-supplied backoff hint, if any
	RetryAfter time.Duration
	// Err is the underlying cause
	Err error
}

// Error implements the error interface
func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Platform, e.Class, e.Err)
}

// Unwrap returns the underlying cause
func (e *PlatformError) Unwrap() error {
	return e.Err
}

// NewPlatformError creates a classified platform error
func NewPlatformError(class ErrorClass, platform PlatformCode, err error) *PlatformError {
	return &PlatformError{Class: class, Platform: platform, Err: err}
}

// Classify returns the error class of err. Unclassified errors are treated
// as transient so an adapter bug degrades to bounded retries rather than
// silently dropping an entity.
func Classify(err error) ErrorClass {
	if err == nil {
		return ""
	}
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Class
	}
	switch {
	case errors.Is(err, ErrEntityNotFound):
		return ClassNotFound
	case errors.Is(err, ErrPlatformRateLimited):
		return ClassRateLimited
	case errors.Is(err, ErrPlatformAuthFailed), errors.Is(err, ErrPlatformInvalidSignature):
		return ClassFatal
	case errors.Is(err, ErrEntityInvalid):
		return ClassValidation
	default:
		return ClassTransient
	}
}

// RetryAfterHint returns the platform-supplied retry-after hint of err,
// or zero when none is present.
func RetryAfterHint(err error) time.Duration {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.RetryAfter
	}
	return 0
}
