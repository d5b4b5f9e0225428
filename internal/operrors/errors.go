package operrors

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports one or more constraint violations in a desired
// spec. It is terminal: the spec must be corrected before reconciliation is
// attempted again, and it is never retried automatically.
//
// All violations found in a single validation pass are collected so the
// operator surfaces the full list at once instead of one field per attempt.
type ValidationError struct {
	// Resource identifies the object that failed validation ("Platform",
	// "PlatformBackup", ...).
	Resource string

	// Name is the object name.
	Name string

	// Violations lists every violated constraint, each as a standalone
	// human-readable sentence.
	Violations []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Resource, e.Name, strings.Join(e.Violations, "; "))
}

// NewValidationError creates a ValidationError for the given resource.
func NewValidationError(resource, name string, violations []string) *ValidationError {
	return &ValidationError{Resource: resource, Name: name, Violations: violations}
}

// IsValidation checks if an error is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransientError wraps an infrastructure failure that is expected to clear
// on its own (API timeout, network blip). Callers retry it with bounded
// exponential backoff before escalating.
type TransientError struct {
	// Op names the operation that failed ("get deployment", "upload artifact").
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransient wraps err as a TransientError.
func NewTransient(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}

// IsTransient checks if an error is or wraps a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ConflictError indicates a concurrent modification of the same cluster
// object. It is retried immediately with a fresh read, up to a bounded
// attempt count.
type ConflictError struct {
	Resource string
	Name     string
	Err      error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict updating %s %q: %v", e.Resource, e.Name, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// NewConflict wraps err as a ConflictError.
func NewConflict(resource, name string, err error) *ConflictError {
	return &ConflictError{Resource: resource, Name: name, Err: err}
}

// IsConflict checks if an error is or wraps a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// BudgetExceededError means admitting the request would violate a fork or
// replica cap. Admission is simply refused; the request is never retried
// as-is and the caller must resubmit with adjusted demand.
type BudgetExceededError struct {
	// Budget names the violated cap ("max_total_forks", "max_task_replicas").
	Budget string

	// Requested is the demand that was refused.
	Requested int32

	// Available is the headroom that remained at decision time.
	Available int32
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("budget %s exceeded: requested %d, available %d", e.Budget, e.Requested, e.Available)
}

// NewBudgetExceeded creates a BudgetExceededError.
func NewBudgetExceeded(budget string, requested, available int32) *BudgetExceededError {
	return &BudgetExceededError{Budget: budget, Requested: requested, Available: available}
}

// IsBudgetExceeded checks if an error is or wraps a BudgetExceededError.
func IsBudgetExceeded(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}

// VerificationError reports a size or checksum mismatch between a local
// artifact and its stored counterpart. It is terminal for the attempt; the
// stored artifact is preserved for manual inspection and never auto-deleted.
type VerificationError struct {
	Artifact string
	Field    string
	Want     string
	Got      string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed for %s: %s mismatch (want %s, got %s)", e.Artifact, e.Field, e.Want, e.Got)
}

// NewVerification creates a VerificationError.
func NewVerification(artifact, field, want, got string) *VerificationError {
	return &VerificationError{Artifact: artifact, Field: field, Want: want, Got: got}
}

// IsVerification checks if an error is or wraps a VerificationError.
func IsVerification(err error) bool {
	var ve *VerificationError
	return errors.As(err, &ve)
}

// IsRetryable reports whether an error may be retried at all. Validation,
// budget and verification errors are never retried; conflicts and transient
// failures are, each under their own policy.
func IsRetryable(err error) bool {
	return IsTransient(err) || IsConflict(err)
}

// Kind returns a short, stable label for the error class, used as a metric
// dimension and in status reason strings.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return "validation"
	case IsConflict(err):
		return "conflict"
	case IsBudgetExceeded(err):
		return "budget_exceeded"
	case IsVerification(err):
		return "verification"
	case IsTransient(err):
		return "transient"
	default:
		return "internal"
	}
}
