package reconciler

import (
	"context"
	"time"
)

// ResourceType identifies which custom resource a request concerns.
type ResourceType string

const (
	// ResourceTypePlatform is the managed application deployment.
	ResourceTypePlatform ResourceType = "Platform"

	// ResourceTypePlatformBackup is a backup job resource.
	ResourceTypePlatformBackup ResourceType = "PlatformBackup"

	// ResourceTypePlatformRestore is a restore job resource.
	ResourceTypePlatformRestore ResourceType = "PlatformRestore"
)

// ChangeEvent is a detected change in a watched resource.
type ChangeEvent struct {
	// Type is the resource type that changed.
	Type ResourceType

	// Name is the resource name.
	Name string

	// Namespace is the Kubernetes namespace (empty in filesystem mode).
	Namespace string

	// Operation describes what kind of change occurred.
	Operation ChangeOperation

	// Timestamp is when the change was detected.
	Timestamp time.Time

	// Source indicates where the change came from.
	Source ChangeSource

	// FilePath is the changed manifest file (filesystem mode only).
	FilePath string
}

// ChangeOperation is the kind of change detected.
type ChangeOperation string

const (
	OperationCreate ChangeOperation = "Create"
	OperationUpdate ChangeOperation = "Update"
	OperationDelete ChangeOperation = "Delete"
)

// ChangeSource indicates where a change originated.
type ChangeSource string

const (
	// SourceKubernetes means the change came from an informer.
	SourceKubernetes ChangeSource = "Kubernetes"

	// SourceFilesystem means the change came from a watched manifest dir.
	SourceFilesystem ChangeSource = "Filesystem"

	// SourceManual means the change was triggered by an operator action,
	// the backup scheduler, or a periodic resync.
	SourceManual ChangeSource = "Manual"
)

// ReconcileRequest asks for one resource to be reconciled.
type ReconcileRequest struct {
	Type      ResourceType
	Name      string
	Namespace string

	// Attempt is the retry attempt number, starting at 1.
	Attempt int

	// LastError is the error from the previous attempt, if any.
	LastError error
}

// ReconcileResult is the outcome of one reconciliation attempt.
type ReconcileResult struct {
	// Requeue asks for a retry with the default backoff.
	Requeue bool

	// RequeueAfter schedules a follow-up pass after a fixed delay, used
	// for degraded platforms and periodic resync.
	RequeueAfter time.Duration

	// Error is any error that occurred. Non-retryable errors (validation)
	// end in the Failed state without further attempts.
	Error error
}

// Reconciler converges one resource type. Implementations must be
// idempotent: reconciling an already-converged resource issues no writes
// and returns the same result.
type Reconciler interface {
	Reconcile(ctx context.Context, req ReconcileRequest) ReconcileResult

	// GetResourceType returns the type this reconciler handles.
	GetResourceType() ResourceType
}

// ChangeDetector watches for resource changes and emits ChangeEvents.
// One implementation watches the API server, one watches a manifest
// directory for local development.
type ChangeDetector interface {
	// Start begins watching and sends events to changes until the
	// context is canceled.
	Start(ctx context.Context, changes chan<- ChangeEvent) error

	// Stop gracefully stops the detector.
	Stop() error

	// GetSource returns the source this detector monitors.
	GetSource() ChangeSource

	// AddResourceType adds a resource type to watch.
	AddResourceType(resourceType ResourceType) error
}

// ReconcileState is the manager's view of one resource's progress.
type ReconcileState string

const (
	// StatePending means the resource is queued.
	StatePending ReconcileState = "Pending"

	// StateReconciling means a pass is in progress.
	StateReconciling ReconcileState = "Reconciling"

	// StateSynced means the last pass succeeded.
	StateSynced ReconcileState = "Synced"

	// StateError means the last pass failed and a retry is scheduled.
	StateError ReconcileState = "Error"

	// StateFailed means retries are exhausted or the failure is not
	// retryable. A spec change re-triggers reconciliation.
	StateFailed ReconcileState = "Failed"
)

// ReconcileStatus is the tracked status for one resource.
type ReconcileStatus struct {
	ResourceType ResourceType
	Name         string
	Namespace    string

	// LastReconcileTime is the last successful pass.
	LastReconcileTime *time.Time

	// LastError is the most recent sanitized error, if any.
	LastError string

	// RetryCount is the consecutive failed attempts.
	RetryCount int

	State ReconcileState
}
