// Package reconciler provides a unified reconciliation system for warden resources.
//
// # Overview
//
// The reconciler package implements automatic change detection and reconciliation
// for both Kubernetes CRDs and filesystem-based YAML manifests. It ensures that
// the actual state of a platform's workloads matches the desired state declared
// in Platform, PlatformBackup, and PlatformRestore resources.
//
// # Architecture
//
// The reconciliation system consists of several key components:
//
//   - Manager: Central coordinator that owns the queues, worker pool, and
//     per-resource status tracking
//   - Reconciler: Interface for resource-specific reconciliation logic
//   - ChangeDetector: Interface for detecting changes in resource sources
//   - workQueue / delayedQueue: Deduplicating work queue plus timer-based
//     requeueing for retries and periodic health re-checks
//
// The system supports two modes of operation:
//
//   - Kubernetes Mode: Uses shared informers for CRD changes
//   - Filesystem Mode: Uses fsnotify for watching YAML manifest changes
//
// # Usage
//
// Example usage:
//
//	mgr := reconciler.NewManager(cfg, mtr)
//	mgr.Register(platformReconciler)
//	mgr.AddDetector(detector)
//	if err := mgr.Start(ctx); err != nil {
//	    return fmt.Errorf("failed to start reconciliation: %w", err)
//	}
//	defer mgr.Stop()
//
// # Resource Types
//
// The following resource types are supported for reconciliation:
//
//   - Platform: The four-tier application deployment and its lifecycle
//   - PlatformBackup: One-shot and scheduled database backup runs
//   - PlatformRestore: Restoration of a verified backup artifact
//
// # Error Handling
//
// Reconcile outcomes are classified through the operrors package. Transient
// and conflict errors are retried with exponential backoff up to the
// configured retry limit; validation, budget, and verification errors fail
// the resource immediately. Error messages written to resource statuses are
// passed through SanitizeErrorMessage so credentials never leak into status
// fields or events.
//
// # Performance Considerations
//
// The system implements several optimizations:
//
//   - Debouncing: Multiple rapid filesystem changes are batched together
//   - Deduplication: Pending work for the same resource collapses to one item
//   - Backoff: Failed reconciliations use exponential backoff
package reconciler
