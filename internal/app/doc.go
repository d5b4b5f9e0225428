// Package app provides application bootstrap and lifecycle management for
// the warden operator.
//
// # Overview
//
// The app package owns the two-phase startup the serve command goes
// through:
//
//  1. Bootstrap: load configuration, initialize logging, and wire the
//     service graph (cluster client, metrics, reconcile manager, the three
//     reconcilers, the change detector, and the backup scheduler)
//  2. Execution: start everything and block until a shutdown signal
//
// # Service Wiring
//
// InitializeServices connects the components in dependency order. The
// platform reconciler gets the shared backup scheduler so policy changes
// keep cron entries in sync, a fork utilization source so the autoscaler
// has a signal to act on, and a forget hook so the manager drops tracking
// state for deleted platforms. The backup and restore reconcilers share
// the same loader as the platform reconciler, which is what makes the
// filesystem watch mode work: only the source of desired state changes,
// never the reconcile semantics.
//
// # Watch Modes
//
// In kubernetes mode the detector watches warden CRDs through informers
// and reconcilers write resource statuses back. In filesystem mode desired
// state comes from YAML manifests under the configured directory, fsnotify
// drives change detection, and status writes are skipped because there is
// no status subresource to write to.
package app
