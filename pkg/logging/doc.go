// Package logging provides a thin, subsystem-tagged wrapper around log/slog.
//
// Every log call names the subsystem that produced it (e.g. "ReconcileManager",
// "BackupOrchestrator"), which keeps operator logs greppable without requiring
// each component to carry its own logger handle.
//
// The package is initialized once from the CLI entry point via Init; before
// that, output goes to stderr at Info level.
package logging
