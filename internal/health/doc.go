// Package health aggregates per-subsystem probes into a single verdict
// consumed by the reconciler for status reporting. Probes run in parallel
// under a shared per-probe timeout; a platform is healthy only when every
// required subsystem is.
package health
