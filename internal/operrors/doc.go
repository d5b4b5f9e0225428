// Package operrors defines the operator's error taxonomy.
//
// Every failure that crosses a component boundary is classified into one of
// five kinds, and the kind fully determines the propagation policy:
//
//   - ValidationError: bad desired spec. Terminal, surfaced to status
//     immediately, never retried. Requires a spec fix to re-trigger.
//   - TransientError: infrastructure blip. Absorbed locally with bounded
//     exponential backoff, then escalated.
//   - ConflictError: concurrent modification of a cluster object. Retried
//     immediately with a fresh read, bounded attempts.
//   - BudgetExceededError: a fork or replica cap would be violated.
//     Admission is refused and reported; never retried as-is.
//   - VerificationError: artifact checksum/size mismatch. Terminal for the
//     attempt; the artifact is preserved, never auto-remediated.
//
// Anything unclassified is treated as an internal error and handled like a
// transient failure by the reconcile manager's generic retry path.
package operrors
