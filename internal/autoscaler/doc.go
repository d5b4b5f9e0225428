// Package autoscaler decides the target replica count for a platform's
// task tier and enforces its fork budget.
//
// The Engine evaluates utilization samples against the platform's
// autoscaling policy and produces Decisions. A decision only takes effect
// when the reconciler applies the replica change and calls Enact, which
// starts the per-deployment cooldown. During cooldown every evaluation is
// a no-op, in both directions, so two high samples inside one cooldown
// window produce exactly one scale event.
//
// The ForkBudget is independent of replica scaling: it clamps each task's
// fork demand to the per-task cap and atomically admits the clamped demand
// against the optional global cap. The global cap is hard; admission that
// would overshoot it fails with a BudgetExceededError instead of
// over-reserving.
package autoscaler
