package autoscaler

import (
	"sync/atomic"

	"warden/internal/operrors"
)

// ForkBudget enforces the per-task and global fork caps for one task tier.
// The per-task cap clamps demand; the global cap rejects admissions that
// would exceed it. Admission is atomic so concurrent task scheduling never
// overshoots the global cap.
type ForkBudget struct {
	perTask int32
	global  int32 // 0 means unlimited
	used    atomic.Int32
}

// NewForkBudget builds a budget from the policy caps. A nil global cap
// means unlimited.
func NewForkBudget(perTask int32, global *int32) *ForkBudget {
	b := &ForkBudget{perTask: perTask}
	if global != nil {
		b.global = *global
	}
	return b
}

// Admit reserves forks for one task. Demand above the per-task cap is
// clamped, never rejected. The clamped amount is then admitted against the
// global cap; when that would overshoot, nothing is reserved and a
// BudgetExceededError reports the remaining headroom.
//
// Callers must Release exactly what Admit returned once the task finishes.
func (b *ForkBudget) Admit(requested int32) (int32, error) {
	effective := requested
	if b.perTask > 0 && effective > b.perTask {
		effective = b.perTask
	}
	if effective < 0 {
		effective = 0
	}

	if b.global <= 0 {
		b.used.Add(effective)
		return effective, nil
	}

	for {
		used := b.used.Load()
		if used+effective > b.global {
			return 0, operrors.NewBudgetExceeded("max_total_forks", effective, b.global-used)
		}
		if b.used.CompareAndSwap(used, used+effective) {
			return effective, nil
		}
	}
}

// Release returns reserved forks to the budget.
func (b *ForkBudget) Release(n int32) {
	if n <= 0 {
		return
	}
	for {
		used := b.used.Load()
		next := used - n
		if next < 0 {
			next = 0
		}
		if b.used.CompareAndSwap(used, next) {
			return
		}
	}
}

// PerTask returns the per-task fork cap the budget was built with.
func (b *ForkBudget) PerTask() int32 {
	return b.perTask
}

// Used returns the currently reserved fork count.
func (b *ForkBudget) Used() int32 {
	return b.used.Load()
}

// Capacity is the total fork capacity for a given replica count, bounded
// by the global cap when one is set. Exposed as a gauge.
func (b *ForkBudget) Capacity(replicas int32) int32 {
	capacity := replicas * b.perTask
	if b.global > 0 && capacity > b.global {
		capacity = b.global
	}
	return capacity
}
