package reconciler

import (
	"context"

	"warden/internal/autoscaler"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// ForkUtilizationSource derives task tier utilization from fork budget
// saturation: admitted forks over configured capacity. Fork demand is
// what drives CPU and memory pressure in the task tier, so saturation
// stands in for both ratios without a metrics pipeline.
type ForkUtilizationSource struct {
	reconciler *PlatformReconciler
}

// NewForkUtilizationSource binds a source to the reconciler's fork
// budgets.
func NewForkUtilizationSource(r *PlatformReconciler) *ForkUtilizationSource {
	return &ForkUtilizationSource{reconciler: r}
}

func (s *ForkUtilizationSource) Sample(ctx context.Context, p *wardenv1alpha1.Platform, currentReplicas int32) (autoscaler.Sample, error) {
	sample := autoscaler.Sample{CurrentReplicas: currentReplicas}

	b := s.reconciler.budget(p)
	if b == nil {
		return sample, nil
	}
	capacity := b.Capacity(currentReplicas)
	if capacity <= 0 {
		return sample, nil
	}

	ratio := float64(b.Used()) / float64(capacity)
	sample.CPURatio = ratio
	sample.MemoryRatio = ratio
	return sample, nil
}
