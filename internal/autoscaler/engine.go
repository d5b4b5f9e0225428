package autoscaler

import (
	"fmt"
	"sync"
	"time"

	"warden/pkg/logging"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// Direction says which way a decision moves the replica count.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionNone Direction = "none"
)

// Sample is a point-in-time utilization observation for the task tier.
// Ratios are fractions of requested resources actually in use (0.95 means
// 95 percent).
type Sample struct {
	CPURatio        float64
	MemoryRatio     float64
	CurrentReplicas int32
}

// Decision is the engine's verdict for one evaluation. It is superseded
// entirely by the next decision.
type Decision struct {
	TargetReplicas int32
	Direction      Direction
	Reason         string

	// Cooldown is the length of the quiet window. The window starts
	// when the decision is enacted, not when it was evaluated.
	Cooldown time.Duration
}

// Enacted reports whether the decision changes the replica count.
func (d Decision) Enacted() bool {
	return d.Direction != DirectionNone
}

// Engine computes target replica counts for task tiers. Cooldown state is
// keyed per deployment and set only when a decision is enacted, so an
// evaluated-but-unapplied decision never blocks the next one.
type Engine struct {
	mu        sync.Mutex
	cooldowns map[string]time.Time

	now func() time.Time
}

// NewEngine returns an engine with no cooldowns in effect.
func NewEngine() *Engine {
	return &Engine{
		cooldowns: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Evaluate computes the decision for one deployment. key must uniquely
// identify the deployment across namespaces (namespace/name).
//
// The utilization score is the worse of the CPU and memory pressure
// relative to their targets. A score at or above the scale-up threshold
// grows the tier by one step; at or below the scale-down threshold it
// shrinks by one step. The target always stays inside
// [MinTaskReplicas, MaxTaskReplicas].
func (e *Engine) Evaluate(key string, policy *wardenv1alpha1.AutoscalingPolicy, s Sample) Decision {
	noop := Decision{TargetReplicas: s.CurrentReplicas, Direction: DirectionNone}

	if policy == nil || !policy.Enabled {
		noop.Reason = "autoscaling disabled"
		return noop
	}

	now := e.now()
	e.mu.Lock()
	until, cooling := e.cooldowns[key]
	e.mu.Unlock()
	if cooling && now.Before(until) {
		noop.Reason = fmt.Sprintf("cooldown until %s", until.Format(time.RFC3339))
		return noop
	}

	score := utilizationScore(s, policy)
	step := policy.ScaleStep
	if step < 1 {
		step = 1
	}

	switch {
	case score >= policy.ScaleUpThreshold:
		target := min32(s.CurrentReplicas+step, policy.MaxTaskReplicas)
		if target == s.CurrentReplicas {
			noop.Reason = fmt.Sprintf("score %.2f above threshold but already at max %d", score, policy.MaxTaskReplicas)
			return noop
		}
		return Decision{
			TargetReplicas: target,
			Direction:      DirectionUp,
			Reason:         fmt.Sprintf("utilization score %.2f >= %.2f", score, policy.ScaleUpThreshold),
			Cooldown:       time.Duration(policy.CooldownPeriodSeconds) * time.Second,
		}

	case score <= policy.ScaleDownThreshold:
		target := max32(s.CurrentReplicas-step, policy.MinTaskReplicas)
		if target == s.CurrentReplicas {
			noop.Reason = fmt.Sprintf("score %.2f below threshold but already at min %d", score, policy.MinTaskReplicas)
			return noop
		}
		return Decision{
			TargetReplicas: target,
			Direction:      DirectionDown,
			Reason:         fmt.Sprintf("utilization score %.2f <= %.2f", score, policy.ScaleDownThreshold),
			Cooldown:       time.Duration(policy.CooldownPeriodSeconds) * time.Second,
		}

	default:
		noop.Reason = fmt.Sprintf("utilization score %.2f within thresholds", score)
		return noop
	}
}

// Enact records that the decision was applied, starting the cooldown
// window. Call only after the replica change was written successfully;
// the window is stamped here so apply latency never shortens it.
func (e *Engine) Enact(key string, d Decision) {
	if !d.Enacted() {
		return
	}
	until := e.now().Add(d.Cooldown)
	e.mu.Lock()
	e.cooldowns[key] = until
	e.mu.Unlock()
	logging.Info("Autoscaler", "Enacted scale %s to %d replicas for %s, cooldown until %s",
		d.Direction, d.TargetReplicas, key, until.Format(time.RFC3339))
}

// Forget drops cooldown state for a deleted deployment.
func (e *Engine) Forget(key string) {
	e.mu.Lock()
	delete(e.cooldowns, key)
	e.mu.Unlock()
}

// utilizationScore is max(cpuRatio/cpuTarget, memRatio/memTarget) with
// targets converted from percent.
func utilizationScore(s Sample, policy *wardenv1alpha1.AutoscalingPolicy) float64 {
	score := 0.0
	if policy.TargetCPUUtilization > 0 {
		score = s.CPURatio / (float64(policy.TargetCPUUtilization) / 100)
	}
	if policy.TargetMemoryUtilization > 0 {
		if m := s.MemoryRatio / (float64(policy.TargetMemoryUtilization) / 100); m > score {
			score = m
		}
	}
	return score
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
