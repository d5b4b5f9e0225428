package autoscaler

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/internal/operrors"
	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

func testPolicy() *wardenv1alpha1.AutoscalingPolicy {
	return &wardenv1alpha1.AutoscalingPolicy{
		Enabled:                 true,
		MinTaskReplicas:         1,
		MaxTaskReplicas:         10,
		TargetCPUUtilization:    70,
		TargetMemoryUtilization: 80,
		MaxForksPerTask:         50,
		ScaleUpThreshold:        0.8,
		ScaleDownThreshold:      0.3,
		ScaleStep:               1,
		CooldownPeriodSeconds:   300,
	}
}

func engineAt(t time.Time) *Engine {
	e := NewEngine()
	e.now = func() time.Time { return t }
	return e
}

func TestEvaluate_ScaleUpOnHighCPU(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	e := engineAt(now)

	// CPU at 95% against a 70% target scores 1.36, above the 0.8 threshold.
	d := e.Evaluate("default/demo", testPolicy(), Sample{
		CPURatio:        0.95,
		MemoryRatio:     0.40,
		CurrentReplicas: 2,
	})

	assert.Equal(t, DirectionUp, d.Direction)
	assert.Equal(t, int32(3), d.TargetReplicas)
	assert.Equal(t, 300*time.Second, d.Cooldown)
}

func TestEvaluate_Directions(t *testing.T) {
	tests := []struct {
		name       string
		sample     Sample
		wantDir    Direction
		wantTarget int32
	}{
		{
			name:       "within thresholds is a no-op",
			sample:     Sample{CPURatio: 0.40, MemoryRatio: 0.40, CurrentReplicas: 4},
			wantDir:    DirectionNone,
			wantTarget: 4,
		},
		{
			name:       "memory pressure alone scales up",
			sample:     Sample{CPURatio: 0.10, MemoryRatio: 0.78, CurrentReplicas: 4},
			wantDir:    DirectionUp,
			wantTarget: 5,
		},
		{
			name:       "idle tier scales down",
			sample:     Sample{CPURatio: 0.10, MemoryRatio: 0.10, CurrentReplicas: 4},
			wantDir:    DirectionDown,
			wantTarget: 3,
		},
		{
			name:       "scale up clamps at max",
			sample:     Sample{CPURatio: 0.99, MemoryRatio: 0.99, CurrentReplicas: 10},
			wantDir:    DirectionNone,
			wantTarget: 10,
		},
		{
			name:       "scale down clamps at min",
			sample:     Sample{CPURatio: 0.01, MemoryRatio: 0.01, CurrentReplicas: 1},
			wantDir:    DirectionNone,
			wantTarget: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := engineAt(time.Now())
			d := e.Evaluate("default/demo", testPolicy(), tt.sample)
			assert.Equal(t, tt.wantDir, d.Direction)
			assert.Equal(t, tt.wantTarget, d.TargetReplicas)
			assert.NotEmpty(t, d.Reason)
		})
	}
}

func TestEvaluate_DisabledPolicy(t *testing.T) {
	e := engineAt(time.Now())

	d := e.Evaluate("default/demo", nil, Sample{CPURatio: 0.99, CurrentReplicas: 2})
	assert.Equal(t, DirectionNone, d.Direction)

	p := testPolicy()
	p.Enabled = false
	d = e.Evaluate("default/demo", p, Sample{CPURatio: 0.99, CurrentReplicas: 2})
	assert.Equal(t, DirectionNone, d.Direction)
	assert.Equal(t, int32(2), d.TargetReplicas)
}

func TestEvaluate_CooldownBlocksBothDirections(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	e := engineAt(now)
	hot := Sample{CPURatio: 0.95, MemoryRatio: 0.40, CurrentReplicas: 2}

	first := e.Evaluate("default/demo", testPolicy(), hot)
	require.Equal(t, DirectionUp, first.Direction)
	e.Enact("default/demo", first)

	// A second hot sample inside the window yields no decision.
	e.now = func() time.Time { return now.Add(2 * time.Minute) }
	second := e.Evaluate("default/demo", testPolicy(), Sample{CPURatio: 0.95, MemoryRatio: 0.40, CurrentReplicas: 3})
	assert.Equal(t, DirectionNone, second.Direction)
	assert.Contains(t, second.Reason, "cooldown")

	// Scale-down is blocked by the same window.
	idle := e.Evaluate("default/demo", testPolicy(), Sample{CPURatio: 0.05, MemoryRatio: 0.05, CurrentReplicas: 3})
	assert.Equal(t, DirectionNone, idle.Direction)

	// After expiry decisions flow again.
	e.now = func() time.Time { return now.Add(6 * time.Minute) }
	third := e.Evaluate("default/demo", testPolicy(), Sample{CPURatio: 0.95, MemoryRatio: 0.40, CurrentReplicas: 3})
	assert.Equal(t, DirectionUp, third.Direction)
	assert.Equal(t, int32(4), third.TargetReplicas)
}

func TestEvaluate_CooldownStartsAtEnactment(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	e := engineAt(now)
	hot := Sample{CPURatio: 0.95, MemoryRatio: 0.40, CurrentReplicas: 2}

	// Evaluated but never applied, so no cooldown starts.
	first := e.Evaluate("default/demo", testPolicy(), hot)
	require.Equal(t, DirectionUp, first.Direction)

	second := e.Evaluate("default/demo", testPolicy(), hot)
	assert.Equal(t, DirectionUp, second.Direction)
}

func TestEnact_CooldownWindowStartsAtEnactTime(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	e := engineAt(now)
	hot := Sample{CPURatio: 0.95, MemoryRatio: 0.40, CurrentReplicas: 2}

	d := e.Evaluate("default/demo", testPolicy(), hot)
	require.Equal(t, DirectionUp, d.Direction)

	// The apply took two minutes; the window runs from the enactment.
	enacted := now.Add(2 * time.Minute)
	e.now = func() time.Time { return enacted }
	e.Enact("default/demo", d)

	e.now = func() time.Time { return enacted.Add(299 * time.Second) }
	blocked := e.Evaluate("default/demo", testPolicy(), hot)
	assert.Equal(t, DirectionNone, blocked.Direction)
	assert.Contains(t, blocked.Reason, "cooldown")

	e.now = func() time.Time { return enacted.Add(301 * time.Second) }
	open := e.Evaluate("default/demo", testPolicy(), hot)
	assert.Equal(t, DirectionUp, open.Direction)
}

func TestEvaluate_CooldownIsPerDeployment(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	e := engineAt(now)
	hot := Sample{CPURatio: 0.95, MemoryRatio: 0.40, CurrentReplicas: 2}

	d := e.Evaluate("default/demo", testPolicy(), hot)
	e.Enact("default/demo", d)

	other := e.Evaluate("default/other", testPolicy(), hot)
	assert.Equal(t, DirectionUp, other.Direction)
}

func TestForkBudget_PerTaskClamp(t *testing.T) {
	b := NewForkBudget(50, nil)

	admitted, err := b.Admit(100)
	require.NoError(t, err)
	assert.Equal(t, int32(50), admitted)
	assert.Equal(t, int32(50), b.Used())

	admitted, err = b.Admit(20)
	require.NoError(t, err)
	assert.Equal(t, int32(20), admitted)
	assert.Equal(t, int32(70), b.Used())
}

func TestForkBudget_GlobalCapRejects(t *testing.T) {
	global := int32(120)
	b := NewForkBudget(50, &global)

	for i := 0; i < 2; i++ {
		_, err := b.Admit(50)
		require.NoError(t, err)
	}
	require.Equal(t, int32(100), b.Used())

	// 50 more would overshoot 120; nothing is reserved.
	_, err := b.Admit(50)
	require.Error(t, err)
	assert.True(t, operrors.IsBudgetExceeded(err))
	assert.Equal(t, int32(100), b.Used())

	// Headroom still admits a smaller task.
	admitted, err := b.Admit(20)
	require.NoError(t, err)
	assert.Equal(t, int32(20), admitted)
	assert.Equal(t, int32(120), b.Used())
}

func TestForkBudget_Release(t *testing.T) {
	global := int32(100)
	b := NewForkBudget(50, &global)

	admitted, err := b.Admit(50)
	require.NoError(t, err)
	b.Release(admitted)
	assert.Equal(t, int32(0), b.Used())

	// Over-release never goes negative.
	b.Release(10)
	assert.Equal(t, int32(0), b.Used())
}

func TestForkBudget_ConcurrentAdmitNeverOvershoots(t *testing.T) {
	global := int32(500)
	b := NewForkBudget(10, &global)

	var wg sync.WaitGroup
	var mu sync.Mutex
	totalAdmitted := int32(0)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admitted, err := b.Admit(10)
			if err != nil {
				return
			}
			mu.Lock()
			totalAdmitted += admitted
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, b.Used(), global)
	assert.Equal(t, b.Used(), totalAdmitted)
	assert.Equal(t, global, b.Used(), "exactly 50 of 100 tasks fit")
}

func TestForkBudget_Capacity(t *testing.T) {
	global := int32(120)
	b := NewForkBudget(50, &global)
	assert.Equal(t, int32(100), b.Capacity(2))
	assert.Equal(t, int32(120), b.Capacity(3), "capacity bounded by global cap")

	unbounded := NewForkBudget(50, nil)
	assert.Equal(t, int32(150), unbounded.Capacity(3))
}

func TestEvaluate_ReasonMentionsScore(t *testing.T) {
	e := engineAt(time.Now())
	d := e.Evaluate("default/demo", testPolicy(), Sample{CPURatio: 0.95, CurrentReplicas: 2})
	assert.Contains(t, d.Reason, fmt.Sprintf("%.2f", 0.95/0.70))
}
