package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
)

type stubProbe struct {
	name   string
	status Status
	delay  time.Duration
}

func (p *stubProbe) Name() string { return p.name }

func (p *stubProbe) Check(ctx context.Context) Status {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return Status{Healthy: false}
		}
	}
	return p.status
}

func TestChecker_AllHealthy(t *testing.T) {
	c := NewChecker(time.Second,
		&stubProbe{name: "database", status: Status{Healthy: true, Detail: "1/1 replicas ready"}},
		&stubProbe{name: "web", status: Status{Healthy: true, Detail: "2/2 replicas ready"}},
	)

	v := c.Check(context.Background())
	assert.True(t, v.Healthy)
	assert.Len(t, v.Subsystems, 2)
	assert.Equal(t, "all subsystems healthy", v.Summary())
}

func TestChecker_OneUnhealthySubsystemFailsTheVerdict(t *testing.T) {
	c := NewChecker(time.Second,
		&stubProbe{name: "database", status: Status{Healthy: true}},
		&stubProbe{name: "task", status: Status{Healthy: false, Detail: "1/3 replicas ready"}},
		&stubProbe{name: "web", status: Status{Healthy: true}},
	)

	v := c.Check(context.Background())
	assert.False(t, v.Healthy)
	assert.True(t, v.Subsystems["database"].Healthy)
	assert.False(t, v.Subsystems["task"].Healthy)
	assert.Equal(t, "task: 1/3 replicas ready", v.Summary())
}

func TestChecker_SlowProbeTimesOut(t *testing.T) {
	c := NewChecker(50*time.Millisecond,
		&stubProbe{name: "web", status: Status{Healthy: true}},
		&stubProbe{name: "cache", status: Status{Healthy: true}, delay: 5 * time.Second},
	)

	start := time.Now()
	v := c.Check(context.Background())
	assert.Less(t, time.Since(start), time.Second)

	assert.False(t, v.Healthy)
	assert.False(t, v.Subsystems["cache"].Healthy)
	assert.Equal(t, "probe timed out", v.Subsystems["cache"].Detail)
	assert.True(t, v.Subsystems["web"].Healthy)
}

func TestDeploymentProbe(t *testing.T) {
	scheme := runtime.NewScheme()
	require.NoError(t, appsv1.AddToScheme(scheme))

	replicas := int32(3)
	dep := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "demo-web", Namespace: "default"},
		Spec:       appsv1.DeploymentSpec{Replicas: &replicas},
		Status:     appsv1.DeploymentStatus{ReadyReplicas: 3},
	}
	cl := fake.NewClientBuilder().WithScheme(scheme).WithObjects(dep).Build()

	probe := &DeploymentProbe{Client: cl, Subsystem: "web", Namespace: "default", Target: "demo-web"}
	status := probe.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, "3/3 replicas ready", status.Detail)

	dep.Status.ReadyReplicas = 1
	require.NoError(t, cl.Status().Update(context.Background(), dep))
	status = probe.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, "1/3 replicas ready", status.Detail)

	missing := &DeploymentProbe{Client: cl, Subsystem: "web", Namespace: "default", Target: "nope"}
	status = missing.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.Contains(t, status.Detail, "not found")
}

func TestStatefulSetProbe(t *testing.T) {
	scheme := runtime.NewScheme()
	require.NoError(t, appsv1.AddToScheme(scheme))

	sts := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Name: "demo-postgres", Namespace: "default"},
		Status:     appsv1.StatefulSetStatus{ReadyReplicas: 1},
	}
	cl := fake.NewClientBuilder().WithScheme(scheme).WithObjects(sts).Build()

	probe := &StatefulSetProbe{Client: cl, Subsystem: "database", Namespace: "default", Target: "demo-postgres"}
	status := probe.Check(context.Background())
	assert.True(t, status.Healthy, "nil replicas defaults to 1 desired")
}

func TestVerdict_SummaryIsSorted(t *testing.T) {
	v := Verdict{
		Healthy: false,
		Subsystems: map[string]Status{
			"web":      {Healthy: false, Detail: "0/2 replicas ready"},
			"cache":    {Healthy: false, Detail: "pod pending"},
			"database": {Healthy: true},
		},
	}
	assert.Equal(t, "cache: pod pending; web: 0/2 replicas ready", v.Summary())
}
