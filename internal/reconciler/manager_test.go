package reconciler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"warden/internal/operrors"
)

// stubReconciler counts calls and returns scripted results.
type stubReconciler struct {
	resourceType ResourceType

	mu      sync.Mutex
	calls   []ReconcileRequest
	results []ReconcileResult
	done    chan struct{}
}

func newStubReconciler(rt ResourceType, results ...ReconcileResult) *stubReconciler {
	return &stubReconciler{
		resourceType: rt,
		results:      results,
		done:         make(chan struct{}, 16),
	}
}

func (s *stubReconciler) Reconcile(ctx context.Context, req ReconcileRequest) ReconcileResult {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	idx := len(s.calls) - 1
	s.mu.Unlock()

	defer func() { s.done <- struct{}{} }()
	if idx < len(s.results) {
		return s.results[idx]
	}
	return ReconcileResult{}
}

func (s *stubReconciler) GetResourceType() ResourceType { return s.resourceType }

func (s *stubReconciler) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubReconciler) waitCalls(t *testing.T, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		if s.callCount() >= n {
			return
		}
		select {
		case <-s.done:
		case <-deadline:
			t.Fatalf("timed out waiting for %d calls, saw %d", n, s.callCount())
		}
	}
}

func testManagerConfig() ManagerConfig {
	return ManagerConfig{
		Workers:             2,
		MaxRetries:          3,
		RetryBackoffInitial: 10 * time.Millisecond,
		RetryBackoffMax:     50 * time.Millisecond,
		ReconcileTimeout:    time.Second,
	}
}

func TestManager_TriggerReconcile(t *testing.T) {
	m := NewManager(testManagerConfig(), nil)
	stub := newStubReconciler(ResourceTypePlatform)
	if err := m.Register(stub); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	m.TriggerReconcile(ResourceTypePlatform, "default", "demo")
	stub.waitCalls(t, 1, time.Second)

	status, ok := m.GetStatus(ResourceTypePlatform, "default", "demo")
	if !ok {
		t.Fatal("expected tracked status")
	}
	if status.State != StateSynced {
		t.Errorf("expected Synced, got %s", status.State)
	}
	if status.LastReconcileTime == nil {
		t.Error("expected LastReconcileTime to be set")
	}
}

func TestManager_RegisterTwiceFails(t *testing.T) {
	m := NewManager(testManagerConfig(), nil)
	if err := m.Register(newStubReconciler(ResourceTypePlatform)); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := m.Register(newStubReconciler(ResourceTypePlatform)); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestManager_RetriesTransientErrors(t *testing.T) {
	m := NewManager(testManagerConfig(), nil)
	stub := newStubReconciler(ResourceTypePlatform,
		ReconcileResult{Error: operrors.NewTransient("boom", nil)},
		ReconcileResult{Error: operrors.NewTransient("boom", nil)},
		ReconcileResult{},
	)
	if err := m.Register(stub); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	m.TriggerReconcile(ResourceTypePlatform, "default", "demo")
	stub.waitCalls(t, 3, 2*time.Second)

	// Attempts must have been numbered 1, 2, 3.
	stub.mu.Lock()
	attempts := []int{stub.calls[0].Attempt, stub.calls[1].Attempt, stub.calls[2].Attempt}
	stub.mu.Unlock()
	for i, want := range []int{1, 2, 3} {
		if attempts[i] != want {
			t.Errorf("call %d: expected attempt %d, got %d", i, want, attempts[i])
		}
	}

	deadline := time.After(time.Second)
	for {
		status, _ := m.GetStatus(ResourceTypePlatform, "default", "demo")
		if status.State == StateSynced {
			if status.RetryCount != 0 {
				t.Errorf("expected retry count reset, got %d", status.RetryCount)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("never reached Synced, state %s", status.State)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestManager_ValidationErrorsAreNotRetried(t *testing.T) {
	m := NewManager(testManagerConfig(), nil)
	stub := newStubReconciler(ResourceTypePlatform,
		ReconcileResult{Error: operrors.NewValidationError("Platform", "demo", []string{"bad spec"})},
	)
	if err := m.Register(stub); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	m.TriggerReconcile(ResourceTypePlatform, "default", "demo")
	stub.waitCalls(t, 1, time.Second)

	// Give any wrongly scheduled retry a chance to fire.
	time.Sleep(100 * time.Millisecond)
	if n := stub.callCount(); n != 1 {
		t.Errorf("validation error must not retry, saw %d calls", n)
	}

	status, _ := m.GetStatus(ResourceTypePlatform, "default", "demo")
	if status.State != StateFailed {
		t.Errorf("expected Failed, got %s", status.State)
	}
	if status.LastError == "" {
		t.Error("expected LastError to be recorded")
	}
}

func TestManager_ExhaustedRetriesEndInFailed(t *testing.T) {
	m := NewManager(testManagerConfig(), nil)
	stub := newStubReconciler(ResourceTypePlatform,
		ReconcileResult{Error: operrors.NewTransient("boom", nil)},
		ReconcileResult{Error: operrors.NewTransient("boom", nil)},
		ReconcileResult{Error: operrors.NewTransient("boom", nil)},
		ReconcileResult{Error: operrors.NewTransient("boom", nil)},
	)
	if err := m.Register(stub); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	m.TriggerReconcile(ResourceTypePlatform, "default", "demo")
	stub.waitCalls(t, 3, 2*time.Second)
	time.Sleep(150 * time.Millisecond)

	if n := stub.callCount(); n != 3 {
		t.Errorf("expected exactly MaxRetries (3) attempts, saw %d", n)
	}
	status, _ := m.GetStatus(ResourceTypePlatform, "default", "demo")
	if status.State != StateFailed {
		t.Errorf("expected Failed after exhausted retries, got %s", status.State)
	}
}

func TestManager_RequeueAfter(t *testing.T) {
	m := NewManager(testManagerConfig(), nil)
	stub := newStubReconciler(ResourceTypePlatform,
		ReconcileResult{RequeueAfter: 30 * time.Millisecond},
		ReconcileResult{},
	)
	if err := m.Register(stub); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	m.TriggerReconcile(ResourceTypePlatform, "default", "demo")
	stub.waitCalls(t, 2, 2*time.Second)
}

func TestManager_UnknownTypeDropped(t *testing.T) {
	m := NewManager(testManagerConfig(), nil)
	stub := newStubReconciler(ResourceTypePlatform)
	if err := m.Register(stub); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	m.TriggerReconcile(ResourceTypePlatformBackup, "default", "unhandled")
	time.Sleep(50 * time.Millisecond)

	if n := stub.callCount(); n != 0 {
		t.Errorf("expected no calls for unregistered type, saw %d", n)
	}
	if _, ok := m.GetStatus(ResourceTypePlatformBackup, "default", "unhandled"); ok {
		t.Error("expected no tracked status for dropped event")
	}
}

func TestManager_Backoff(t *testing.T) {
	m := NewManager(ManagerConfig{
		Workers:             1,
		MaxRetries:          10,
		RetryBackoffInitial: 2 * time.Second,
		RetryBackoffMax:     5 * time.Minute,
	}, nil)

	// Jitter adds up to 25 percent on top of the exponential base.
	cases := []struct {
		attempt int
		base    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{8, 256 * time.Second},
		{9, 5 * time.Minute},
		{20, 5 * time.Minute},
	}
	for _, tc := range cases {
		got := m.backoff(tc.attempt)
		if got < tc.base || got > tc.base+tc.base/4 {
			t.Errorf("backoff(%d) = %v, want within [%v, %v]", tc.attempt, got, tc.base, tc.base+tc.base/4)
		}
	}
}

func TestManager_BackoffJitterVaries(t *testing.T) {
	m := NewManager(ManagerConfig{
		Workers:             1,
		MaxRetries:          10,
		RetryBackoffInitial: time.Minute,
		RetryBackoffMax:     time.Hour,
	}, nil)

	seen := map[time.Duration]bool{}
	for i := 0; i < 50; i++ {
		seen[m.backoff(4)] = true
	}
	if len(seen) < 2 {
		t.Error("expected jittered backoff to vary across calls")
	}
}

func TestManager_Forget(t *testing.T) {
	m := NewManager(testManagerConfig(), nil)
	stub := newStubReconciler(ResourceTypePlatform)
	if err := m.Register(stub); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	m.TriggerReconcile(ResourceTypePlatform, "default", "demo")
	stub.waitCalls(t, 1, time.Second)

	m.Forget(ResourceTypePlatform, "default", "demo")
	if _, ok := m.GetStatus(ResourceTypePlatform, "default", "demo"); ok {
		t.Error("expected status to be forgotten")
	}
	if len(m.ListStatuses()) != 0 {
		t.Error("expected empty status list")
	}
}

func TestManager_ConcurrentWorkers(t *testing.T) {
	m := NewManager(ManagerConfig{
		Workers:             4,
		MaxRetries:          1,
		RetryBackoffInitial: time.Millisecond,
		RetryBackoffMax:     time.Millisecond,
	}, nil)

	var active, peak atomic.Int32
	stub := &funcReconciler{
		resourceType: ResourceTypePlatform,
		fn: func(ctx context.Context, req ReconcileRequest) ReconcileResult {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			active.Add(-1)
			return ReconcileResult{}
		},
	}
	if err := m.Register(stub); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 8; i++ {
		m.TriggerReconcile(ResourceTypePlatform, "default", "demo-"+string(rune('a'+i)))
	}
	time.Sleep(300 * time.Millisecond)
	m.Stop()

	if peak.Load() < 2 {
		t.Errorf("expected concurrent processing, peak was %d", peak.Load())
	}
}

type funcReconciler struct {
	resourceType ResourceType
	fn           func(context.Context, ReconcileRequest) ReconcileResult
}

func (f *funcReconciler) Reconcile(ctx context.Context, req ReconcileRequest) ReconcileResult {
	return f.fn(ctx, req)
}

func (f *funcReconciler) GetResourceType() ResourceType { return f.resourceType }
