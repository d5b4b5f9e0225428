package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"warden/internal/config"
	"warden/internal/metrics"
	"warden/internal/operrors"
	"warden/pkg/logging"
)

// ManagerConfig tunes the reconcile manager.
type ManagerConfig struct {
	// Workers is the number of concurrent reconcile workers.
	Workers int

	// MaxRetries is the attempt limit for retryable errors.
	MaxRetries int

	// RetryBackoffInitial is the delay before the first retry. Each
	// subsequent retry doubles the delay.
	RetryBackoffInitial time.Duration

	// RetryBackoffMax caps the retry delay.
	RetryBackoffMax time.Duration

	// ReconcileTimeout bounds a single reconcile pass.
	ReconcileTimeout time.Duration

	// ResyncPeriod re-queues every known resource at this interval so
	// drift is repaired even without change events. Zero disables it.
	ResyncPeriod time.Duration
}

// ManagerConfigFromReconciler maps the file configuration onto the
// manager's knobs.
func ManagerConfigFromReconciler(cfg config.ReconcilerConfig) ManagerConfig {
	return ManagerConfig{
		Workers:             cfg.Workers,
		MaxRetries:          cfg.MaxRetries,
		RetryBackoffInitial: cfg.RetryInitial.Std(),
		RetryBackoffMax:     cfg.RetryMax.Std(),
		ReconcileTimeout:    cfg.Timeout.Std(),
		ResyncPeriod:        cfg.ResyncPeriod.Std(),
	}
}

// Manager routes change events to reconcilers through a deduplicating
// queue and a fixed worker pool, retrying failures with exponential
// backoff.
type Manager struct {
	cfg ManagerConfig

	mu          sync.RWMutex
	reconcilers map[ResourceType]Reconciler
	detectors   []ChangeDetector

	queue   *workQueue
	delayed *delayedQueue
	changes chan ChangeEvent

	status *statusTracker
	mtr    *metrics.Metrics

	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager creates a manager. mtr may be nil when metrics are
// disabled.
func NewManager(cfg ManagerConfig, mtr *metrics.Metrics) *Manager {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Manager{
		cfg:         cfg,
		reconcilers: make(map[ResourceType]Reconciler),
		changes:     make(chan ChangeEvent, 100),
		status:      newStatusTracker(),
		mtr:         mtr,
	}
}

// Register adds a reconciler for its resource type. Registering twice
// for the same type is an error.
func (m *Manager) Register(r Reconciler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rt := r.GetResourceType()
	if _, exists := m.reconcilers[rt]; exists {
		return fmt.Errorf("reconciler for %s already registered", rt)
	}
	m.reconcilers[rt] = r
	return nil
}

// AddDetector registers a change detector. Detectors are started with
// the manager.
func (m *Manager) AddDetector(d ChangeDetector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detectors = append(m.detectors, d)
}

// Start launches the workers and detectors. It returns once everything
// is running; Stop shuts it down.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("manager already started")
	}
	m.started = true

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.queue = newWorkQueue()
	m.delayed = newDelayedQueue(runCtx, m.queue)
	detectors := m.detectors
	workers := m.cfg.Workers
	m.mu.Unlock()

	for _, d := range detectors {
		if err := d.Start(runCtx, m.changes); err != nil {
			cancel()
			return fmt.Errorf("starting %s detector: %w", d.GetSource(), err)
		}
	}

	m.wg.Add(1)
	go m.dispatchLoop(runCtx)

	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(runCtx, i)
	}

	if m.cfg.ResyncPeriod > 0 {
		m.wg.Add(1)
		go m.resyncLoop(runCtx)
	}

	logging.Info("Reconciler", "Manager started with %d workers", workers)
	return nil
}

// Stop shuts down the detectors, drains the queue, and waits for the
// workers to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	cancel := m.cancel
	detectors := m.detectors
	m.mu.Unlock()

	for _, d := range detectors {
		if err := d.Stop(); err != nil {
			logging.Warn("Reconciler", "Stopping %s detector: %v", d.GetSource(), err)
		}
	}

	cancel()
	m.delayed.ShutDown()
	m.queue.ShutDown()
	m.wg.Wait()

	logging.Info("Reconciler", "Manager stopped")
}

// TriggerReconcile queues a manual reconcile for one resource.
func (m *Manager) TriggerReconcile(resourceType ResourceType, namespace, name string) {
	m.enqueue(ChangeEvent{
		Type:      resourceType,
		Name:      name,
		Namespace: namespace,
		Operation: OperationUpdate,
		Timestamp: time.Now(),
		Source:    SourceManual,
	})
}

// GetStatus returns the tracked status for one resource.
func (m *Manager) GetStatus(resourceType ResourceType, namespace, name string) (ReconcileStatus, bool) {
	return m.status.get(requestKey{Type: resourceType, Namespace: namespace, Name: name})
}

// ListStatuses returns all tracked statuses.
func (m *Manager) ListStatuses() []ReconcileStatus {
	return m.status.list()
}

// Forget drops the tracked status for a resource after it is deleted.
func (m *Manager) Forget(resourceType ResourceType, namespace, name string) {
	m.status.forget(requestKey{Type: resourceType, Namespace: namespace, Name: name})
}

func (m *Manager) dispatchLoop(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-m.changes:
			m.enqueue(ev)
		}
	}
}

func (m *Manager) enqueue(ev ChangeEvent) {
	m.mu.RLock()
	_, known := m.reconcilers[ev.Type]
	m.mu.RUnlock()
	if !known {
		logging.Warn("Reconciler", "No reconciler registered for %s, dropping event for %s", ev.Type, ev.Name)
		return
	}

	if m.mtr != nil {
		m.mtr.ReconcileTotal.WithLabelValues(ev.Name, ev.Namespace, string(ev.Operation)).Inc()
	}

	req := ReconcileRequest{
		Type:      ev.Type,
		Name:      ev.Name,
		Namespace: ev.Namespace,
		Attempt:   1,
	}

	key := keyFor(req)
	m.status.upsert(key, func(s *ReconcileStatus) {
		if s.State != StateReconciling {
			s.State = StatePending
		}
	})
	m.queue.Add(req)
}

func (m *Manager) resyncLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.ResyncPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, s := range m.status.list() {
				if s.State == StateFailed {
					continue
				}
				m.TriggerReconcile(s.ResourceType, s.Namespace, s.Name)
			}
		}
	}
}

func (m *Manager) worker(ctx context.Context, id int) {
	defer m.wg.Done()

	for {
		req, ok := m.queue.Get()
		if !ok {
			return
		}
		m.process(ctx, req)
		m.queue.Done(req)
	}
}

func (m *Manager) process(ctx context.Context, req ReconcileRequest) {
	m.mu.RLock()
	r, ok := m.reconcilers[req.Type]
	m.mu.RUnlock()
	if !ok {
		return
	}

	key := keyFor(req)
	m.status.upsert(key, func(s *ReconcileStatus) {
		s.State = StateReconciling
	})

	reconcileCtx := ctx
	var cancel context.CancelFunc
	if m.cfg.ReconcileTimeout > 0 {
		reconcileCtx, cancel = context.WithTimeout(ctx, m.cfg.ReconcileTimeout)
	}

	start := time.Now()
	result := r.Reconcile(reconcileCtx, req)
	elapsed := time.Since(start)
	if cancel != nil {
		cancel()
	}

	if m.mtr != nil {
		m.mtr.ReconcileDuration.WithLabelValues(req.Name, req.Namespace).Observe(elapsed.Seconds())
	}

	switch {
	case result.Error != nil:
		m.handleError(req, result.Error)
	case result.RequeueAfter > 0:
		m.markSynced(key)
		m.delayed.AddAfter(ReconcileRequest{
			Type:      req.Type,
			Name:      req.Name,
			Namespace: req.Namespace,
			Attempt:   1,
		}, result.RequeueAfter)
	case result.Requeue:
		m.queue.Add(ReconcileRequest{
			Type:      req.Type,
			Name:      req.Name,
			Namespace: req.Namespace,
			Attempt:   1,
		})
	default:
		m.markSynced(key)
	}
}

func (m *Manager) markSynced(key requestKey) {
	now := time.Now()
	m.status.upsert(key, func(s *ReconcileStatus) {
		s.State = StateSynced
		s.LastReconcileTime = &now
		s.LastError = ""
		s.RetryCount = 0
	})
}

func (m *Manager) handleError(req ReconcileRequest, err error) {
	key := keyFor(req)
	sanitized := SanitizeErrorMessage(err.Error())

	if m.mtr != nil {
		m.mtr.ReconcileErrors.WithLabelValues(req.Name, req.Namespace, operrors.Kind(err)).Inc()
	}

	if !operrors.IsRetryable(err) {
		logging.Error("Reconciler", err, "Reconciling %s failed permanently", key)
		m.status.upsert(key, func(s *ReconcileStatus) {
			s.State = StateFailed
			s.LastError = sanitized
			s.RetryCount = req.Attempt
		})
		return
	}

	if req.Attempt >= m.cfg.MaxRetries {
		logging.Error("Reconciler", err, "Reconciling %s failed after %d attempts", key, req.Attempt)
		m.status.upsert(key, func(s *ReconcileStatus) {
			s.State = StateFailed
			s.LastError = sanitized
			s.RetryCount = req.Attempt
		})
		return
	}

	delay := m.backoff(req.Attempt)
	logging.Warn("Reconciler", "Reconciling %s failed (attempt %d/%d), retrying in %s: %s",
		key, req.Attempt, m.cfg.MaxRetries, delay, sanitized)

	m.status.upsert(key, func(s *ReconcileStatus) {
		s.State = StateError
		s.LastError = sanitized
		s.RetryCount = req.Attempt
	})

	m.delayed.AddAfter(ReconcileRequest{
		Type:      req.Type,
		Name:      req.Name,
		Namespace: req.Namespace,
		Attempt:   req.Attempt + 1,
		LastError: err,
	}, delay)
}

// backoffJitter spreads retries of resources that failed together so
// they do not requeue in lockstep.
const backoffJitter = 0.25

// backoff returns initial * 2^(attempt-1), capped at the configured
// maximum, with up to 25 percent jitter on top.
func (m *Manager) backoff(attempt int) time.Duration {
	delay := m.cfg.RetryBackoffInitial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= m.cfg.RetryBackoffMax {
			break
		}
	}
	if delay > m.cfg.RetryBackoffMax {
		delay = m.cfg.RetryBackoffMax
	}
	return wait.Jitter(delay, backoffJitter)
}

// statusTracker keeps the per-resource reconcile status.
type statusTracker struct {
	mu       sync.RWMutex
	statuses map[requestKey]*ReconcileStatus
}

func newStatusTracker() *statusTracker {
	return &statusTracker{statuses: make(map[requestKey]*ReconcileStatus)}
}

func (t *statusTracker) upsert(key requestKey, fn func(*ReconcileStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.statuses[key]
	if !ok {
		s = &ReconcileStatus{
			ResourceType: key.Type,
			Name:         key.Name,
			Namespace:    key.Namespace,
			State:        StatePending,
		}
		t.statuses[key] = s
	}
	fn(s)
}

func (t *statusTracker) get(key requestKey) (ReconcileStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.statuses[key]
	if !ok {
		return ReconcileStatus{}, false
	}
	return *s, true
}

func (t *statusTracker) list() []ReconcileStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ReconcileStatus, 0, len(t.statuses))
	for _, s := range t.statuses {
		out = append(out, *s)
	}
	return out
}

func (t *statusTracker) forget(key requestKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.statuses, key)
}
