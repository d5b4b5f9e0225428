package reconciler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"warden/internal/apply"
	"warden/internal/autoscaler"
	"warden/internal/backup"
	"warden/internal/config"
	"warden/internal/health"
	"warden/internal/metrics"
	"warden/internal/operrors"
	"warden/internal/render"
	"warden/pkg/logging"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// platformFinalizer guards owned-resource cleanup and scheduler removal
// on deletion.
const platformFinalizer = "warden.dev/platform-finalizer"

// probeTimeout bounds each health probe.
const probeTimeout = 10 * time.Second

// UtilizationSource provides task tier utilization samples for the
// autoscaling decision engine.
type UtilizationSource interface {
	Sample(ctx context.Context, p *wardenv1alpha1.Platform, currentReplicas int32) (autoscaler.Sample, error)
}

// PlatformReconciler converges a Platform: validate, render, apply,
// probe health, and evaluate the task tier autoscaler. It is idempotent;
// a converged platform produces no writes.
type PlatformReconciler struct {
	Client  client.Client
	Loader  Loader
	Applier *apply.Applier
	Engine  *autoscaler.Engine
	Metrics *metrics.Metrics

	// Scheduler keeps cron schedules in sync with backup policies. May
	// be nil when scheduled backups are disabled.
	Scheduler *backup.Scheduler

	// Utilization feeds the decision engine. Nil skips autoscaling
	// evaluation even when the policy enables it.
	Utilization UtilizationSource

	// WriteStatus controls whether status updates are sent to the API
	// server. Disabled in filesystem mode, where manifests have no
	// status subresource.
	WriteStatus bool

	// DegradedRetry is the requeue interval for degraded platforms.
	DegradedRetry time.Duration

	// OnForget is called after a platform is deleted so the manager can
	// drop its tracked status. May be nil.
	OnForget func(namespace, name string)

	mu      sync.Mutex
	budgets map[string]*autoscaler.ForkBudget

	// taskTargets remembers the replica count the engine last chose so
	// re-renders do not undo an enacted scale decision.
	taskTargets map[string]int32
}

// NewPlatformReconciler wires a platform reconciler from its collaborators.
func NewPlatformReconciler(c client.Client, loader Loader, applier *apply.Applier, engine *autoscaler.Engine, mtr *metrics.Metrics, cfg config.ReconcilerConfig) *PlatformReconciler {
	return &PlatformReconciler{
		Client:        c,
		Loader:        loader,
		Applier:       applier,
		Engine:        engine,
		Metrics:       mtr,
		WriteStatus:   cfg.Mode == config.WatchModeKubernetes,
		DegradedRetry: cfg.DegradedRetry.Std(),
		budgets:       make(map[string]*autoscaler.ForkBudget),
		taskTargets:   make(map[string]int32),
	}
}

// GetResourceType returns ResourceTypePlatform.
func (r *PlatformReconciler) GetResourceType() ResourceType {
	return ResourceTypePlatform
}

// Reconcile runs one convergence pass for a platform.
func (r *PlatformReconciler) Reconcile(ctx context.Context, req ReconcileRequest) ReconcileResult {
	p, err := r.Loader.LoadPlatform(ctx, req.Namespace, req.Name)
	if apierrors.IsNotFound(err) {
		r.cleanup(req.Namespace, req.Name)
		return ReconcileResult{}
	}
	if err != nil {
		return ReconcileResult{Error: operrors.NewTransient(fmt.Sprintf("load platform %s", req.Name), err)}
	}

	if !p.DeletionTimestamp.IsZero() {
		return r.reconcileDeletion(ctx, p)
	}

	if violations := wardenv1alpha1.ValidatePlatform(p); len(violations) > 0 {
		verr := operrors.NewValidationError("Platform", p.Name, violations)
		r.setPhase(ctx, p, wardenv1alpha1.PlatformPhaseFailed, "spec validation failed: "+strings.Join(violations, "; "))
		return ReconcileResult{Error: verr}
	}

	if r.WriteStatus && !controllerutil.ContainsFinalizer(p, platformFinalizer) {
		controllerutil.AddFinalizer(p, platformFinalizer)
		if err := r.Client.Update(ctx, p); err != nil {
			return ReconcileResult{Error: operrors.NewTransient("adding finalizer", err)}
		}
	}

	if p.Status.Phase == "" {
		r.setPhase(ctx, p, wardenv1alpha1.PlatformPhasePending, "platform admitted")
	}
	r.setPhase(ctx, p, wardenv1alpha1.PlatformPhaseReconciling, "applying desired state")

	taskReplicas := r.desiredTaskReplicas(p)

	objs := render.Render(p, taskReplicas)
	result, err := r.Applier.Apply(ctx, p, objs)
	if err != nil {
		r.setPhase(ctx, p, wardenv1alpha1.PlatformPhaseReconciling, SanitizeErrorMessage(err.Error()))
		return ReconcileResult{Error: err}
	}
	if result.Mutations() > 0 {
		logging.Info("PlatformReconciler", "Applied %s/%s: %d created, %d updated, %d unchanged",
			p.Namespace, p.Name, result.Created, result.Updated, result.Unchanged)
	}

	r.syncSchedule(p)
	r.observeCapacity(p, taskReplicas)
	r.observePodStatus(ctx, p)
	r.evaluateScaling(ctx, p, taskReplicas)

	verdict := r.checkHealth(ctx, p)
	r.updateObservedState(ctx, p, verdict.Healthy, verdict.Summary())

	if !verdict.Healthy {
		r.setPhase(ctx, p, wardenv1alpha1.PlatformPhaseDegraded, verdict.Summary())
		r.setReadyGauge(p, false)
		return ReconcileResult{RequeueAfter: r.DegradedRetry}
	}

	r.setPhase(ctx, p, wardenv1alpha1.PlatformPhaseReady, "all subsystems healthy")
	r.setReadyGauge(p, true)
	return ReconcileResult{}
}

// desiredTaskReplicas returns the engine's last enacted target when one
// exists, otherwise the spec value.
func (r *PlatformReconciler) desiredTaskReplicas(p *wardenv1alpha1.Platform) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if target, ok := r.taskTargets[platformKey(p)]; ok {
		return target
	}
	return p.Spec.TaskReplicas
}

func platformKey(p *wardenv1alpha1.Platform) string {
	return p.Namespace + "/" + p.Name
}

// budget returns the fork budget for a platform, creating it from the
// current policy. A policy change replaces the budget.
func (r *PlatformReconciler) budget(p *wardenv1alpha1.Platform) *autoscaler.ForkBudget {
	a := p.Spec.Autoscaling
	if a == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := platformKey(p)
	b, ok := r.budgets[key]
	if !ok || b.PerTask() != a.MaxForksPerTask {
		b = autoscaler.NewForkBudget(a.MaxForksPerTask, a.MaxTotalForks)
		r.budgets[key] = b
	}
	return b
}

// podPhases tracked per tier. Every tracked phase is written each pass,
// zeroes included, so counts from drained pods do not linger.
var podPhases = []corev1.PodPhase{corev1.PodPending, corev1.PodRunning, corev1.PodSucceeded, corev1.PodFailed}

// observePodStatus refreshes the per-tier pod phase gauges from the
// pods carrying the platform's component labels.
func (r *PlatformReconciler) observePodStatus(ctx context.Context, p *wardenv1alpha1.Platform) {
	if r.Metrics == nil {
		return
	}

	for _, component := range []string{"web", "task", "cache", "database"} {
		var pods corev1.PodList
		err := r.Client.List(ctx, &pods,
			client.InNamespace(p.Namespace),
			client.MatchingLabels(render.Labels(p, component)))
		if err != nil {
			logging.Warn("PlatformReconciler", "Listing %s pods for %s: %v", component, platformKey(p), err)
			continue
		}

		counts := make(map[corev1.PodPhase]int)
		for _, pod := range pods.Items {
			counts[pod.Status.Phase]++
		}
		for _, phase := range podPhases {
			r.Metrics.PodStatus.WithLabelValues(p.Name, p.Namespace, component, string(phase)).Set(float64(counts[phase]))
		}
	}
}

// AdmitForks reserves fork capacity for a task dispatched on the
// platform. Demand above the per-task cap is clamped; admissions that
// would overshoot the global cap are rejected with a budget error.
// Callers must ReleaseForks the returned amount when the task finishes.
// Admitted forks feed the capacity gauges and the autoscaler's
// utilization samples.
func (r *PlatformReconciler) AdmitForks(p *wardenv1alpha1.Platform, requested int32) (int32, error) {
	b := r.budget(p)
	if b == nil {
		return requested, nil
	}
	return b.Admit(requested)
}

// ReleaseForks returns reserved fork capacity to the platform's budget.
func (r *PlatformReconciler) ReleaseForks(p *wardenv1alpha1.Platform, n int32) {
	if b := r.budget(p); b != nil {
		b.Release(n)
	}
}

func (r *PlatformReconciler) observeCapacity(p *wardenv1alpha1.Platform, taskReplicas int32) {
	b := r.budget(p)
	if b == nil || r.Metrics == nil {
		return
	}
	r.Metrics.TaskCapacityTotal.WithLabelValues(p.Name, p.Namespace).Set(float64(b.Capacity(taskReplicas)))
	r.Metrics.TaskCapacityUsed.WithLabelValues(p.Name, p.Namespace).Set(float64(b.Used()))
}

// evaluateScaling runs one autoscaler evaluation and, when the decision
// changes the replica count, records the new target for the next render
// pass. Scale-up is additionally capped by the global fork budget.
func (r *PlatformReconciler) evaluateScaling(ctx context.Context, p *wardenv1alpha1.Platform, current int32) {
	policy := p.Spec.Autoscaling
	if policy == nil || !policy.Enabled || r.Utilization == nil {
		return
	}

	sample, err := r.Utilization.Sample(ctx, p, current)
	if err != nil {
		logging.Warn("PlatformReconciler", "Utilization sample for %s failed: %v", platformKey(p), err)
		return
	}

	key := platformKey(p)
	decision := r.Engine.Evaluate(key, policy, sample)
	if !decision.Enacted() {
		return
	}

	target := decision.TargetReplicas
	if decision.Direction == autoscaler.DirectionUp && policy.MaxTotalForks != nil {
		// Every task pod may run up to MaxForksPerTask forks, so the
		// global cap bounds the replica count too.
		maxByForks := *policy.MaxTotalForks / policy.MaxForksPerTask
		if maxByForks < policy.MinTaskReplicas {
			maxByForks = policy.MinTaskReplicas
		}
		if target > maxByForks {
			logging.Info("PlatformReconciler", "Scale-up for %s capped at %d replicas by fork budget", key, maxByForks)
			target = maxByForks
		}
		if target == current {
			return
		}
		decision.TargetReplicas = target
	}

	r.Engine.Enact(key, decision)
	if r.Metrics != nil {
		r.Metrics.ScaleDecisions.WithLabelValues(p.Name, p.Namespace, string(decision.Direction)).Inc()
	}

	r.mu.Lock()
	r.taskTargets[key] = target
	r.mu.Unlock()

	// Re-render only the task tier so the new count takes effect this
	// pass instead of waiting for the next event.
	task := render.TaskDeployment(p, target)
	if _, err := r.Applier.Apply(ctx, p, []client.Object{task}); err != nil {
		logging.Warn("PlatformReconciler", "Applying scaled task tier for %s: %v", key, err)
	}
}

// checkHealth probes every managed tier. The database probe is skipped
// for external databases.
func (r *PlatformReconciler) checkHealth(ctx context.Context, p *wardenv1alpha1.Platform) health.Verdict {
	probes := []health.Probe{
		&health.DeploymentProbe{Client: r.Client, Subsystem: "web", Namespace: p.Namespace, Target: p.Name + "-web"},
		&health.DeploymentProbe{Client: r.Client, Subsystem: "task", Namespace: p.Namespace, Target: p.Name + "-task"},
		&health.DeploymentProbe{Client: r.Client, Subsystem: "redis", Namespace: p.Namespace, Target: p.Name + "-redis"},
	}
	if p.Spec.PostgresConfigurationSecret == "" {
		probes = append(probes, &health.StatefulSetProbe{
			Client: r.Client, Subsystem: "postgres", Namespace: p.Namespace, Target: p.Name + "-postgres",
		})
	}

	checker := health.NewChecker(probeTimeout, probes...)
	return checker.Check(ctx)
}

// syncSchedule keeps the backup cron entry in line with the policy.
func (r *PlatformReconciler) syncSchedule(p *wardenv1alpha1.Platform) {
	if r.Scheduler == nil {
		return
	}

	schedule := ""
	if p.Spec.Backup != nil {
		schedule = p.Spec.Backup.Schedule
	}
	if err := r.Scheduler.Set(p.Namespace, p.Name, schedule); err != nil {
		logging.Warn("PlatformReconciler", "Syncing backup schedule for %s: %v", platformKey(p), err)
	}
}

// updateObservedState refreshes the replica counts and version in status.
func (r *PlatformReconciler) updateObservedState(ctx context.Context, p *wardenv1alpha1.Platform, healthy bool, detail string) {
	if !r.WriteStatus {
		return
	}

	p.Status.ObservedGeneration = p.Generation
	p.Status.Version = p.Spec.ImageVersion
	if p.Spec.AdminPasswordSecret != "" {
		p.Status.AdminPasswordSecret = p.Spec.AdminPasswordSecret
	} else {
		p.Status.AdminPasswordSecret = render.AdminPasswordSecretName(p)
	}

	var web appsv1.Deployment
	if err := r.Client.Get(ctx, types.NamespacedName{Namespace: p.Namespace, Name: p.Name + "-web"}, &web); err == nil {
		p.Status.ReadyWebReplicas = web.Status.ReadyReplicas
	}
	var task appsv1.Deployment
	if err := r.Client.Get(ctx, types.NamespacedName{Namespace: p.Namespace, Name: p.Name + "-task"}, &task); err == nil {
		p.Status.ReadyTaskReplicas = task.Status.ReadyReplicas
	}

	status := metav1.ConditionFalse
	if healthy {
		status = metav1.ConditionTrue
	}
	setCondition(&p.Status.Conditions, metav1.Condition{
		Type:               "Healthy",
		Status:             status,
		Reason:             "ProbeResult",
		Message:            detail,
		ObservedGeneration: p.Generation,
	})
}

// setPhase records a phase transition and pushes the status update. A
// repeat of the current phase with the same message is a no-op.
func (r *PlatformReconciler) setPhase(ctx context.Context, p *wardenv1alpha1.Platform, phase wardenv1alpha1.PlatformPhase, message string) {
	if p.Status.Phase == phase && p.Status.Message == message {
		return
	}

	if p.Status.Phase != phase {
		now := metav1.Now()
		p.Status.LastTransitionTime = &now
		logging.Info("PlatformReconciler", "Platform %s: %s -> %s (%s)",
			platformKey(p), orUnset(string(p.Status.Phase)), phase, message)
	}
	p.Status.Phase = phase
	p.Status.Message = message

	if !r.WriteStatus {
		return
	}
	if err := r.Client.Status().Update(ctx, p); err != nil {
		logging.Warn("PlatformReconciler", "Updating status for %s: %v", platformKey(p), err)
	}
}

func orUnset(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

func (r *PlatformReconciler) setReadyGauge(p *wardenv1alpha1.Platform, ready bool) {
	if r.Metrics == nil {
		return
	}
	v := 0.0
	if ready {
		v = 1.0
	}
	r.Metrics.PlatformReady.WithLabelValues(p.Name, p.Namespace).Set(v)
}

// reconcileDeletion releases per-platform state and removes the
// finalizer. Owned objects are garbage collected through owner
// references.
func (r *PlatformReconciler) reconcileDeletion(ctx context.Context, p *wardenv1alpha1.Platform) ReconcileResult {
	r.setPhase(ctx, p, wardenv1alpha1.PlatformPhaseDeleting, "releasing owned resources")

	r.cleanup(p.Namespace, p.Name)

	if controllerutil.ContainsFinalizer(p, platformFinalizer) {
		controllerutil.RemoveFinalizer(p, platformFinalizer)
		if err := r.Client.Update(ctx, p); err != nil {
			return ReconcileResult{Error: operrors.NewTransient("removing finalizer", err)}
		}
	}
	return ReconcileResult{}
}

// cleanup drops all per-platform operator state.
func (r *PlatformReconciler) cleanup(namespace, name string) {
	key := namespace + "/" + name

	r.mu.Lock()
	delete(r.budgets, key)
	delete(r.taskTargets, key)
	r.mu.Unlock()

	if r.Engine != nil {
		r.Engine.Forget(key)
	}
	if r.Scheduler != nil {
		r.Scheduler.Remove(namespace, name)
	}
	if r.Metrics != nil {
		r.Metrics.ForgetPlatform(name, namespace)
	}
	if r.OnForget != nil {
		r.OnForget(namespace, name)
	}

	logging.Info("PlatformReconciler", "Released state for %s", key)
}

// setCondition upserts a condition by type, bumping the transition time
// only on status changes.
func setCondition(conditions *[]metav1.Condition, c metav1.Condition) {
	c.LastTransitionTime = metav1.Now()
	for i := range *conditions {
		if (*conditions)[i].Type == c.Type {
			if (*conditions)[i].Status == c.Status {
				c.LastTransitionTime = (*conditions)[i].LastTransitionTime
			}
			(*conditions)[i] = c
			return
		}
	}
	*conditions = append(*conditions, c)
}
