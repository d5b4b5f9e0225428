package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every instrument the operator publishes. All series carry
// the warden_ prefix and identify the platform by name and namespace.
type Metrics struct {
	registry *prometheus.Registry

	// PlatformReady is 1 when the platform reports phase Ready, else 0.
	PlatformReady *prometheus.GaugeVec

	// ReconcileTotal counts reconcile passes by triggering event type.
	ReconcileTotal *prometheus.CounterVec

	// ReconcileErrors counts failed reconcile passes by error kind.
	ReconcileErrors *prometheus.CounterVec

	// ReconcileDuration observes wall-clock reconcile latency.
	ReconcileDuration *prometheus.HistogramVec

	// PodStatus gauges pod counts per tier and pod phase.
	PodStatus *prometheus.GaugeVec

	// TaskCapacityTotal is the configured fork capacity of the task tier.
	TaskCapacityTotal *prometheus.GaugeVec

	// TaskCapacityUsed is the admitted fork count of the task tier.
	TaskCapacityUsed *prometheus.GaugeVec

	// ScaleDecisions counts autoscaler decisions by direction.
	ScaleDecisions *prometheus.CounterVec

	// BackupTotal counts finished backup runs by outcome.
	BackupTotal *prometheus.CounterVec

	// BackupSizeBytes records the artifact size of the last backup.
	BackupSizeBytes *prometheus.GaugeVec

	// BackupDuration observes end-to-end backup pipeline latency.
	BackupDuration *prometheus.HistogramVec
}

// New builds the full instrument set on a fresh registry. Callers own the
// returned Metrics for the life of the process.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		PlatformReady: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "warden_platform_ready",
			Help: "Whether the platform is in phase Ready (1) or not (0).",
		}, []string{"name", "namespace"}),

		ReconcileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_reconcile_total",
			Help: "Reconcile passes started, by triggering event type.",
		}, []string{"name", "namespace", "event_type"}),

		ReconcileErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_reconcile_errors_total",
			Help: "Reconcile passes that ended in error, by error kind.",
		}, []string{"name", "namespace", "error_kind"}),

		ReconcileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "warden_reconcile_duration_seconds",
			Help:    "Wall-clock duration of a reconcile pass.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"name", "namespace"}),

		PodStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "warden_pod_status",
			Help: "Observed pod count per tier and pod phase.",
		}, []string{"name", "namespace", "pod_type", "phase"}),

		TaskCapacityTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "warden_task_capacity_total",
			Help: "Configured fork capacity across the task tier.",
		}, []string{"name", "namespace"}),

		TaskCapacityUsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "warden_task_capacity_used",
			Help: "Forks currently admitted against the task tier capacity.",
		}, []string{"name", "namespace"}),

		ScaleDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_scale_decisions_total",
			Help: "Autoscaler decisions enacted, by direction.",
		}, []string{"name", "namespace", "direction"}),

		BackupTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_backup_total",
			Help: "Finished backup runs, by outcome.",
		}, []string{"name", "namespace", "status"}),

		BackupSizeBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "warden_backup_size_bytes",
			Help: "Artifact size of the most recent backup.",
		}, []string{"name", "namespace"}),

		BackupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "warden_backup_duration_seconds",
			Help:    "End-to-end duration of the backup pipeline.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"name", "namespace"}),
	}

	m.registry.MustRegister(
		m.PlatformReady,
		m.ReconcileTotal,
		m.ReconcileErrors,
		m.ReconcileDuration,
		m.PodStatus,
		m.TaskCapacityTotal,
		m.TaskCapacityUsed,
		m.ScaleDecisions,
		m.BackupTotal,
		m.BackupSizeBytes,
		m.BackupDuration,
	)

	return m
}

// Registry exposes the underlying registry for the exposition handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ForgetPlatform drops every series labeled with the given platform. Called
// when a Platform resource is deleted so stale gauges do not linger.
func (m *Metrics) ForgetPlatform(name, namespace string) {
	labels := prometheus.Labels{"name": name, "namespace": namespace}
	m.PlatformReady.DeletePartialMatch(labels)
	m.ReconcileTotal.DeletePartialMatch(labels)
	m.ReconcileErrors.DeletePartialMatch(labels)
	m.ReconcileDuration.DeletePartialMatch(labels)
	m.PodStatus.DeletePartialMatch(labels)
	m.TaskCapacityTotal.DeletePartialMatch(labels)
	m.TaskCapacityUsed.DeletePartialMatch(labels)
	m.ScaleDecisions.DeletePartialMatch(labels)
	m.BackupTotal.DeletePartialMatch(labels)
	m.BackupSizeBytes.DeletePartialMatch(labels)
	m.BackupDuration.DeletePartialMatch(labels)
}
