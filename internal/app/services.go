package app

import (
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"warden/internal/apply"
	"warden/internal/autoscaler"
	"warden/internal/backup"
	"warden/internal/config"
	"warden/internal/metrics"
	"warden/internal/reconciler"
	"warden/pkg/logging"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// Services holds all initialized components used by the operator.
//
// The wiring order matters: the cluster client and metrics come first,
// the reconcile manager next, then the three reconcilers with their shared
// scheduler and autoscaling source, and finally the change detector for
// the configured watch mode.
type Services struct {
	// Client is the cluster client shared by all reconcilers.
	Client client.Client

	// Manager owns the work queues, worker pool, and reconcile statuses.
	Manager *reconciler.Manager

	// Metrics is the operator's instrument set.
	Metrics *metrics.Metrics

	// MetricsServer serves the Prometheus endpoint. Nil when disabled.
	MetricsServer *metrics.Server

	// Scheduler fires cron-scheduled backups.
	Scheduler *backup.Scheduler
}

// InitializeServices wires the full operator service graph from the loaded
// configuration. Nothing starts running here; Start happens in runOperator.
func InitializeServices(cfg *Config) (*Services, error) {
	wardenCfg := cfg.WardenConfig
	rcfg := wardenCfg.Reconciler

	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(wardenv1alpha1.AddToScheme(scheme))

	restConfig, err := reconciler.GetRestConfig()
	if err != nil {
		return nil, fmt.Errorf("resolving cluster access: %w", err)
	}
	c, err := client.New(restConfig, client.Options{Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("creating cluster client: %w", err)
	}

	mtr := metrics.New()
	metricsServer := metrics.NewServer(wardenCfg.Metrics, mtr)

	mgr := reconciler.NewManager(reconciler.ManagerConfigFromReconciler(rcfg), mtr)

	var loader reconciler.Loader
	switch rcfg.Mode {
	case config.WatchModeFilesystem:
		loader = &reconciler.ManifestLoader{BasePath: rcfg.ManifestDir}
	default:
		loader = &reconciler.KubernetesLoader{Client: c}
	}

	scheduler := backup.NewScheduler(reconciler.ScheduledBackupTrigger(c, mgr))

	platformRec := reconciler.NewPlatformReconciler(c, loader, apply.NewApplier(c, scheme), autoscaler.NewEngine(), mtr, rcfg)
	platformRec.Scheduler = scheduler
	platformRec.Utilization = reconciler.NewForkUtilizationSource(platformRec)
	platformRec.OnForget = func(namespace, name string) {
		mgr.Forget(reconciler.ResourceTypePlatform, namespace, name)
	}

	backupRec := reconciler.NewBackupReconciler(c, loader, *wardenCfg)
	backupRec.Metrics = mtr
	restoreRec := reconciler.NewRestoreReconciler(c, loader, *wardenCfg)

	for _, r := range []reconciler.Reconciler{platformRec, backupRec, restoreRec} {
		if err := mgr.Register(r); err != nil {
			return nil, err
		}
	}

	detector, err := newDetector(rcfg)
	if err != nil {
		return nil, err
	}
	for _, rt := range []reconciler.ResourceType{
		reconciler.ResourceTypePlatform,
		reconciler.ResourceTypePlatformBackup,
		reconciler.ResourceTypePlatformRestore,
	} {
		if err := detector.AddResourceType(rt); err != nil {
			return nil, err
		}
	}
	mgr.AddDetector(detector)

	logging.Info("Bootstrap", "Services initialized in %s mode", rcfg.Mode)

	return &Services{
		Client:        c,
		Manager:       mgr,
		Metrics:       mtr,
		MetricsServer: metricsServer,
		Scheduler:     scheduler,
	}, nil
}

func newDetector(rcfg config.ReconcilerConfig) (reconciler.ChangeDetector, error) {
	switch rcfg.Mode {
	case config.WatchModeFilesystem:
		return reconciler.NewFilesystemDetector(rcfg.ManifestDir, 500*time.Millisecond), nil
	default:
		restConfig, err := reconciler.GetRestConfig()
		if err != nil {
			return nil, err
		}
		return reconciler.NewKubernetesDetector(restConfig, rcfg.Namespace)
	}
}
