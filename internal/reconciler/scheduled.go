package reconciler

import (
	"context"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"warden/pkg/logging"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// scheduledBackupLabel marks backups created by the cron scheduler so
// they can be told apart from operator-submitted ones.
const scheduledBackupLabel = "warden.dev/scheduled"

// ScheduledBackupTrigger returns the callback the backup scheduler fires
// when a platform's cron expression comes due. It creates a PlatformBackup
// for the platform and queues it for reconciliation immediately, without
// waiting for a watch event to arrive.
func ScheduledBackupTrigger(c client.Client, mgr *Manager) func(namespace, name string) {
	return func(namespace, name string) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		b := &wardenv1alpha1.PlatformBackup{
			ObjectMeta: metav1.ObjectMeta{
				GenerateName: name + "-scheduled-",
				Namespace:    namespace,
				Labels: map[string]string{
					scheduledBackupLabel: "true",
				},
			},
			Spec: wardenv1alpha1.PlatformBackupSpec{
				DeploymentName: name,
				NoLog:          true,
			},
		}
		if err := c.Create(ctx, b); err != nil {
			logging.Error("Scheduler", err, "Failed to create scheduled backup for %s/%s", namespace, name)
			return
		}

		logging.Info("Scheduler", "Created scheduled backup %s/%s for platform %s", namespace, b.Name, name)
		mgr.TriggerReconcile(ResourceTypePlatformBackup, namespace, b.Name)
	}
}
