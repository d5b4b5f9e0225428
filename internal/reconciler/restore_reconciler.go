package reconciler

import (
	"context"
	"fmt"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"warden/internal/backup"
	"warden/internal/config"
	"warden/internal/operrors"
	"warden/internal/storage"
	"warden/pkg/logging"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// RestoreReconciler loads a verified backup artifact back into a
// platform's database. The source artifact is only ever read.
type RestoreReconciler struct {
	Client   client.Client
	Loader   Loader
	Restorer backup.Restorer
	Config   config.BackupConfig

	// WriteStatus mirrors pipeline progress into the resource status.
	WriteStatus bool
}

// NewRestoreReconciler wires a restore reconciler backed by pg_restore.
func NewRestoreReconciler(c client.Client, loader Loader, cfg config.WardenConfig) *RestoreReconciler {
	return &RestoreReconciler{
		Client:      c,
		Loader:      loader,
		Restorer:    backup.PgDumper{},
		Config:      cfg.Backup,
		WriteStatus: cfg.Reconciler.Mode == config.WatchModeKubernetes,
	}
}

// GetResourceType returns ResourceTypePlatformRestore.
func (r *RestoreReconciler) GetResourceType() ResourceType {
	return ResourceTypePlatformRestore
}

// Reconcile runs one restore to completion.
func (r *RestoreReconciler) Reconcile(ctx context.Context, req ReconcileRequest) ReconcileResult {
	res, err := r.Loader.LoadRestore(ctx, req.Namespace, req.Name)
	if apierrors.IsNotFound(err) {
		return ReconcileResult{}
	}
	if err != nil {
		return ReconcileResult{Error: operrors.NewTransient("load restore", err)}
	}

	if res.Status.Phase.Terminal() {
		logging.Debug("RestoreReconciler", "Restore %s/%s already %s, nothing to do",
			res.Namespace, res.Name, res.Status.Phase)
		return ReconcileResult{}
	}

	if violations := wardenv1alpha1.ValidateRestore(res); len(violations) > 0 {
		r.fail(ctx, res, "spec validation failed: "+strings.Join(violations, "; "))
		return ReconcileResult{Error: operrors.NewValidationError("PlatformRestore", res.Name, violations)}
	}

	source, err := r.resolveSource(ctx, res)
	if err != nil {
		if !operrors.IsRetryable(err) {
			r.fail(ctx, res, SanitizeErrorMessage(err.Error()))
		}
		return ReconcileResult{Error: err}
	}

	p, err := r.Loader.LoadPlatform(ctx, res.Namespace, res.Spec.DeploymentName)
	if apierrors.IsNotFound(err) {
		msg := fmt.Sprintf("platform %s not found", res.Spec.DeploymentName)
		r.fail(ctx, res, msg)
		return ReconcileResult{Error: operrors.NewValidationError("PlatformRestore", res.Name, []string{msg})}
	}
	if err != nil {
		return ReconcileResult{Error: operrors.NewTransient("load platform", err)}
	}
	if p.Spec.Backup == nil {
		msg := fmt.Sprintf("platform %s has no backup policy to locate artifacts with", p.Name)
		r.fail(ctx, res, msg)
		return ReconcileResult{Error: operrors.NewValidationError("PlatformRestore", res.Name, []string{msg})}
	}

	conn, err := resolveConn(ctx, r.Client, p)
	if err != nil {
		return ReconcileResult{Error: err}
	}
	creds, err := resolveCredentials(ctx, r.Client, res.Namespace, p.Spec.Backup)
	if err != nil {
		return ReconcileResult{Error: err}
	}
	key, err := resolveEncryptionKey(ctx, r.Client, res.Namespace, p.Spec.Backup)
	if err != nil {
		if !operrors.IsRetryable(err) {
			r.fail(ctx, res, SanitizeErrorMessage(err.Error()))
		}
		return ReconcileResult{Error: err}
	}

	target, err := storage.NewTarget(ctx, p.Spec.Backup, creds)
	if err != nil {
		r.fail(ctx, res, SanitizeErrorMessage(err.Error()))
		return ReconcileResult{Error: operrors.NewValidationError("PlatformRestore", res.Name, []string{err.Error()})}
	}

	res.Status.RestoredFromBackup = source.Status.BackupID
	pipeline := backup.NewRestorePipeline(r.Restorer, target, r.Config)
	pipeline.OnPhase = func(phase backup.RestorePhase) {
		res.Status.Phase = wardenv1alpha1.RestorePhase(phase)
		r.pushStatus(ctx, res)
	}

	runErr := pipeline.Run(ctx, backup.RestoreRequest{
		ArtifactName:     source.Status.ArtifactName,
		Conn:             conn,
		ExpectedChecksum: source.Status.Checksum,
		EncryptionKey:    key,
	})
	if runErr != nil {
		r.fail(ctx, res, SanitizeErrorMessage(runErr.Error()))
		return ReconcileResult{Error: runErr}
	}

	res.Status.Phase = wardenv1alpha1.RestorePhaseComplete
	res.Status.Message = fmt.Sprintf("restored from %s", source.Status.ArtifactName)
	now := metav1.Now()
	res.Status.RestoreTime = &now
	r.pushStatus(ctx, res)

	logging.Info("RestoreReconciler", "Restored %s/%s from backup %s",
		res.Namespace, res.Spec.DeploymentName, source.Status.ArtifactName)
	return ReconcileResult{}
}

// resolveSource finds the completed PlatformBackup the restore names,
// either directly or by backup id.
func (r *RestoreReconciler) resolveSource(ctx context.Context, res *wardenv1alpha1.PlatformRestore) (*wardenv1alpha1.PlatformBackup, error) {
	var source *wardenv1alpha1.PlatformBackup

	if res.Spec.BackupName != "" {
		b, err := r.Loader.LoadBackup(ctx, res.Namespace, res.Spec.BackupName)
		if apierrors.IsNotFound(err) {
			return nil, operrors.NewValidationError("PlatformRestore", res.Name,
				[]string{fmt.Sprintf("backup %s not found", res.Spec.BackupName)})
		}
		if err != nil {
			return nil, operrors.NewTransient("load backup", err)
		}
		source = b
	} else {
		var list wardenv1alpha1.PlatformBackupList
		if err := r.Client.List(ctx, &list, client.InNamespace(res.Namespace)); err != nil {
			return nil, operrors.NewTransient("list backups", err)
		}
		for i := range list.Items {
			if list.Items[i].Status.BackupID == res.Spec.BackupID {
				source = &list.Items[i]
				break
			}
		}
		if source == nil {
			return nil, operrors.NewValidationError("PlatformRestore", res.Name,
				[]string{fmt.Sprintf("no backup with id %s", res.Spec.BackupID)})
		}
	}

	if source.Spec.DeploymentName != res.Spec.DeploymentName {
		return nil, operrors.NewValidationError("PlatformRestore", res.Name,
			[]string{fmt.Sprintf("backup %s belongs to platform %s, not %s",
				source.Name, source.Spec.DeploymentName, res.Spec.DeploymentName)})
	}
	if source.Status.Phase != wardenv1alpha1.BackupPhaseComplete {
		return nil, operrors.NewValidationError("PlatformRestore", res.Name,
			[]string{fmt.Sprintf("backup %s is %s, only Complete backups can be restored",
				source.Name, source.Status.Phase)})
	}
	return source, nil
}

func (r *RestoreReconciler) fail(ctx context.Context, res *wardenv1alpha1.PlatformRestore, msg string) {
	res.Status.Phase = wardenv1alpha1.RestorePhaseFailed
	res.Status.Message = msg
	r.pushStatus(ctx, res)
}

func (r *RestoreReconciler) pushStatus(ctx context.Context, res *wardenv1alpha1.PlatformRestore) {
	if !r.WriteStatus {
		return
	}
	if err := r.Client.Status().Update(ctx, res); err != nil {
		logging.Warn("RestoreReconciler", "Updating status for %s/%s: %v", res.Namespace, res.Name, err)
	}
}
