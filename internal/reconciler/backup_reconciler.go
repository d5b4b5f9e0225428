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
	"warden/internal/metrics"
	"warden/internal/operrors"
	"warden/internal/storage"
	"warden/pkg/logging"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// BackupReconciler runs the backup pipeline for PlatformBackup resources
// and prunes old artifacts afterwards. A backup whose status is terminal
// is never re-run, so replayed events and operator restarts are safe.
type BackupReconciler struct {
	Client  client.Client
	Loader  Loader
	Dumper  backup.Dumper
	Config  config.BackupConfig
	Metrics *metrics.Metrics

	// WriteStatus mirrors pipeline progress into the resource status.
	// Disabled in filesystem mode.
	WriteStatus bool
}

// NewBackupReconciler wires a backup reconciler. The dumper defaults to
// pg_dump when nil.
func NewBackupReconciler(c client.Client, loader Loader, cfg config.WardenConfig) *BackupReconciler {
	return &BackupReconciler{
		Client:      c,
		Loader:      loader,
		Dumper:      backup.PgDumper{},
		Config:      cfg.Backup,
		WriteStatus: cfg.Reconciler.Mode == config.WatchModeKubernetes,
	}
}

// GetResourceType returns ResourceTypePlatformBackup.
func (r *BackupReconciler) GetResourceType() ResourceType {
	return ResourceTypePlatformBackup
}

// Reconcile runs one backup to completion.
func (r *BackupReconciler) Reconcile(ctx context.Context, req ReconcileRequest) ReconcileResult {
	b, err := r.Loader.LoadBackup(ctx, req.Namespace, req.Name)
	if apierrors.IsNotFound(err) {
		return ReconcileResult{}
	}
	if err != nil {
		return ReconcileResult{Error: operrors.NewTransient(fmt.Sprintf("load backup %s", req.Name), err)}
	}

	if b.Status.Phase.Terminal() {
		logging.Debug("BackupReconciler", "Backup %s/%s already %s, nothing to do",
			b.Namespace, b.Name, b.Status.Phase)
		return ReconcileResult{}
	}

	if violations := wardenv1alpha1.ValidateBackup(b); len(violations) > 0 {
		r.fail(ctx, b, "spec validation failed: "+strings.Join(violations, "; "))
		return ReconcileResult{Error: operrors.NewValidationError("PlatformBackup", b.Name, violations)}
	}

	p, err := r.Loader.LoadPlatform(ctx, b.Namespace, b.Spec.DeploymentName)
	if apierrors.IsNotFound(err) {
		msg := fmt.Sprintf("platform %s not found", b.Spec.DeploymentName)
		r.fail(ctx, b, msg)
		return ReconcileResult{Error: operrors.NewValidationError("PlatformBackup", b.Name, []string{msg})}
	}
	if err != nil {
		return ReconcileResult{Error: operrors.NewTransient("load platform", err)}
	}

	policy := effectivePolicy(p, b)
	if policy == nil {
		msg := fmt.Sprintf("platform %s has no backup policy", p.Name)
		r.fail(ctx, b, msg)
		return ReconcileResult{Error: operrors.NewValidationError("PlatformBackup", b.Name, []string{msg})}
	}

	conn, err := resolveConn(ctx, r.Client, p)
	if err != nil {
		return r.resolveFailure(ctx, b, err)
	}
	creds, err := resolveCredentials(ctx, r.Client, b.Namespace, policy)
	if err != nil {
		return r.resolveFailure(ctx, b, err)
	}
	key, err := resolveEncryptionKey(ctx, r.Client, b.Namespace, policy)
	if err != nil {
		return r.resolveFailure(ctx, b, err)
	}

	target, err := storage.NewTarget(ctx, policy, creds)
	if err != nil {
		r.fail(ctx, b, SanitizeErrorMessage(err.Error()))
		return ReconcileResult{Error: operrors.NewValidationError("PlatformBackup", b.Name, []string{err.Error()})}
	}

	pipeline := backup.NewPipeline(r.Dumper, target, r.Config, r.Metrics)
	pipeline.OnStatus = func(rec *backup.Record) {
		r.mirror(ctx, b, rec)
	}

	rec, runErr := pipeline.Run(ctx, backup.Request{
		DeploymentName: b.Spec.DeploymentName,
		Namespace:      b.Namespace,
		Conn:           conn,
		Policy:         policy,
		EncryptionKey:  key,
	})
	r.mirror(ctx, b, rec)
	if runErr != nil {
		return ReconcileResult{Error: runErr}
	}

	pruner := backup.NewPruner(target)
	deleted, err := pruner.Prune(ctx, b.Spec.DeploymentName, policy)
	if err != nil {
		// A failed prune never fails the backup; retention catches up on
		// the next run.
		logging.Warn("BackupReconciler", "Pruning after %s/%s: %v", b.Namespace, b.Name, err)
	} else if len(deleted) > 0 {
		logging.Info("BackupReconciler", "Pruned %d artifact(s) for %s", len(deleted), b.Spec.DeploymentName)
	}

	return ReconcileResult{}
}

func (r *BackupReconciler) resolveFailure(ctx context.Context, b *wardenv1alpha1.PlatformBackup, err error) ReconcileResult {
	if !operrors.IsRetryable(err) {
		r.fail(ctx, b, SanitizeErrorMessage(err.Error()))
	}
	return ReconcileResult{Error: err}
}

// effectivePolicy is the platform's backup policy with the backup's
// storage type override applied.
func effectivePolicy(p *wardenv1alpha1.Platform, b *wardenv1alpha1.PlatformBackup) *wardenv1alpha1.BackupPolicy {
	if p.Spec.Backup == nil {
		return nil
	}
	policy := p.Spec.Backup.DeepCopy()
	if b.Spec.StorageType != "" {
		policy.StorageType = b.Spec.StorageType
	}
	return policy
}

// mirror copies pipeline record state into the resource status. Phases
// share names with record statuses, so the mapping is direct.
func (r *BackupReconciler) mirror(ctx context.Context, b *wardenv1alpha1.PlatformBackup, rec *backup.Record) {
	b.Status.Phase = wardenv1alpha1.BackupPhase(rec.Status)
	b.Status.BackupID = rec.ID
	b.Status.ArtifactName = rec.ArtifactName
	b.Status.SizeBytes = rec.SizeBytes
	b.Status.Checksum = rec.Checksum
	b.Status.StorageTarget = rec.StorageTarget
	b.Status.Message = rec.Message

	if rec.Status != backup.StatusScheduled && b.Status.StartedAt == nil {
		started := metav1.NewTime(rec.CreatedAt)
		b.Status.StartedAt = &started
	}
	if b.Status.Phase.Terminal() && b.Status.CompletedAt == nil {
		now := metav1.Now()
		b.Status.CompletedAt = &now
	}

	r.pushStatus(ctx, b)
}

func (r *BackupReconciler) fail(ctx context.Context, b *wardenv1alpha1.PlatformBackup, msg string) {
	b.Status.Phase = wardenv1alpha1.BackupPhaseFailed
	b.Status.Message = msg
	if b.Status.CompletedAt == nil {
		now := metav1.Now()
		b.Status.CompletedAt = &now
	}
	r.pushStatus(ctx, b)
}

func (r *BackupReconciler) pushStatus(ctx context.Context, b *wardenv1alpha1.PlatformBackup) {
	if !r.WriteStatus {
		return
	}
	if err := r.Client.Status().Update(ctx, b); err != nil {
		logging.Warn("BackupReconciler", "Updating status for %s/%s: %v", b.Namespace, b.Name, err)
	}
}
