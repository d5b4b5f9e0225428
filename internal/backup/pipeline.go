package backup

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"warden/internal/config"
	"warden/internal/metrics"
	"warden/internal/operrors"
	"warden/internal/storage"
	"warden/pkg/logging"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// Request describes one backup run.
type Request struct {
	DeploymentName string
	Namespace      string
	Conn           DatabaseConn
	Policy         *wardenv1alpha1.BackupPolicy

	// EncryptionKey is the resolved 32-byte key; nil skips the
	// encryption step.
	EncryptionKey []byte
}

// Pipeline drives a backup through dump, compress, optional encrypt,
// upload, and verify. Each run produces one Record; the record's status
// only moves forward.
type Pipeline struct {
	dumper  Dumper
	target  storage.Target
	cfg     config.BackupConfig
	metrics *metrics.Metrics

	now func() time.Time

	// OnStatus, when set, observes every record transition. The
	// reconciler mirrors these into PlatformBackup status.
	OnStatus func(*Record)
}

// NewPipeline wires a pipeline. metrics may be nil in tests.
func NewPipeline(dumper Dumper, target storage.Target, cfg config.BackupConfig, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		dumper:  dumper,
		target:  target,
		cfg:     cfg,
		metrics: m,
		now:     time.Now,
	}
}

// Run executes the pipeline. The returned record is terminal: Complete on
// success, Failed otherwise. A verification failure leaves the uploaded
// artifact in place for manual inspection; nothing is ever auto-deleted on
// a failed run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Record, error) {
	started := p.now()
	rec := NewRecord(req.DeploymentName, req.Namespace, started)
	rec.StorageTarget = p.target.Kind()
	rec.ArtifactName = ArtifactName(req.DeploymentName, started, len(req.EncryptionKey) > 0)
	p.notify(rec)

	err := p.run(ctx, req, rec)
	if err != nil {
		rec.Fail(err.Error())
		p.notify(rec)
		p.observe(rec, started, "failed")
		return rec, err
	}

	rec.Advance(StatusComplete)
	p.notify(rec)
	p.observe(rec, started, "complete")
	logging.Info("Backup", "Backup %s for %s/%s complete (%d bytes)",
		rec.ArtifactName, req.Namespace, req.DeploymentName, rec.SizeBytes)
	return rec, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, rec *Record) error {
	workDir, err := os.MkdirTemp(p.cfg.WorkDir, "backup-"+req.DeploymentName+"-*")
	if err != nil {
		return fmt.Errorf("creating work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Dump with backoff on failures.
	rec.Advance(StatusRunning)
	p.notify(rec)
	dumpDir := filepath.Join(workDir, "dump")
	if err := os.MkdirAll(dumpDir, 0o750); err != nil {
		return err
	}
	if err := p.dump(ctx, req.Conn, dumpDir); err != nil {
		return fmt.Errorf("dump step: %w", err)
	}

	// Archive, elided from the status sequence when the policy
	// disables compression. The tar container is always produced.
	level := gzip.NoCompression
	if req.Policy == nil || req.Policy.Compress {
		rec.Advance(StatusCompressing)
		p.notify(rec)
		level = gzip.DefaultCompression
	}
	artifact := filepath.Join(workDir, "artifact.tar.gz")
	if err := archiveDir(dumpDir, artifact, level); err != nil {
		return fmt.Errorf("compress step: %w", err)
	}

	// Encrypt, elided without a key.
	if len(req.EncryptionKey) > 0 {
		rec.Advance(StatusEncrypting)
		p.notify(rec)
		sealed := artifact + ".enc"
		if err := encryptFile(artifact, sealed, req.EncryptionKey); err != nil {
			return fmt.Errorf("encrypt step: %w", err)
		}
		artifact = sealed
	}

	checksum, size, err := fileChecksum(artifact)
	if err != nil {
		return err
	}
	rec.Checksum = checksum
	rec.SizeBytes = size

	// Upload with backoff on transient failures.
	rec.Advance(StatusUploading)
	p.notify(rec)
	if err := p.upload(ctx, rec.ArtifactName, artifact); err != nil {
		return fmt.Errorf("upload step: %w", err)
	}

	// Verify size and checksum against what the store holds.
	rec.Advance(StatusVerifying)
	p.notify(rec)
	if err := p.verify(ctx, rec); err != nil {
		return fmt.Errorf("verify step: %w", err)
	}
	return nil
}

// backoffJitter spreads retries so concurrent pipelines do not hammer
// the database or the store in lockstep.
const backoffJitter = 0.25

// dump runs the dumper with bounded exponential backoff. Dump failures
// are transient by default: a database mid-failover recovers before the
// attempts run out.
func (p *Pipeline) dump(ctx context.Context, conn DatabaseConn, destDir string) error {
	delay := p.cfg.DumpBackoff.Std()
	if delay <= 0 {
		delay = 10 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt <= p.cfg.DumpRetries; attempt++ {
		if attempt > 0 {
			logging.Warn("Backup", "Dump attempt %d failed, retrying in %s: %v",
				attempt, delay, lastErr)
			select {
			case <-time.After(wait.Jitter(delay, backoffJitter)):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}

		lastErr = p.dumper.Dump(ctx, conn, destDir)
		if lastErr == nil {
			return nil
		}
	}
	return operrors.NewTransient("dump database", lastErr)
}

func (p *Pipeline) upload(ctx context.Context, key, path string) error {
	delay := p.cfg.UploadBackoff.Std()
	if delay <= 0 {
		delay = 5 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt <= p.cfg.UploadRetries; attempt++ {
		if attempt > 0 {
			logging.Warn("Backup", "Upload attempt %d for %s failed, retrying in %s: %v",
				attempt, key, delay, lastErr)
			select {
			case <-time.After(wait.Jitter(delay, backoffJitter)):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		lastErr = p.target.Put(ctx, key, f)
		f.Close()
		if lastErr == nil {
			return nil
		}
		if storage.IsAccessDenied(lastErr) {
			// Bad credentials do not get better with retries.
			return fmt.Errorf("storage target denied access: %w", lastErr)
		}
	}
	return operrors.NewTransient("upload artifact", lastErr)
}

// verify re-reads the uploaded artifact and compares size and sha256
// against what was computed locally.
func (p *Pipeline) verify(ctx context.Context, rec *Record) error {
	info, err := p.target.Stat(ctx, rec.ArtifactName)
	if err != nil {
		return operrors.NewTransient("stat artifact", err)
	}
	if info.SizeBytes != rec.SizeBytes {
		return operrors.NewVerification(rec.ArtifactName, "size",
			fmt.Sprintf("%d", rec.SizeBytes), fmt.Sprintf("%d", info.SizeBytes))
	}

	r, err := p.target.Get(ctx, rec.ArtifactName)
	if err != nil {
		return operrors.NewTransient("download artifact for verification", err)
	}
	defer r.Close()

	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return operrors.NewTransient("read artifact for verification", err)
	}
	got := hex.EncodeToString(h.Sum(nil))
	if got != rec.Checksum {
		return operrors.NewVerification(rec.ArtifactName, "checksum", rec.Checksum, got)
	}
	return nil
}

func (p *Pipeline) notify(rec *Record) {
	if p.OnStatus != nil {
		p.OnStatus(rec)
	}
}

func (p *Pipeline) observe(rec *Record, started time.Time, status string) {
	if p.metrics == nil {
		return
	}
	p.metrics.BackupTotal.WithLabelValues(rec.DeploymentName, rec.Namespace, status).Inc()
	p.metrics.BackupDuration.WithLabelValues(rec.DeploymentName, rec.Namespace).Observe(p.now().Sub(started).Seconds())
	if status == "complete" {
		p.metrics.BackupSizeBytes.WithLabelValues(rec.DeploymentName, rec.Namespace).Set(float64(rec.SizeBytes))
	}
}

func fileChecksum(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}
