package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"warden/internal/config"
	"warden/internal/operrors"
	"warden/internal/storage"
	"warden/pkg/logging"
)

// RestoreRequest selects an artifact and the database to load it into.
type RestoreRequest struct {
	ArtifactName string
	Conn         DatabaseConn

	// ExpectedChecksum, when set, is compared against the downloaded
	// artifact before anything is decrypted or unpacked.
	ExpectedChecksum string

	// EncryptionKey must be the key the artifact was sealed with. Required
	// for .enc artifacts, ignored otherwise.
	EncryptionKey []byte
}

// RestorePhase mirrors the restore pipeline steps for status reporting.
type RestorePhase string

const (
	RestoreDownloading   RestorePhase = "Downloading"
	RestoreVerifying     RestorePhase = "Verifying"
	RestoreDecrypting    RestorePhase = "Decrypting"
	RestoreDecompressing RestorePhase = "Decompressing"
	RestoreRestoring     RestorePhase = "Restoring"
)

// RestorePipeline is the symmetric read path: download, verify, optional
// decrypt, unpack, load.
type RestorePipeline struct {
	restorer Restorer
	target   storage.Target
	cfg      config.BackupConfig

	// OnPhase, when set, observes phase transitions.
	OnPhase func(RestorePhase)
}

func NewRestorePipeline(restorer Restorer, target storage.Target, cfg config.BackupConfig) *RestorePipeline {
	return &RestorePipeline{restorer: restorer, target: target, cfg: cfg}
}

// Run executes a restore. The database is only touched after the artifact
// downloaded, verified, and unpacked cleanly.
func (p *RestorePipeline) Run(ctx context.Context, req RestoreRequest) error {
	workDir, err := os.MkdirTemp(p.cfg.WorkDir, "restore-*")
	if err != nil {
		return fmt.Errorf("creating work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download.
	p.phase(RestoreDownloading)
	artifact := filepath.Join(workDir, "artifact")
	if err := p.download(ctx, req.ArtifactName, artifact); err != nil {
		return fmt.Errorf("download step: %w", err)
	}

	// Verify before trusting the payload.
	if req.ExpectedChecksum != "" {
		p.phase(RestoreVerifying)
		got, _, err := fileChecksum(artifact)
		if err != nil {
			return err
		}
		if got != req.ExpectedChecksum {
			return operrors.NewVerification(req.ArtifactName, "checksum", req.ExpectedChecksum, got)
		}
	}

	// Decrypt when the artifact name says so.
	if strings.HasSuffix(req.ArtifactName, encryptedSuffix) {
		p.phase(RestoreDecrypting)
		if len(req.EncryptionKey) == 0 {
			return fmt.Errorf("artifact %s is encrypted but no key was provided", req.ArtifactName)
		}
		plain := artifact + ".plain"
		if err := decryptFile(artifact, plain, req.EncryptionKey); err != nil {
			return fmt.Errorf("decrypt step: %w", err)
		}
		artifact = plain
	}

	// Unpack.
	p.phase(RestoreDecompressing)
	dumpDir := filepath.Join(workDir, "dump")
	if err := os.MkdirAll(dumpDir, 0o750); err != nil {
		return err
	}
	if err := extractArchive(artifact, dumpDir); err != nil {
		return fmt.Errorf("decompress step: %w", err)
	}

	// Load.
	p.phase(RestoreRestoring)
	if err := p.restorer.Restore(ctx, req.Conn, dumpDir); err != nil {
		return fmt.Errorf("restore step: %w", err)
	}

	logging.Info("Backup", "Restored %s into database %s", req.ArtifactName, req.Conn.Database)
	return nil
}

func (p *RestorePipeline) download(ctx context.Context, key, dest string) error {
	r, err := p.target.Get(ctx, key)
	if err != nil {
		return operrors.NewTransient("download artifact", err)
	}
	defer r.Close()

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return operrors.NewTransient("download artifact", err)
	}
	return f.Close()
}

func (p *RestorePipeline) phase(ph RestorePhase) {
	if p.OnPhase != nil {
		p.OnPhase(ph)
	}
}
