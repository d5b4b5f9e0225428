package backup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"warden/internal/operrors"
	"warden/pkg/logging"
)

// Dumper produces a database dump for one platform into destDir.
type Dumper interface {
	Dump(ctx context.Context, conn DatabaseConn, destDir string) error
}

// Restorer loads a dump produced by a Dumper back into the database.
type Restorer interface {
	Restore(ctx context.Context, conn DatabaseConn, dumpDir string) error
}

// DatabaseConn carries connection settings for the platform's database.
// Resolved from the platform's configuration secret by the reconciler.
type DatabaseConn struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

const dumpFileName = "tool.db"

// PgDumper shells out to pg_dump and pg_restore. The binaries ship in the
// operator image.
type PgDumper struct{}

func (PgDumper) Dump(ctx context.Context, conn DatabaseConn, destDir string) error {
	dest := filepath.Join(destDir, dumpFileName)
	cmd := exec.CommandContext(ctx, "pg_dump",
		"--format=custom",
		"--host", conn.Host,
		"--port", conn.Port,
		"--username", conn.User,
		"--dbname", conn.Database,
		"--file", dest,
	)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+conn.Password)

	out, err := cmd.CombinedOutput()
	if err != nil {
		// pg_dump failures are dominated by connection problems, so
		// they are retried rather than failing the run outright.
		return operrors.NewTransient("run pg_dump", fmt.Errorf("%w: %s", err, out))
	}
	logging.Debug("Backup", "Dumped database %s to %s", conn.Database, dest)
	return nil
}

func (PgDumper) Restore(ctx context.Context, conn DatabaseConn, dumpDir string) error {
	src := filepath.Join(dumpDir, dumpFileName)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("dump file missing from archive: %w", err)
	}

	cmd := exec.CommandContext(ctx, "pg_restore",
		"--clean",
		"--if-exists",
		"--host", conn.Host,
		"--port", conn.Port,
		"--username", conn.User,
		"--dbname", conn.Database,
		src,
	)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+conn.Password)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pg_restore failed: %w: %s", err, out)
	}
	logging.Debug("Backup", "Restored database %s from %s", conn.Database, src)
	return nil
}
