package cmd

import (
	"context"
	"fmt"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/spf13/cobra"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

var (
	backupNamespace   string
	backupStorageType string
)

// backupCmd submits a one-shot backup for a platform. The running operator
// picks the resource up through its watch and runs the pipeline.
var backupCmd = &cobra.Command{
	Use:   "backup <platform>",
	Short: "Trigger a backup for a platform",
	Long: `Create a PlatformBackup resource for the named platform. The operator
runs the backup pipeline and records progress on the resource status;
follow it with 'warden status --backups'.

Examples:
  warden backup myapp                      # Backup with the platform's policy
  warden backup myapp --storage-type s3    # Override the storage backend`,
	Args: cobra.ExactArgs(1),
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().StringVarP(&backupNamespace, "namespace", "n", "default", "Namespace of the platform")
	backupCmd.Flags().StringVar(&backupStorageType, "storage-type", "", "Override the storage backend (local, s3, azure, gcs)")
}

func runBackup(cmd *cobra.Command, args []string) error {
	platformName := args[0]

	c, err := newClusterClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	b := &wardenv1alpha1.PlatformBackup{
		ObjectMeta: metav1.ObjectMeta{
			GenerateName: platformName + "-manual-",
			Namespace:    backupNamespace,
		},
		Spec: wardenv1alpha1.PlatformBackupSpec{
			DeploymentName: platformName,
			StorageType:    backupStorageType,
			NoLog:          true,
		},
	}
	if err := c.Create(ctx, b); err != nil {
		return fmt.Errorf("creating backup: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Backup %s/%s created\n", backupNamespace, b.Name)
	return nil
}
