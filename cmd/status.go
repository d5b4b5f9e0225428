package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/client"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

var (
	statusNamespace string
	statusBackups   bool
)

// statusCmd lists platforms (and optionally their backups) straight from
// the cluster.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show platform status",
	Long: `Show the status of all platforms known to the cluster.

Examples:
  warden status                 # All platforms in all namespaces
  warden status -n production   # Platforms in one namespace
  warden status --backups       # Include recent backups per platform`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusNamespace, "namespace", "n", "", "Namespace to list (default: all namespaces)")
	statusCmd.Flags().BoolVar(&statusBackups, "backups", false, "Also list backups")
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := newClusterClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	var opts []client.ListOption
	if statusNamespace != "" {
		opts = append(opts, client.InNamespace(statusNamespace))
	}

	var platforms wardenv1alpha1.PlatformList
	if err := c.List(ctx, &platforms, opts...); err != nil {
		return fmt.Errorf("listing platforms: %w", err)
	}

	if len(platforms.Items) == 0 {
		fmt.Println(text.FgYellow.Sprint("No platforms found"))
		return nil
	}

	t := newStatusTable()
	t.AppendHeader(table.Row{"NAMESPACE", "NAME", "PHASE", "WEB", "TASK", "VERSION", "MESSAGE"})
	for i := range platforms.Items {
		p := &platforms.Items[i]
		t.AppendRow(table.Row{
			p.Namespace,
			p.Name,
			coloredPhase(string(p.Status.Phase)),
			fmt.Sprintf("%d/%d", p.Status.ReadyWebReplicas, p.Spec.WebReplicas),
			fmt.Sprintf("%d/%d", p.Status.ReadyTaskReplicas, p.Spec.TaskReplicas),
			p.Status.Version,
			truncate(p.Status.Message, 60),
		})
	}
	t.Render()

	if statusBackups {
		return renderBackups(ctx, c, opts)
	}
	return nil
}

func renderBackups(ctx context.Context, c client.Client, opts []client.ListOption) error {
	var backups wardenv1alpha1.PlatformBackupList
	if err := c.List(ctx, &backups, opts...); err != nil {
		return fmt.Errorf("listing backups: %w", err)
	}
	if len(backups.Items) == 0 {
		fmt.Println(text.FgYellow.Sprint("No backups found"))
		return nil
	}

	t := newStatusTable()
	t.AppendHeader(table.Row{"NAMESPACE", "NAME", "PLATFORM", "PHASE", "ARTIFACT", "SIZE", "MESSAGE"})
	for i := range backups.Items {
		b := &backups.Items[i]
		t.AppendRow(table.Row{
			b.Namespace,
			b.Name,
			b.Spec.DeploymentName,
			coloredPhase(string(b.Status.Phase)),
			b.Status.ArtifactName,
			formatSize(b.Status.SizeBytes),
			truncate(b.Status.Message, 60),
		})
	}
	t.Render()
	return nil
}

func newStatusTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	return t
}

func coloredPhase(phase string) string {
	switch phase {
	case "Ready", "Complete":
		return text.FgGreen.Sprint(phase)
	case "Failed":
		return text.FgRed.Sprint(phase)
	case "Degraded":
		return text.FgYellow.Sprint(phase)
	case "":
		return text.FgHiBlack.Sprint("-")
	default:
		return text.FgCyan.Sprint(phase)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1fGi", float64(bytes)/(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1fMi", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1fKi", float64(bytes)/(1<<10))
	case bytes > 0:
		return fmt.Sprintf("%dB", bytes)
	default:
		return "-"
	}
}
