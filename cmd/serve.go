package cmd

import (
	"context"
	"fmt"

	"warden/internal/app"

	"github.com/spf13/cobra"
)

// serveDebug enables verbose logging across the operator.
var serveDebug bool

// serveConfigPath specifies a custom configuration directory path.
// When set, configuration is loaded from this directory instead of the
// per-user default (~/.config/warden).
var serveConfigPath string

// serveNamespace limits the watch to one namespace. Empty watches all.
var serveNamespace string

// serveCmd defines the serve command structure.
// This is the main command of warden: it starts the reconcile manager,
// the backup scheduler, and the metrics endpoint, and runs until signaled.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the warden operator",
	Long: `Starts the warden operator. The operator watches Platform, PlatformBackup,
and PlatformRestore resources and reconciles them continuously:

  - Platform: renders and applies the database, cache, web, and task
    workloads, tracks tier health, and sizes the task tier against its
    fork budget.
  - PlatformBackup: runs the dump, compress, encrypt, upload, verify
    pipeline and prunes artifacts that fall outside retention.
  - PlatformRestore: loads a verified artifact back into the platform's
    database.

Watch modes:
  kubernetes (default)  watch CRDs through the API server
  filesystem            watch a directory of YAML manifests; useful for
                        local development against a kind cluster

Configuration:
  warden loads config.yaml from ~/.config/warden by default. Use
  --config-path to load from a different directory instead.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, serveConfigPath, serveNamespace)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable general debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Custom configuration directory path")
	serveCmd.Flags().StringVarP(&serveNamespace, "namespace", "n", "", "Namespace to watch (default: all namespaces)")
}
