package app

import (
	"context"
	"fmt"
	"os"

	"warden/internal/config"
	"warden/pkg/logging"
)

// Application represents the main application structure that bootstraps and
// runs the warden operator. It encapsulates configuration and the wired
// service graph required for the operator's lifecycle.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: Load configuration, initialize logging, wire services
//  2. Execution phase: Run the reconcile manager until signaled
//
// Example usage:
//
//	cfg := app.NewConfig(true, "", "")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance with the
// provided configuration. This function performs the complete bootstrap
// sequence:
//
//  1. Configures logging based on debug settings
//  2. Loads warden configuration from the config directory
//  3. Wires the reconcile manager, detectors, and reconcilers
//
// Configuration Loading Behavior:
//   - If cfg.ConfigPath is set: loads from the specified directory only
//   - If cfg.ConfigPath is empty: loads from the per-user config directory
func NewApplication(cfg *Config) (*Application, error) {
	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}
	logging.Init(appLogLevel, os.Stdout)

	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = config.GetDefaultConfigPathOrPanic()
	}

	wardenCfg, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load warden configuration from %s", configPath)
		return nil, fmt.Errorf("failed to load warden configuration from %s: %w", configPath, err)
	}
	if cfg.Namespace != "" {
		wardenCfg.Reconciler.Namespace = cfg.Namespace
	}
	cfg.WardenConfig = &wardenCfg

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Run executes the operator until the context is canceled or a shutdown
// signal arrives. Blocks for the lifetime of the process.
func (a *Application) Run(ctx context.Context) error {
	return runOperator(ctx, a.config, a.services)
}
