package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cjeanneret/ballplate/internal/config"
	"github.com/cjeanneret/ballplate/internal/debug"
	"github.com/cjeanneret/ballplate/internal/logic/balance"
)

var cfgPath string

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil && exitCode(err) != 0 {
		fmt.Fprintf(os.Stderr, "ballplate: %v\n", err)
	}
	os.Exit(exitCode(err))
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ballplate",
		Short:         "ball-on-plate balancing controller",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", filepath.Join("configs", "default.yaml"), "path to config file")

	rootCmd.AddCommand(
		newRunCmd(),
		newLocateCmd(),
		newListCmd(),
		newPlotCmd(),
		newProfilesCmd(),
	)
	return rootCmd
}

// loadConfig reads the --config file and initializes logging from it.
func loadConfig() (*config.Config, error) {
	if err := config.ValidateConfigPath(cfgPath); err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	return cfg, nil
}

// exitCode maps the outcome of a command to the process status:
// 0 for success, cancellation and operator quit, 2 for safety violations,
// 1 for everything else.
func exitCode(err error) int {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, balance.ErrOperatorQuit):
		return 0
	case balance.IsFatal(err):
		return 2
	default:
		return 1
	}
}

// fatalExit stops the process at once on a safety violation. Deferred
// cleanup is skipped so nothing else reaches the actuators.
func fatalExit(err error) {
	debug.Error(err)
	log.Printf("FATAL: %v", err)
	os.Exit(2)
}
