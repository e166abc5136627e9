// Package cli implements the iotwatch-train command, the offline trainer
// over the three idempotent entry points of spec.md §6. Grounded on the
// teacher's controlplane-telemetry-data/cli/root.go: a cobra root command
// with persistent --verbose/--env-style flags, a newLogger helper using
// tint, and one subcommand per operation.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

// Run executes the iotwatch-train root command and returns a process exit
// code, following controlplane-telemetry-data's cli.Run() ExitCode shape.
func Run() ExitCode {
	rootCmd := &cobra.Command{
		Use:   "iotwatch-train",
		Short: "Offline trainer for the iotwatch behavioral traffic pipeline.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Help(); err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	var verbose bool
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "set debug logging level")

	var projectRoot string
	rootCmd.PersistentFlags().StringVar(&projectRoot, "project-root", ".", "Root directory holding idle-data/ and idle-data-std/")

	var modelsRoot string
	rootCmd.PersistentFlags().StringVar(&modelsRoot, "models-root", "./models", "Root directory holding the model artifact tree")

	rootCmd.AddCommand(
		NewTrainStandardizerCmd().Command(),
		NewInferPeriodicityCmd().Command(),
		NewTrainPeriodicFilterCmd().Command(),
	)

	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func rootFlags(cmd *cobra.Command) (verbose bool, projectRoot, modelsRoot string, err error) {
	verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return false, "", "", fmt.Errorf("failed to get verbose flag: %w", err)
	}
	projectRoot, err = cmd.Root().PersistentFlags().GetString("project-root")
	if err != nil {
		return false, "", "", fmt.Errorf("failed to get project-root flag: %w", err)
	}
	modelsRoot, err = cmd.Root().PersistentFlags().GetString("models-root")
	if err != nil {
		return false, "", "", fmt.Errorf("failed to get models-root flag: %w", err)
	}
	return verbose, projectRoot, modelsRoot, nil
}
