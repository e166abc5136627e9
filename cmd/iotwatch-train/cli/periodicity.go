package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fenwicklabs/iotwatch/internal/config"
	"github.com/fenwicklabs/iotwatch/internal/trainer"
)

// InferPeriodicityCmd implements
// `iotwatch-train infer-periodicity <mac> --model <model>` (spec.md
// §4.6.2 / §6).
type InferPeriodicityCmd struct{}

func NewInferPeriodicityCmd() *InferPeriodicityCmd {
	return &InferPeriodicityCmd{}
}

func (c *InferPeriodicityCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infer-periodicity <mac>",
		Short: "Infer periodic-traffic fingerprints for one device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, projectRoot, modelsRoot, err := rootFlags(cmd)
			if err != nil {
				return err
			}
			model, err := cmd.Flags().GetString("model")
			if err != nil {
				return fmt.Errorf("failed to get model flag: %w", err)
			}
			samplingRate, err := cmd.Flags().GetFloat64("sampling-rate")
			if err != nil {
				return fmt.Errorf("failed to get sampling-rate flag: %w", err)
			}
			trials, err := cmd.Flags().GetInt("permutation-trials")
			if err != nil {
				return fmt.Errorf("failed to get permutation-trials flag: %w", err)
			}
			seed, err := cmd.Flags().GetInt64("seed")
			if err != nil {
				return fmt.Errorf("failed to get seed flag: %w", err)
			}

			log := newLogger(verbose)
			mac := args[0]
			paths := trainer.Paths{ProjectRoot: projectRoot, ModelsRoot: modelsRoot}
			if err := trainer.InferPeriodicity(paths, mac, model, samplingRate, trials, seed); err != nil {
				return fmt.Errorf("infer periodicity: %w", err)
			}
			log.Info("periodicity inferred", "mac", mac, "model", model)
			return nil
		},
	}

	cmd.Flags().String("model", "", "Model name this device resolves to (required)")
	cmd.Flags().Float64("sampling-rate", config.DefaultSamplingRateSeconds, "Burst-bucket sampling rate, in seconds")
	cmd.Flags().Int("permutation-trials", config.DefaultPermutationTrials, "Number of permutation-null trials per bucket")
	cmd.Flags().Int64("seed", 1, "Deterministic RNG seed for the permutation null")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}
