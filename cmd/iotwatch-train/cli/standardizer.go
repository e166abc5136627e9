package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fenwicklabs/iotwatch/internal/trainer"
)

// TrainStandardizerCmd implements `iotwatch-train train-standardizer <mac>`
// (spec.md §4.6.1 / §6).
type TrainStandardizerCmd struct{}

func NewTrainStandardizerCmd() *TrainStandardizerCmd {
	return &TrainStandardizerCmd{}
}

func (c *TrainStandardizerCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "train-standardizer <mac>",
		Short: "Fit and persist the standardizer for one device's idle traffic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, projectRoot, modelsRoot, err := rootFlags(cmd)
			if err != nil {
				return err
			}
			log := newLogger(verbose)

			mac := args[0]
			paths := trainer.Paths{ProjectRoot: projectRoot, ModelsRoot: modelsRoot}
			if err := trainer.TrainStandardizer(paths, mac); err != nil {
				return fmt.Errorf("train standardizer: %w", err)
			}
			log.Info("standardizer trained", "mac", mac)
			return nil
		},
	}
}
