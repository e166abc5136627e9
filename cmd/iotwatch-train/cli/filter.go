package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fenwicklabs/iotwatch/internal/config"
	"github.com/fenwicklabs/iotwatch/internal/periodicity"
	"github.com/fenwicklabs/iotwatch/internal/trainer"
)

// TrainPeriodicFilterCmd implements
// `iotwatch-train train-periodic-filter <mac> --model <model>` (spec.md
// §4.6.3 / §6). The DBSCAN eps is looked up per device model from the
// fuzzy-matched eps table (SPEC_FULL.md's eps-by-device supplemented
// feature), falling back to --eps when no table is configured.
type TrainPeriodicFilterCmd struct{}

func NewTrainPeriodicFilterCmd() *TrainPeriodicFilterCmd {
	return &TrainPeriodicFilterCmd{}
}

func (c *TrainPeriodicFilterCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train-periodic-filter <mac>",
		Short: "Fit periodic-traffic density filter models for one device",
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
			eps, err := cmd.Flags().GetFloat64("eps")
			if err != nil {
				return fmt.Errorf("failed to get eps flag: %w", err)
			}
			minSamples, err := cmd.Flags().GetInt("min-samples")
			if err != nil {
				return fmt.Errorf("failed to get min-samples flag: %w", err)
			}
			epsListPath, err := cmd.Flags().GetString("eps-list")
			if err != nil {
				return fmt.Errorf("failed to get eps-list flag: %w", err)
			}

			log := newLogger(verbose)

			if epsListPath == "" {
				epsListPath = filepath.Join(projectRoot, "core", "eps_list.json")
			}
			if epsTable, err := periodicity.LoadEpsTable(epsListPath); err == nil {
				eps = epsTable.Lookup(model)
			} else {
				log.Debug("eps table unavailable, using --eps", "path", epsListPath, "err", err)
			}

			mac := args[0]
			paths := trainer.Paths{ProjectRoot: projectRoot, ModelsRoot: modelsRoot}
			stats, err := trainer.TrainPeriodicFilter(paths, mac, model, eps, minSamples)
			if err != nil {
				return fmt.Errorf("train periodic filter: %w", err)
			}
			for tuple, s := range stats {
				log.Info("filter model trained", "mac", mac, "model", model, "bucket", tuple, "eps", eps, "stats", s)
			}
			return nil
		},
	}

	cmd.Flags().String("model", "", "Model name this device resolves to (required)")
	cmd.Flags().Float64("eps", config.DefaultDBSCANEps, "DBSCAN epsilon, used when the eps table cannot be loaded")
	cmd.Flags().Int("min-samples", config.DefaultDBSCANMinSamples, "DBSCAN minimum core-point sample count")
	cmd.Flags().String("eps-list", "", "Path to the eps-by-device JSON table (defaults to core/eps_list.json under --project-root)")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}
