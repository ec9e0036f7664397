package daqdash

import (
	"fmt"
	"time"

	"github.com/attpc/daqdash/model"
	"github.com/spf13/cobra"
)

var targetDuration time.Duration

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Manage experiment settings",
}

var experimentSetCmd = &cobra.Command{
	Use:   "set NAME",
	Short: "Set the experiment name and target run duration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if targetDuration < 0 {
			return fmt.Errorf("target duration must not be negative, got %s", targetDuration)
		}

		storage, err := openMigratedStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer storage.Close()

		exp := model.Experiment{Name: args[0], TargetRunDuration: targetDuration}
		if err := storage.SetExperiment(cmd.Context(), exp); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Experiment %s saved, target run duration %s\n", exp.Name, exp.TargetRunDuration)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(experimentCmd)
	experimentCmd.AddCommand(experimentSetCmd)
	experimentSetCmd.Flags().DurationVar(&targetDuration, "target-duration", time.Hour, "Planned length of each run")
}
