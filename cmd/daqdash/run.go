package daqdash

import (
	"errors"
	"fmt"
	"time"

	"github.com/attpc/daqdash/db"
	"github.com/attpc/daqdash/monitor"
	"github.com/spf13/cobra"
)

var (
	runTitle  string
	keepFiles bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Record the start and end of runs",
}

var runStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Record that a new run has started",
	RunE: func(cmd *cobra.Command, _ []string) error {
		storage, err := openMigratedStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer storage.Close()

		run, err := storage.StartRun(cmd.Context(), runTitle, time.Now())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Run %d started\n", run.Number)

		return nil
	},
}

var runStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Record that the current run has ended and file away its data",
	Long: `Marks the active run as stopped, then moves the GRAW files on every data
router into <experiment>/run_NNNN below the router's working directory.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		storage, err := openMigratedStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer storage.Close()

		now := time.Now()

		run, err := storage.StopRun(cmd.Context(), now)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Run %d stopped after %s\n", run.Number, run.Elapsed(now).Round(time.Second))

		if keepFiles {
			return nil
		}

		exp, err := storage.Experiment(cmd.Context())
		if errors.Is(err, db.ErrNoExperiment) {
			fmt.Fprintln(cmd.OutOrStdout(), "No experiment set, GRAW files left in place")

			return nil
		}

		if err != nil {
			return err
		}

		mon := monitor.New(storage, newWorkerDialer(), monitor.Config{})
		if err := mon.OrganizeFiles(cmd.Context(), exp.Name, run.Number); err != nil {
			return fmt.Errorf("run %d stopped but its files were not all organized: %w", run.Number, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Files of run %d organized\n", run.Number)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.AddCommand(runStartCmd, runStopCmd)
	runStartCmd.Flags().StringVarP(&runTitle, "title", "t", "", "Run title")
	runStopCmd.Flags().BoolVar(&keepFiles, "keep-files", false, "Leave GRAW files in the staging directories")
	addSSHFlags(runStopCmd.Flags())
}
