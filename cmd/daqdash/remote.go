package daqdash

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/attpc/daqdash/worker"
	"github.com/spf13/cobra"
)

var tailLines int

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Inspect worker nodes over SSH",
}

var remoteTailCmd = &cobra.Command{
	Use:   "tail HOST PATH",
	Short: "Print the last lines of a file on a worker node",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		session, err := newWorkerDialer().Dial(ctx, args[0])
		if err != nil {
			return err
		}

		defer func() {
			if err := session.Close(); err != nil {
				slog.Debug("Could not close ssh session", "error", err)
			}
		}()

		out, err := worker.New(session).TailFile(ctx, args[1], tailLines)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), out)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteCmd.AddCommand(remoteTailCmd)

	addSSHFlags(remoteCmd.PersistentFlags())
	remoteTailCmd.Flags().IntVarP(&tailLines, "lines", "n", worker.DefaultTailLines, "Number of lines to print")
}
