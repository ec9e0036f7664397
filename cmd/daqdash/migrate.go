package daqdash

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		storage, err := openMigratedStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer storage.Close()

		version, err := storage.MigrationVersion()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Database schema is at version %d\n", version)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
