package daqdash

import (
	"errors"
	"fmt"

	"github.com/attpc/daqdash/bootstrap"
	"github.com/attpc/daqdash/web/assets"
	"github.com/spf13/cobra"
)

var collectDir string

var collectStaticCmd = &cobra.Command{
	Use:   "collectstatic",
	Short: "Copy static files to the directory they are served from",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if collectDir == "" {
			return errors.New("--static-dir must not be empty")
		}

		n, err := bootstrap.CollectStatic(assets.Static(), collectDir)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d static files copied to %s\n", n, collectDir)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(collectStaticCmd)

	collectStaticCmd.Flags().StringVar(&collectDir, "static-dir", "./static",
		"Directory to copy static files into")
}
