package daqdash

import (
	"fmt"
	"strings"

	"github.com/attpc/daqdash/model"
	"github.com/spf13/cobra"
)

var (
	eccPort    int
	routerPort int
	routerType string
)

var eccCmd = &cobra.Command{
	Use:   "ecc",
	Short: "Manage ECC servers",
}

var eccAddCmd = &cobra.Command{
	Use:   "add NAME ADDRESS",
	Short: "Register an ECC server, or update its address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, err := openMigratedStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer storage.Close()

		server := model.ECCServer{Name: args[0], Address: args[1], Port: eccPort}
		if err := storage.SaveECCServer(cmd.Context(), server); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "ECC server %s at %s:%d saved\n", server.Name, server.Address, server.Port)

		return nil
	},
}

var routerCmd = &cobra.Command{
	Use:   "router",
	Short: "Manage data routers",
}

var routerAddCmd = &cobra.Command{
	Use:   "add NAME ADDRESS",
	Short: "Register a data router, or update its connection settings",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, ok := model.ParseRouterType(strings.ToUpper(routerType))
		if !ok {
			return fmt.Errorf("unknown router type %q: expected TCP, FDT, ZBUF or ICE", routerType)
		}

		storage, err := openMigratedStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer storage.Close()

		router := model.DataRouter{Name: args[0], Address: args[1], Port: routerPort, Type: kind}
		if err := storage.SaveDataRouter(cmd.Context(), router); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Data router %s (%s) at %s:%d saved\n", router.Name, router.Type, router.Address, router.Port)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(eccCmd)
	eccCmd.AddCommand(eccAddCmd)
	eccAddCmd.Flags().IntVar(&eccPort, "port", 8083, "ECC server SOAP port")

	rootCmd.AddCommand(routerCmd)
	routerCmd.AddCommand(routerAddCmd)
	routerAddCmd.Flags().IntVar(&routerPort, "port", 46005, "Data router port")
	routerAddCmd.Flags().StringVar(&routerType, "type", string(model.RouterTCP), "Data router type: TCP, FDT, ZBUF or ICE")
}
