package daqdash

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/attpc/daqdash/db"
	"github.com/attpc/daqdash/logging"
	"github.com/attpc/daqdash/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	dbDriver      string
	dbDSN         string
	sshConfigPath string
	sshUser       string

	// baseHandler is where log records end up on the terminal.
	baseHandler slog.Handler = slog.Default().Handler()

	// newWorkerDialer connects to worker nodes. Tests replace it.
	newWorkerDialer = func() worker.Dialer {
		return worker.NewSSHDialer(worker.SSHConfig{ConfigPath: sshConfigPath, User: sshUser})
	}
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "daqdash",
	Short: "Status dashboard for the AT-TPC data acquisition system",
	Long: `daqdash shows the state of the AT-TPC DAQ at a glance: the current run,
the ECC servers and data routers on the worker nodes, and recent events.
It also keeps that state up to date by checking the worker nodes over SSH.`,
	PersistentPreRun: bindFlags,
	SilenceUsage:     true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(handler slog.Handler) {
	if handler != nil {
		baseHandler = handler
	}

	slog.SetDefault(slog.New(logging.ContextHandler{Handler: baseHandler}))

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.daqdash.toml)")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "db-driver", db.DriverSQLite,
		"Database driver: sqlite3 or pgx (PostgreSQL)")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "db-dsn", "./daqdash.sqlite",
		"Database file path (sqlite3) or connection URL (pgx)")
}

func initConfig() {
	if cfgFile != "" {
		slog.Debug("Using config file", "path", cfgFile)
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".daqdash" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("toml")
		viper.SetConfigName(".daqdash")
	}
	// Set environment variable prefix
	viper.SetEnvPrefix("daqdash")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			slog.Error("Error reading config file", "error", err)
			os.Exit(1)
		}

		slog.Debug("No config file found, using flags and environment")
	}
}

func addSSHFlags(flags *pflag.FlagSet) {
	flags.StringVar(&sshConfigPath, "ssh-config", "",
		"SSH client config used to reach worker nodes (default is ~/.ssh/config)")
	flags.StringVar(&sshUser, "ssh-user", "",
		"User to log into worker nodes as, overriding the SSH config")
}

// set values to the PFlag variables from config, if they are set. Priority is still given to explicitly provided CLI flags.
func bindFlags(cmd *cobra.Command, _ []string) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// If using camelCase in the config file, replace hyphens with a camelCased string.
		// Since viper does case-insensitive comparisons, we don't need to bother fixing the case, and only need to remove the hyphens.
		configName := strings.ReplaceAll(f.Name, "-", "")

		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && viper.IsSet(configName) {
			val := viper.Get(configName)

			err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
			if err != nil {
				slog.Error("Error setting flag from config", "flag", f.Name, "error", err)
				panic(err)
			}

			slog.Debug("Flag set to config value", "flag", f.Name, "value", val)
		}
	})
}

// openStorage connects to the configured database without touching its schema.
func openStorage() (*db.SQLStorage, error) {
	storage, err := db.Open(dbDriver, dbDSN)
	if err != nil {
		return nil, fmt.Errorf("could not open %s database %s: %w", dbDriver, dbDSN, err)
	}

	return storage, nil
}

// openMigratedStorage is for commands that run against an existing deployment.
func openMigratedStorage(ctx context.Context) (*db.SQLStorage, error) {
	storage, err := openStorage()
	if err != nil {
		return nil, err
	}

	if err := storage.Ping(ctx); err != nil {
		storage.Close()

		return nil, err
	}

	if err := storage.Migrate(); err != nil {
		storage.Close()

		return nil, err
	}

	return storage, nil
}
