package daqdash

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/attpc/daqdash/bootstrap"
	"github.com/attpc/daqdash/db"
	"github.com/attpc/daqdash/logging"
	"github.com/attpc/daqdash/monitor"
	"github.com/attpc/daqdash/web"
	"github.com/attpc/daqdash/web/assets"
	"github.com/attpc/daqdash/web/panels"
	"github.com/attpc/daqdash/web/routes"
	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	port            int
	dev             bool
	staticDir       string
	dbHost          string
	dbPort          int
	waitTimeout     time.Duration
	refreshInterval time.Duration
	monitorInterval time.Duration
	logLimit        int
	logRetention    time.Duration
)

const pruneInterval = time.Hour

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Bootstrap the deployment and serve the dashboard",
	Long: `Waits for the database to accept connections, applies migrations, collects
static files and then serves the dashboard while monitoring the worker nodes.
Any failing step stops the process with a non-zero exit status.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		storage, err := openStorage()
		if err != nil {
			return err
		}
		defer storage.Close()

		pipeline := newServePipeline(storage, func(ctx context.Context) error {
			return serve(ctx, storage)
		})

		return pipeline.Run(ctx)
	},
}

// newServePipeline assembles the bootstrap sequence of the serve command,
// ending in serveFn.
func newServePipeline(storage *db.SQLStorage, serveFn func(context.Context) error) *bootstrap.Pipeline {
	return bootstrap.New(
		bootstrap.Step{Name: bootstrap.StepWaitForDatabase, Run: waitForDatabase},
		bootstrap.Step{Name: bootstrap.StepMigrate, Run: func(context.Context) error {
			if err := storage.Migrate(); err != nil {
				return err
			}

			// Events are kept for the dashboard from here on.
			slog.SetDefault(slog.New(logging.ContextHandler{
				Handler: logging.NewStoreHandler(baseHandler, storage, slog.LevelInfo),
			}))

			return nil
		}},
		bootstrap.Step{Name: bootstrap.StepCollectStatic, Run: func(ctx context.Context) error {
			if !assets.HasDatastar() {
				slog.WarnContext(ctx, "Datastar bundle missing from the build, panels will not load",
					"bundle", assets.DatastarBundle, "fix", "go generate ./web/assets")
			}

			if staticDir == "" {
				slog.InfoContext(ctx, "No static directory configured, serving embedded files")

				return nil
			}

			_, err := bootstrap.CollectStatic(assets.Static(), staticDir)

			return err
		}},
		bootstrap.Step{Name: bootstrap.StepServe, Run: serveFn},
	)
}

// databaseAddress returns the network and address to wait for, if the
// database is a network service at all.
func databaseAddress() (string, string, bool, error) {
	if dbHost != "" {
		return socketOrTCP(dbHost, dbPort)
	}

	if dbDriver != db.DriverPostgres {
		return "", "", false, nil
	}

	cfg, err := pgx.ParseConfig(dbDSN)
	if err != nil {
		return "", "", false, fmt.Errorf("could not parse database URL: %w", err)
	}

	return socketOrTCP(cfg.Host, int(cfg.Port))
}

// socketOrTCP treats hosts starting with a slash as the directory of a
// PostgreSQL unix socket, the way libpq does.
func socketOrTCP(host string, port int) (string, string, bool, error) {
	if strings.HasPrefix(host, "/") {
		return "unix", filepath.Join(host, ".s.PGSQL."+strconv.Itoa(port)), true, nil
	}

	return "tcp", net.JoinHostPort(host, strconv.Itoa(port)), true, nil
}

func waitForDatabase(ctx context.Context) error {
	network, addr, ok, err := databaseAddress()
	if err != nil {
		return err
	}

	if !ok {
		slog.InfoContext(ctx, "No database host configured, nothing to wait for")

		return nil
	}

	slog.InfoContext(ctx, "Waiting for database", "network", network, "addr", addr, "timeout", waitTimeout)

	return bootstrap.WaitForDial(ctx, network, addr, waitTimeout, bootstrap.DefaultWaitInterval)
}

func serve(ctx context.Context, storage *db.SQLStorage) error {
	mon := monitor.New(storage, newWorkerDialer(), monitor.Config{Interval: monitorInterval})

	handler := &routes.ServerHandler{
		Panels:    panels.NewSet(storage, panels.Config{RefreshInterval: refreshInterval, LogLimit: logLimit}),
		Refresher: mon,
		Store:     storage,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mon.Run(ctx)
	})

	g.Go(func() error {
		pruneLogs(ctx, storage, logRetention, pruneInterval)

		return nil
	})

	g.Go(func() error {
		return web.Serve(ctx, handler, web.Config{Port: port, StaticDir: staticDir, Dev: dev})
	})

	return g.Wait()
}

// LogPruner drops stored log entries that are too old to be shown.
type LogPruner interface {
	PruneLogs(ctx context.Context, cutoff time.Time) (int64, error)
}

// pruneLogs deletes entries older than retention now and on every tick until
// ctx is done. A non-positive retention keeps everything.
func pruneLogs(ctx context.Context, store LogPruner, retention, interval time.Duration) {
	if retention <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := pruneOnce(ctx, store, retention, time.Now()); err != nil && ctx.Err() == nil {
			slog.WarnContext(ctx, "Could not prune log entries", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func pruneOnce(ctx context.Context, store LogPruner, retention time.Duration, now time.Time) (int64, error) {
	n, err := store.PruneLogs(ctx, now.Add(-retention))
	if err != nil {
		return 0, err
	}

	if n > 0 {
		slog.DebugContext(ctx, "Pruned log entries", "count", n)
	}

	return n, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&port, "port", "p", web.DefaultPort,
		"Port on which server should be watching")
	serveCmd.Flags().BoolVar(&dev, "dev", false,
		"Disable browser caching of static files")
	serveCmd.Flags().StringVar(&staticDir, "static-dir", "./static",
		"Directory static files are collected into and served from. Empty serves the embedded copy")
	serveCmd.Flags().StringVar(&dbHost, "db-host", "",
		"Database host to wait for before migrating. Taken from --db-dsn for PostgreSQL when empty")
	serveCmd.Flags().IntVar(&dbPort, "db-port", 5432,
		"Database port to wait for")
	serveCmd.Flags().DurationVar(&waitTimeout, "wait-timeout", bootstrap.DefaultWaitTimeout,
		"How long to wait for the database")
	serveCmd.Flags().DurationVar(&refreshInterval, "refresh-interval", panels.DefaultRefreshInterval,
		"How often open dashboards refresh their panels")
	serveCmd.Flags().DurationVar(&monitorInterval, "monitor-interval", monitor.DefaultInterval,
		"How often worker nodes are checked")
	serveCmd.Flags().IntVar(&logLimit, "log-limit", panels.DefaultLogLimit,
		"Number of log entries in the recent logs panel")
	serveCmd.Flags().DurationVar(&logRetention, "log-retention", 7*24*time.Hour,
		"How long stored log entries are kept. Zero keeps them forever")
	addSSHFlags(serveCmd.Flags())
}
