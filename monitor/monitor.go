// Package monitor keeps the stored status of the worker nodes up to date by
// checking them over SSH on a schedule.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/attpc/daqdash/logging"
	"github.com/attpc/daqdash/model"
	"github.com/attpc/daqdash/worker"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultInterval        = 30 * time.Second
	DefaultCheckTimeout    = 10 * time.Second
	DefaultOrganizeTimeout = 30 * time.Second

	// organizeLimit caps the data routers being reorganized at once.
	organizeLimit = 4
)

// Store is the part of the status store the monitor reads and writes.
type Store interface {
	ECCServers(ctx context.Context) ([]model.ECCServer, error)
	SetECCServerOnline(ctx context.Context, name string, online bool, at time.Time) error
	DataRouters(ctx context.Context) ([]model.DataRouter, error)
	SetDataRouterStatus(ctx context.Context, name string, status model.RouterStatus, at time.Time) error
}

type Config struct {
	// Interval between two rounds of checks of the same kind.
	Interval time.Duration
	// CheckTimeout bounds a single node check, SSH connection included.
	CheckTimeout time.Duration
	// OrganizeTimeout bounds filing away one router's GRAW files at the end of a run.
	OrganizeTimeout time.Duration
}

type Monitor struct {
	store  Store
	dialer worker.Dialer
	cfg    Config
	now    func() time.Time

	// failing holds the nodes whose last check failed.
	failing sync.Map
}

func New(store Store, dialer worker.Dialer, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = DefaultCheckTimeout
	}

	if cfg.OrganizeTimeout <= 0 {
		cfg.OrganizeTimeout = DefaultOrganizeTimeout
	}

	return &Monitor{store: store, dialer: dialer, cfg: cfg, now: time.Now}
}

// Run checks ECC servers and data routers on independent tickers until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	ctx = logging.AppendCtx(ctx, slog.String(logging.PackageName, "monitor"))

	slog.InfoContext(ctx, "Starting monitor", "interval", m.cfg.Interval)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m.loop(ctx, "ecc servers", m.CheckECCServers)

		return nil
	})

	g.Go(func() error {
		m.loop(ctx, "data routers", m.CheckDataRouters)

		return nil
	})

	return g.Wait()
}

func (m *Monitor) loop(ctx context.Context, name string, check func(context.Context) error) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := check(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "Could not check "+name, "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RefreshAll runs both checks once and waits for them.
func (m *Monitor) RefreshAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return m.CheckECCServers(ctx) })
	g.Go(func() error { return m.CheckDataRouters(ctx) })

	return g.Wait()
}

// CheckECCServers checks every ECC server concurrently. A node that cannot
// be checked keeps its stored status; only failing to list the servers is an error.
func (m *Monitor) CheckECCServers(ctx context.Context) error {
	servers, err := m.store.ECCServers(ctx)
	if err != nil {
		return fmt.Errorf("could not list ECC servers: %w", err)
	}

	var g errgroup.Group

	for _, server := range servers {
		g.Go(func() error {
			ctx := logging.AppendCtx(ctx, slog.String("ecc_server", server.Name))
			m.checkECCServer(ctx, server)

			return nil
		})
	}

	return g.Wait()
}

func (m *Monitor) checkECCServer(ctx context.Context, server model.ECCServer) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.CheckTimeout)
	defer cancel()

	var online bool

	err := m.withWorker(ctx, server.Address, func(w *worker.Interface) error {
		status, err := w.ProcessStatus(ctx)
		online = status.ECCServerRunning

		return err
	})
	if err != nil {
		m.checkFailed(ctx, "ecc:"+server.Name, "Failed to check whether ECC server is online", err)

		return
	}

	m.checkSucceeded(ctx, "ecc:"+server.Name)

	if err := m.store.SetECCServerOnline(ctx, server.Name, online, m.now()); err != nil {
		slog.ErrorContext(ctx, "Could not save ECC server status", "error", err)

		return
	}

	if online != server.Online {
		slog.InfoContext(ctx, "ECC server "+onlineWord(online), "address", server.Address)
	}
}

// CheckDataRouters checks every data router concurrently. The staging
// directory is only inspected when the router process is running.
func (m *Monitor) CheckDataRouters(ctx context.Context) error {
	routers, err := m.store.DataRouters(ctx)
	if err != nil {
		return fmt.Errorf("could not list data routers: %w", err)
	}

	var g errgroup.Group

	for _, router := range routers {
		g.Go(func() error {
			ctx := logging.AppendCtx(ctx, slog.String("data_router", router.Name))
			m.checkDataRouter(ctx, router)

			return nil
		})
	}

	return g.Wait()
}

func (m *Monitor) checkDataRouter(ctx context.Context, router model.DataRouter) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.CheckTimeout)
	defer cancel()

	status := router.RouterStatus

	err := m.withWorker(ctx, router.Address, func(w *worker.Interface) error {
		procs, err := w.ProcessStatus(ctx)
		if err != nil {
			return err
		}

		status.Online = procs.DataRouterRunning
		if !status.Online {
			return nil
		}

		status.StagingClean, err = w.WorkingDirIsClean(ctx)

		return err
	})
	if err != nil {
		m.checkFailed(ctx, "router:"+router.Name, "Failed to check data router status", err)

		return
	}

	m.checkSucceeded(ctx, "router:"+router.Name)

	if err := m.store.SetDataRouterStatus(ctx, router.Name, status, m.now()); err != nil {
		slog.ErrorContext(ctx, "Could not save data router status", "error", err)

		return
	}

	if status.Online != router.Online {
		slog.InfoContext(ctx, "Data router "+onlineWord(status.Online), "address", router.Address)
	}

	if status.Online && !status.StagingClean && router.StagingClean {
		slog.WarnContext(ctx, "Staging directory has GRAW files", "address", router.Address)
	}
}

// OrganizeFiles moves the GRAW files of a finished run into the run's
// directory on every data router, then marks their staging directories clean.
// Routers that fail keep their status and the first failure is returned.
func (m *Monitor) OrganizeFiles(ctx context.Context, experiment string, run int) error {
	routers, err := m.store.DataRouters(ctx)
	if err != nil {
		return fmt.Errorf("could not list data routers: %w", err)
	}

	var g errgroup.Group

	g.SetLimit(organizeLimit)

	for _, router := range routers {
		g.Go(func() error {
			ctx := logging.AppendCtx(ctx, slog.String("data_router", router.Name))

			return m.organizeFiles(ctx, router, experiment, run)
		})
	}

	return g.Wait()
}

func (m *Monitor) organizeFiles(ctx context.Context, router model.DataRouter, experiment string, run int) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.OrganizeTimeout)
	defer cancel()

	var moved int

	err := m.withWorker(ctx, router.Address, func(w *worker.Interface) error {
		var err error

		moved, err = w.OrganizeFiles(ctx, experiment, run)

		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to organize files", "run", run, "error", err)

		return fmt.Errorf("could not organize files on %s: %w", router.Name, err)
	}

	status := router.RouterStatus
	status.StagingClean = true

	if err := m.store.SetDataRouterStatus(ctx, router.Name, status, m.now()); err != nil {
		return fmt.Errorf("could not save status of %s: %w", router.Name, err)
	}

	slog.InfoContext(ctx, "Organized files", "run", run, "files", moved, "dir", worker.RunDir(experiment, run))

	return nil
}

// checkFailed logs the first of consecutive failures of a node as an error
// and the repeats at debug level.
func (m *Monitor) checkFailed(ctx context.Context, node, msg string, err error) {
	if _, repeat := m.failing.LoadOrStore(node, struct{}{}); repeat {
		slog.DebugContext(ctx, msg, "error", err)

		return
	}

	slog.ErrorContext(ctx, msg, "error", err)
}

func (m *Monitor) checkSucceeded(ctx context.Context, node string) {
	if _, was := m.failing.LoadAndDelete(node); was {
		slog.InfoContext(ctx, "Node can be checked again")
	}
}

func (m *Monitor) withWorker(ctx context.Context, host string, fn func(*worker.Interface) error) error {
	session, err := m.dialer.Dial(ctx, host)
	if err != nil {
		return err
	}

	defer func() {
		if err := session.Close(); err != nil {
			slog.DebugContext(ctx, "Could not close ssh session", "error", err)
		}
	}()

	return fn(worker.New(session))
}

func onlineWord(online bool) string {
	if online {
		return "came online"
	}

	return "went offline"
}
